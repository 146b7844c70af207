package pipeline

// Stage is the capability shared by all transforms: advance with the next
// sample and return the value to pass on.
type Stage interface {
	Advance(in Sample) Sample
}

// StageFunc adapts a function into a Stage.
type StageFunc func(Sample) Sample

// Advance calls f.
func (f StageFunc) Advance(in Sample) Sample { return f(in) }

// Link builds a stage that forwards its output to next.
type Link func(next Stage) Stage

// identity ends every chain.
var identity = StageFunc(func(s Sample) Sample { return s })

// Chain composes links in data-flow order: the first link receives the
// extracted sample, the last one feeds the formatter.
func Chain(links ...Link) Stage {
	var stage Stage = identity
	for i := len(links) - 1; i >= 0; i-- {
		stage = links[i](stage)
	}
	return stage
}

// Map applies fn to every sample before passing it on.
func Map(fn func(Sample) Sample) Link {
	return func(next Stage) Stage {
		return StageFunc(func(in Sample) Sample {
			return next.Advance(fn(in))
		})
	}
}
