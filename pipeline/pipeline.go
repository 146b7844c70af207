package pipeline

// Pipeline binds an Extractor, a chain of stages and a Format. It keeps the
// last rendered text so that ticks without fresh data can redisplay it.
type Pipeline struct {
	extract Extractor
	chain   Stage
	format  Format
	last    Sample
	display string
}

// New builds a pipeline. links are applied in data-flow order between
// extraction and formatting. The initial display is the sentinel.
func New(extract Extractor, format Format, links ...Link) *Pipeline {
	return &Pipeline{
		extract: extract,
		chain:   Chain(links...),
		format:  format,
		last:    Missing,
		display: format.Render(Missing),
	}
}

// Advance feeds one terminated raw sample through the pipeline and returns
// the new display text.
func (p *Pipeline) Advance(raw []byte) string {
	p.last = p.chain.Advance(p.extract.Extract(raw))
	p.display = p.format.Render(p.last)
	return p.display
}

// Fail records a failed sample. The display becomes the sentinel while the
// stage state is left untouched.
func (p *Pipeline) Fail() string {
	p.last = Missing
	p.display = p.format.Render(Missing)
	return p.display
}

// Value returns the sample behind the current display, for entries derived
// from several pipelines.
func (p *Pipeline) Value() Sample {
	return p.last
}

// Display returns the current display text.
func (p *Pipeline) Display() string {
	return p.display
}
