package pipeline

// rateLimiter recomputes downstream output only on every period-th tick and
// re-emits the held value otherwise.
type rateLimiter struct {
	next             Stage
	period           int
	ticksSinceUpdate int
	last             Sample
}

// RateLimit returns a link that invokes the rest of the chain on ticks 0,
// period, 2*period, ... and returns the previous output on all other ticks.
// While the held value is invalid the next tick recomputes regardless, so a
// failed sample is not displayed for a whole period. Periods below 1 are
// treated as 1.
func RateLimit(period int) Link {
	if period < 1 {
		period = 1
	}
	return func(next Stage) Stage {
		return &rateLimiter{next: next, period: period, last: Missing}
	}
}

func (r *rateLimiter) Advance(in Sample) Sample {
	if r.ticksSinceUpdate == 0 || !r.last.Valid() {
		r.last = r.next.Advance(in)
		r.ticksSinceUpdate = 0
	}
	r.ticksSinceUpdate = (r.ticksSinceUpdate + 1) % r.period
	return r.last
}
