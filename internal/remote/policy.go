package remote

import "time"

// Policy bounds one logical remote call.
type Policy struct {
	// Timeout is the budget of a single attempt. Zero means no budget.
	Timeout time.Duration
	// MaxRetries is how many attempts may follow the first one.
	MaxRetries int
	// Backoff is the linear step between attempts: retry n waits n*Backoff.
	Backoff time.Duration
}

// Delay is the wait before the given retry (1-based).
func (p Policy) Delay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	return time.Duration(retry) * p.Backoff
}

// Attempts is the upper bound of network attempts under p.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Mode says how a failed call is meant to be presented.
type Mode int

const (
	// Surfaced failures are shown to the user with a retry affordance.
	Surfaced Mode = iota
	// Silent failures are only logged; whatever was displayed before is
	// handled by the caller.
	Silent
)

func (m Mode) String() string {
	if m == Silent {
		return "silent"
	}
	return "surfaced"
}
