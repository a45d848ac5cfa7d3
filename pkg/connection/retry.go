package connection

import "time"

// Retry defaults.
const (
	// DefaultMaxAttempts bounds connects per Session.Start, reconnects included.
	DefaultMaxAttempts = 10

	// DefaultConnectTimeout bounds a single connect attempt.
	DefaultConnectTimeout = 40 * time.Second

	// DefaultRetryDelay separates failed attempts.
	DefaultRetryDelay = 2500 * time.Millisecond

	// DefaultPollInterval is the keep-alive poll granularity.
	DefaultPollInterval = 1 * time.Second
)

// RetryPolicy configures the connect loop.
type RetryPolicy struct {
	MaxAttempts    int
	ConnectTimeout time.Duration
	RetryDelay     time.Duration
	PollInterval   time.Duration
}

// DefaultRetryPolicy returns the default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    DefaultMaxAttempts,
		ConnectTimeout: DefaultConnectTimeout,
		RetryDelay:     DefaultRetryDelay,
		PollInterval:   DefaultPollInterval,
	}
}

// withDefaults fills zero fields from DefaultRetryPolicy.
// A negative RetryDelay means no delay.
func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.ConnectTimeout <= 0 {
		p.ConnectTimeout = d.ConnectTimeout
	}
	if p.RetryDelay == 0 {
		p.RetryDelay = d.RetryDelay
	}
	if p.RetryDelay < 0 {
		p.RetryDelay = 0
	}
	if p.PollInterval <= 0 {
		p.PollInterval = d.PollInterval
	}
	return p
}

// attemptBudget counts attempts against MaxAttempts. It is owned by the loop
// goroutine.
type attemptBudget struct {
	max  int
	used int
}

func newAttemptBudget(max int) *attemptBudget {
	return &attemptBudget{max: max}
}

// next consumes one attempt and returns its 1-based number.
func (b *attemptBudget) next() (uint32, bool) {
	if b.used >= b.max {
		return 0, false
	}
	b.used++
	return uint32(b.used), true
}

// exhausted reports whether no attempts remain.
func (b *attemptBudget) exhausted() bool {
	return b.used >= b.max
}
