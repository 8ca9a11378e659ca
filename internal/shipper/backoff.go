package shipper

import "time"

// RetryPolicy controls per-cycle ship retries: linearly increasing delay
// for the first attempts, then exponential doubling, capped. On exhaustion
// the cycle gives up silently and the checkpoint stays put, so the next
// cycle retries the same batch.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// LinearAttempts is how many retries use linear growth before the
	// delay starts doubling.
	LinearAttempts int
	MaxDelay       time.Duration
}

// DefaultRetryPolicy mirrors the shipper defaults: 5 attempts, 200ms base,
// 3 linear steps, 10s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		BaseDelay:      200 * time.Millisecond,
		LinearAttempts: 3,
		MaxDelay:       10 * time.Second,
	}
}

// Delay returns the wait before retry attempt n (1-based; attempt 0 is the
// initial try and has no delay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}

	var d time.Duration
	if attempt <= p.LinearAttempts {
		d = base * time.Duration(attempt)
	} else {
		// Continue from the last linear delay, doubling per extra attempt.
		d = base * time.Duration(p.LinearAttempts)
		if p.LinearAttempts <= 0 {
			d = base
		}
		for i := p.LinearAttempts; i < attempt; i++ {
			d *= 2
			if p.MaxDelay > 0 && d >= p.MaxDelay {
				return p.MaxDelay
			}
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
