package sender

import (
	"math"
	"time"
)

const (
	// rateLimitBaseWait is the wait after the first consecutive 429.
	rateLimitBaseWait = 30 * time.Second

	// rateLimitMaxWait caps the escalation.
	rateLimitMaxWait = 5 * time.Minute

	// rateLimitGrowth scales the wait on each further consecutive 429.
	rateLimitGrowth = 1.5

	// failureDelay is the pause after a terminal (non-429) failure.
	failureDelay = 2 * time.Second
)

// rateLimitWait returns how long to back off after the nth consecutive
// rate limit: 30s, 45s, 67.5s, ... capped at 5 minutes.
func rateLimitWait(consecutive int) time.Duration {
	if consecutive < 1 {
		consecutive = 1
	}
	wait := time.Duration(float64(rateLimitBaseWait) * math.Pow(rateLimitGrowth, float64(consecutive-1)))
	if wait > rateLimitMaxWait {
		wait = rateLimitMaxWait
	}
	return wait
}
