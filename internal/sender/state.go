package sender

import (
	"fmt"
	"time"
)

// Config describes one submission run. Immutable once validated.
type Config struct {
	Username string
	Message  string
	Count    int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Validate ensures the run parameters are usable.
func (c Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("username must not be empty")
	}
	if c.Message == "" {
		return fmt.Errorf("message must not be empty")
	}
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("minimum delay must not be negative, got %s", c.MinDelay)
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("maximum delay %s is below minimum delay %s", c.MaxDelay, c.MinDelay)
	}
	return nil
}

// State tracks loop progress for one run. Index only advances on
// success or on a non-rate-limit failure; it never exceeds count+1.
type State struct {
	Sent                  int
	Failed                int
	ConsecutiveRateLimits int
	Index                 int
}

// Report summarizes a finished run.
type Report struct {
	Requested int
	Succeeded int
	Failed    int
	Aborted   bool
}

// SuccessRate returns succeeded/(succeeded+failed). ok is false when
// nothing was tallied. Rate-limited retries count as failures, so the
// rate can sit below succeeded/requested even on a fully delivered run.
func (r Report) SuccessRate() (float64, bool) {
	total := r.Succeeded + r.Failed
	if total == 0 {
		return 0, false
	}
	return float64(r.Succeeded) / float64(total), true
}
