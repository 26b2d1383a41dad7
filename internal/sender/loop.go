package sender

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/itsmrshow/nglsend/internal/logging"
	"github.com/itsmrshow/nglsend/internal/ngl"
)

// Transport performs one submission attempt.
type Transport interface {
	Send(ctx context.Context, username, message string) ngl.Outcome
}

// Decision is the answer to the escalated rate-limit prompt.
type Decision int

const (
	DecisionContinue Decision = iota
	DecisionStop
)

// escalationThreshold is how many consecutive rate limits it takes
// before the decision callback is consulted.
const escalationThreshold = 3

// DecisionFunc is invoked once the run has been rate limited
// escalationThreshold times in a row, before the backoff wait starts.
// A nil DecisionFunc always continues.
type DecisionFunc func(consecutive int, wait time.Duration) Decision

// Runner drives a single submission run to completion. Exactly one
// network call is outstanding at any time; the run blocks on the
// transport, on delays, and on the decision callback.
type Runner struct {
	transport Transport
	out       io.Writer
	logger    *logging.Logger
	decide    DecisionFunc

	// Test seams; both default to the real thing.
	sleep     func(ctx context.Context, d time.Duration) error
	randFloat func() float64
}

// NewRunner creates a runner. Progress lines, the rate-limit countdown
// and status messages go to out.
func NewRunner(transport Transport, out io.Writer, logger *logging.Logger, decide DecisionFunc) *Runner {
	return &Runner{
		transport: transport,
		out:       out,
		logger:    logger.WithComponent("sender"),
		decide:    decide,
		sleep:     sleepCtx,
		randFloat: rand.Float64,
	}
}

// Run sends cfg.Count messages, retrying rate-limited slots in place
// and skipping slots that fail for any other reason. It returns once
// every slot has been processed, the decision callback stops the run,
// or ctx is canceled.
func (r *Runner) Run(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	log := r.logger.WithTarget(cfg.Username)
	st := State{Index: 1}
	aborted := false

loop:
	for st.Index <= cfg.Count {
		fmt.Fprintf(r.out, "[%d/%d] Sending... ", st.Index, cfg.Count)

		outcome := r.transport.Send(ctx, cfg.Username, cfg.Message)

		switch {
		case outcome.Success:
			st.Sent++
			st.ConsecutiveRateLimits = 0
			st.Index++
			fmt.Fprintln(r.out, "success")
			log.Debug().Int("sent", st.Sent).Msg("Message delivered")

			if st.Index <= cfg.Count {
				if err := r.sleep(ctx, r.messageDelay(cfg)); err != nil {
					aborted = true
					break loop
				}
			}

		case outcome.Reason == ngl.ReasonRateLimited:
			st.Failed++
			st.ConsecutiveRateLimits++
			wait := rateLimitWait(st.ConsecutiveRateLimits)

			fmt.Fprintln(r.out, "rate limited")
			fmt.Fprintf(r.out, "  hit rate limit %d time(s), waiting %s before retrying this message\n",
				st.ConsecutiveRateLimits, wait)
			log.Warn().
				Int("consecutive", st.ConsecutiveRateLimits).
				Dur("wait", wait).
				Msg("Rate limited, will retry same slot")

			if st.ConsecutiveRateLimits >= escalationThreshold {
				fmt.Fprintf(r.out, "  rate limited %d times in a row; the service likely enforces a hard limit around 25-30 messages\n",
					st.ConsecutiveRateLimits)
				if r.decision(st.ConsecutiveRateLimits, wait) == DecisionStop {
					fmt.Fprintln(r.out, "Stopping as requested.")
					log.Info().Msg("Run stopped during rate-limit escalation")
					aborted = true
					break loop
				}
			}

			if err := r.countdown(ctx, wait); err != nil {
				aborted = true
				break loop
			}
			// Index stays put: this slot is retried.

		default:
			st.Failed++
			st.ConsecutiveRateLimits = 0
			st.Index++
			fmt.Fprintf(r.out, "failed: %s\n", outcome)
			log.Warn().Str("reason", outcome.Reason.String()).Msg("Submission failed, skipping slot")

			if err := r.sleep(ctx, failureDelay); err != nil {
				aborted = true
				break loop
			}
		}
	}

	report := Report{
		Requested: cfg.Count,
		Succeeded: st.Sent,
		Failed:    st.Failed,
		Aborted:   aborted,
	}

	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Bool("aborted", report.Aborted).
		Msg("Run finished")

	return report, nil
}

// messageDelay picks a uniformly random pause in [MinDelay, MaxDelay].
func (r *Runner) messageDelay(cfg Config) time.Duration {
	spread := cfg.MaxDelay - cfg.MinDelay
	if spread <= 0 {
		return cfg.MinDelay
	}
	return cfg.MinDelay + time.Duration(r.randFloat()*float64(spread))
}

func (r *Runner) decision(consecutive int, wait time.Duration) Decision {
	if r.decide == nil {
		return DecisionContinue
	}
	return r.decide(consecutive, wait)
}

// countdown blocks for wait, printing the remaining whole seconds once
// per second. Any sub-second remainder is slept off first.
func (r *Runner) countdown(ctx context.Context, wait time.Duration) error {
	remaining := int(wait.Seconds())
	if frac := wait - time.Duration(remaining)*time.Second; frac > 0 {
		if err := r.sleep(ctx, frac); err != nil {
			return err
		}
	}
	for ; remaining > 0; remaining-- {
		fmt.Fprintf(r.out, "\r  waiting: %d seconds remaining...   ", remaining)
		if err := r.sleep(ctx, time.Second); err != nil {
			return err
		}
	}
	fmt.Fprint(r.out, "\r  wait complete, retrying...        \n")
	return nil
}

// sleepCtx waits for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
