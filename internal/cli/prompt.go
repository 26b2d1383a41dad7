package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/itsmrshow/nglsend/internal/sender"
)

// prompter reads interactive answers line by line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// text asks for a single line and returns it trimmed.
func (p *prompter) text(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// intValue asks for a whole number.
func (p *prompter) intValue(label string) (int, error) {
	raw, err := p.text(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("please enter a valid number")
	}
	return n, nil
}

// durationSeconds asks for a duration expressed in seconds, falling
// back to def when the answer is empty or unparsable.
func (p *prompter) durationSeconds(label string, def time.Duration) time.Duration {
	raw, err := p.text(fmt.Sprintf("%s (default: %s)", label, formatSeconds(def)))
	if err != nil || raw == "" {
		return def
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 {
		fmt.Fprintf(p.out, "Invalid input, using default %s\n", formatSeconds(def))
		return def
	}
	return time.Duration(secs * float64(time.Second))
}

// confirm asks a y/n question.
func (p *prompter) confirm(label string) bool {
	raw, err := p.text(label + " (y/n)")
	if err != nil {
		return false
	}
	return strings.EqualFold(raw, "y") || strings.EqualFold(raw, "yes")
}

// rateLimitDecision is the mid-run continue/stop choice after repeated
// throttling.
func (p *prompter) rateLimitDecision(consecutive int, wait time.Duration) sender.Decision {
	fmt.Fprintf(p.out, "  options:\n    1. wait %s and continue\n    2. stop now\n", wait)
	answer, err := p.text("  enter choice (1 or 2)")
	if err == nil && answer == "2" {
		return sender.DecisionStop
	}
	return sender.DecisionContinue
}

// formatSeconds renders a duration as a bare seconds value for prompts.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
