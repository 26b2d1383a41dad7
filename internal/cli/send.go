package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/itsmrshow/nglsend/internal/config"
	"github.com/itsmrshow/nglsend/internal/logging"
	"github.com/itsmrshow/nglsend/internal/ngl"
	"github.com/itsmrshow/nglsend/internal/sender"
)

// NewSendCommand creates the send command
func NewSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send anonymous messages to an NGL handle",
		Long: `Sends one or more anonymous messages to a target NGL handle with
random delays between successful sends. Rate-limited attempts back off
with escalating waits and are retried in place; other failures are
counted and skipped. Values not given as flags are prompted for.`,
		RunE: runSend,
	}

	cmd.Flags().String("user", "", "Target NGL username")
	cmd.Flags().String("message", "", "Message text to send")
	cmd.Flags().Int("count", 0, "How many messages to send")
	cmd.Flags().Duration("min-delay", 0, "Minimum delay between successful sends")
	cmd.Flags().Duration("max-delay", 0, "Maximum delay between successful sends")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	logger := logging.Default()

	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	defaults, err := config.Load(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	prompt := newPrompter(cmd.InOrStdin(), out)

	printBanner(out)

	runCfg, err := collectRunConfig(cmd, prompt, defaults)
	if err != nil {
		return err
	}

	printRunConfig(out, runCfg)

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm && !prompt.confirm("\nProceed?") {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	fmt.Fprintf(out, "\n--- Sending %d messages to @%s ---\n\n", runCfg.Count, runCfg.Username)

	client := ngl.NewClient(logger).WithUserAgent(defaults.UserAgent)
	runner := sender.NewRunner(client, out, logger, prompt.rateLimitDecision)

	report, err := runner.Run(cmd.Context(), runCfg)
	if err != nil {
		return err
	}

	renderSummary(out, runCfg.Username, report)
	return nil
}

// collectRunConfig merges flags, config-file defaults and interactive
// answers into a validated run configuration.
func collectRunConfig(cmd *cobra.Command, prompt *prompter, defaults config.File) (sender.Config, error) {
	username, _ := cmd.Flags().GetString("user")
	if username == "" {
		answer, err := prompt.text("\nEnter the target NGL username")
		if err != nil {
			return sender.Config{}, err
		}
		username = answer
	}
	if username == "" {
		return sender.Config{}, fmt.Errorf("username cannot be empty")
	}

	message, _ := cmd.Flags().GetString("message")
	if message == "" {
		answer, err := prompt.text("Enter your anonymous message")
		if err != nil {
			return sender.Config{}, err
		}
		message = answer
	}
	if message == "" {
		return sender.Config{}, fmt.Errorf("message cannot be empty")
	}

	count, _ := cmd.Flags().GetInt("count")
	if count == 0 {
		count = defaults.Count
	}
	if count == 0 {
		n, err := prompt.intValue("How many times to send the message?")
		if err != nil {
			return sender.Config{}, err
		}
		count = n
	}
	if count < 1 {
		return sender.Config{}, fmt.Errorf("count must be at least 1")
	}

	minDelay, maxDelay := resolveDelays(cmd, prompt, defaults)

	cfg := sender.Config{
		Username: username,
		Message:  message,
		Count:    count,
		MinDelay: minDelay,
		MaxDelay: maxDelay,
	}
	if err := cfg.Validate(); err != nil {
		return sender.Config{}, err
	}
	return cfg, nil
}

// resolveDelays picks the inter-message delay bounds. Invalid
// combinations fall back to the defaults rather than aborting the run.
func resolveDelays(cmd *cobra.Command, prompt *prompter, defaults config.File) (time.Duration, time.Duration) {
	minDelay := defaults.MinDelay.Std()
	maxDelay := defaults.MaxDelay.Std()

	flagged := cmd.Flags().Changed("min-delay") || cmd.Flags().Changed("max-delay")
	if flagged {
		if cmd.Flags().Changed("min-delay") {
			minDelay, _ = cmd.Flags().GetDuration("min-delay")
		}
		if cmd.Flags().Changed("max-delay") {
			maxDelay, _ = cmd.Flags().GetDuration("max-delay")
		}
	} else {
		fmt.Fprintln(prompt.out, "\n--- Delay Settings ---")
		fmt.Fprintln(prompt.out, "Recommended: 1-2 seconds (faster but may hit the rate limit sooner)")
		minDelay = prompt.durationSeconds("Minimum delay in seconds", minDelay)
		maxDelay = prompt.durationSeconds("Maximum delay in seconds", maxDelay)
	}

	if minDelay < 0 || maxDelay < minDelay {
		fmt.Fprintf(prompt.out, "Invalid delays, using defaults: %s-%s\n",
			defaults.MinDelay.Std(), defaults.MaxDelay.Std())
		return defaults.MinDelay.Std(), defaults.MaxDelay.Std()
	}
	return minDelay, maxDelay
}

func printBanner(out io.Writer) {
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "       NGL Anonymous Message Sender")
	fmt.Fprintln(out, strings.Repeat("=", 50))
}

func printRunConfig(out io.Writer, cfg sender.Config) {
	fmt.Fprintf(out, "\nConfiguration:\n")
	fmt.Fprintf(out, "  Target:  @%s\n", cfg.Username)
	fmt.Fprintf(out, "  Message: %q\n", cfg.Message)
	fmt.Fprintf(out, "  Count:   %d\n", cfg.Count)
	fmt.Fprintf(out, "  Delay:   %s-%s\n", cfg.MinDelay, cfg.MaxDelay)
	fmt.Fprintln(out, "\nNote: rate-limited attempts (429) are retried automatically after a wait.")
}

func renderSummary(out io.Writer, username string, report sender.Report) {
	fmt.Fprintf(out, "\nSummary for @%s\n", username)

	table := tablewriter.NewTable(out)
	table.Header([]string{"Result", "Count"})
	_ = table.Append([]string{"Successful", fmt.Sprintf("%d/%d", report.Succeeded, report.Requested)})
	_ = table.Append([]string{"Failed", fmt.Sprintf("%d/%d", report.Failed, report.Requested)})
	if rate, ok := report.SuccessRate(); ok {
		_ = table.Append([]string{"Success rate", fmt.Sprintf("%.1f%%", rate*100)})
	}
	if report.Aborted {
		_ = table.Append([]string{"Stopped early", "yes"})
	}
	_ = table.Render()
}
