package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/calendaragent/internal/agent"
)

func newAskCmd() *cobra.Command {
	var transcript bool

	cmd := &cobra.Command{
		Use:   "ask <request>",
		Short: "Run one request through the agent and print the reply",
		Long: `Run a single natural-language request through the agent, for example:

  calendaragent ask "Schedule a meeting with Bob tomorrow at 3pm for 30 minutes"

By default only the final reply is printed. Use --transcript to print the
whole conversation as JSON, in the same form the HTTP API returns it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.OutOrStdout(), strings.Join(args, " "), transcript)
		},
	}

	cmd.Flags().BoolVar(&transcript, "transcript", false, "Print the full conversation as JSON")

	return cmd
}

func runAsk(out io.Writer, input string, transcript bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(ctx, runtimeOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close(context.Background())
	}()

	a, _, err := rt.newAgent()
	if err != nil {
		return err
	}

	res, err := a.Run(ctx, input)
	if err != nil {
		return err
	}
	return printResult(out, res, transcript)
}

func printResult(out io.Writer, res *agent.Result, transcript bool) error {
	if !transcript {
		_, err := fmt.Fprintln(out, res.Final)
		return err
	}
	data, err := json.MarshalIndent(res.State, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
