package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deckhand-ci/deckhand/internal/gate"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// NewNotifyCmd creates the notify command.
func NewNotifyCmd() *cobra.Command {
	var notifier string
	var finalize bool

	cmd := &cobra.Command{
		Use:   "notify [build-event.json]",
		Short: "Run the notification gate for one completed build",
		Long: "Reads a build-completed event from the given JSON file (or stdin " +
			"with \"-\") and conditionally schedules the configured rundeck job.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(cmd.Context(), args[0], notifier, finalize)
		},
	}

	cmd.Flags().StringVar(&notifier, "notifier", "", "Notifier entry to use (defaults to \"default\")")
	cmd.Flags().BoolVar(&finalize, "finalize", true, "Apply deferred failure signals after the run")
	return cmd
}

func runNotify(ctx context.Context, path, notifier string, finalize bool) error {
	build, err := readBuildEvent(path)
	if err != nil {
		return err
	}

	a, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, ok := a.cfg.Notifier(notifier)
	if !ok {
		return fmt.Errorf("unknown notifier %q", notifier)
	}

	if err := a.store.PutBuild(ctx, *build); err != nil {
		return fmt.Errorf("recording build: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	res := a.gate.Run(runCtx, build, cfg, a.deferred, gate.NewWriterLog(os.Stdout))

	// A one-shot invocation finalizes immediately: the build result the CI
	// system reports is whatever this process exits with.
	if finalize {
		if signals := a.deferred.Finalize(build.Key()); len(signals) > 0 {
			res.StepOK = false
		}
	}

	printOutcome(res.Outcome)
	if !res.StepOK {
		return fmt.Errorf("notification failed: %s", res.Outcome.Kind)
	}
	return nil
}

func readBuildEvent(path string) (*types.Build, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading build event: %w", err)
	}

	var build types.Build
	if err := json.Unmarshal(data, &build); err != nil {
		return nil, fmt.Errorf("parsing build event: %w", err)
	}
	if build.Project == "" || build.Number <= 0 {
		return nil, fmt.Errorf("build event must carry project and number")
	}
	return &build, nil
}

func printOutcome(outcome types.Outcome) {
	switch {
	case outcome.Kind == types.OutcomeSuccess:
		color.Green("✓ scheduled rundeck execution: %s", outcome.ExecutionURL)
	case outcome.Kind.Neutral():
		color.Yellow("→ %s: %s", outcome.Kind, outcome.Message)
	default:
		color.Red("✗ %s: %s", outcome.Kind, outcome.Message)
	}
}
