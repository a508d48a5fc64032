package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deckhand-ci/deckhand/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "deckhand",
		Short: "Post-build rundeck job scheduler for CI pipelines",
		Long: `Deckhand watches completed CI builds and conditionally schedules rundeck
job executions. A build only notifies rundeck when it succeeded, the instance
is reachable, and the change log carries the configured tag; failures are
classified and can fail the build immediately or after its result is final.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewInitCmd(),
		commands.NewConfigureCmd(),
		commands.NewCheckCmd(),
		commands.NewNotifyCmd(),
		commands.NewExecutionsCmd(),
		commands.NewServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
