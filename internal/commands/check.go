package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deckhand-ci/deckhand/internal/config"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test the rundeck connection settings",
		Long: "Probes the configured rundeck instance and reports where the " +
			"connection chain breaks: configuration shape, reachability, or credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context())
		},
	}
}

func runCheck(ctx context.Context) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	rc, err := config.LoadRemote(cfg.RemoteFile)
	if err != nil {
		return err
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := rundeck.NewClient(rc)
	status := rundeck.ConnectionCheck(checkCtx, client)

	switch status {
	case types.ConnConfigInvalid:
		color.Red("✗ rundeck configuration is not valid (set url, login, and password)")
	case types.ConnNotAlive:
		color.Red("✗ rundeck instance at %s is not reachable", rc.URL)
	case types.ConnLoginInvalid:
		color.Red("✗ rundeck rejected the configured credentials")
	case types.ConnOK:
		color.Green("✓ connection to %s succeeded", rc.URL)
		return nil
	}
	return fmt.Errorf("connection check failed: %s", status)
}
