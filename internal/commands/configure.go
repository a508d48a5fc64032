package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deckhand-ci/deckhand/internal/config"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// NewConfigureCmd creates the configure command.
func NewConfigureCmd() *cobra.Command {
	var url, login, password string
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set the rundeck connection settings",
		Long: "Validates and saves the rundeck URL and credentials to remote.yaml. " +
			"Unless --skip-check is given, the connection is verified first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd.Context(), types.RemoteConfig{
				URL: url, Login: login, Password: password,
			}, skipCheck)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Rundeck base URL")
	cmd.Flags().StringVar(&login, "login", "", "Rundeck login")
	cmd.Flags().StringVar(&password, "password", "", "Rundeck password")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Save without probing the instance")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runConfigure(ctx context.Context, rc types.RemoteConfig, skipCheck bool) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !skipCheck {
		status := rundeck.ConnectionCheck(ctx, rundeck.NewClient(rc))
		if status != types.ConnOK {
			return fmt.Errorf("refusing to save settings that fail the connection check (%s); use --skip-check to override", status)
		}
		color.Green("✓ connection check passed")
	}

	if err := config.SaveRemote(cfg.RemoteFile, rc); err != nil {
		return err
	}
	color.Green("✓ saved rundeck settings to %s", cfg.RemoteFile)
	return nil
}
