package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [project-name]",
		Short: "Initialize a new Deckhand project",
		Long:  "Creates project scaffolding: deckhand.yaml plus an example build event.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}
}

func runInit(projectName string) error {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("Initializing Deckhand project: %s\n", projectName)

	if err := os.MkdirAll(projectName, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", projectName, err)
	}

	configPath := filepath.Join(projectName, "deckhand.yaml")
	configContent := `server:
  addr: ":8080"
  # apiKey: "change-me"
store:
  backend: sqlite
  path: deckhand.db
notifiers:
  default:
    groupPath: deploy
    jobName: web-app
    # Only notify when a commit message mentions the tag. Leave empty to
    # notify on every successful build.
    tag: "#deploy"
    # Environment placeholders are expanded from the build's environment.
    options: |
      version=${BUILD_VERSION}
      triggeredBy=ci
    failBuildOnError: false
alerts:
  - type: console
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	eventPath := filepath.Join(projectName, "build-event.json")
	eventContent := `{
  "project": "web-app",
  "number": 1,
  "result": "SUCCESS",
  "changeLog": [
    {"message": "#deploy release 1.2.3", "authorId": "alice"}
  ],
  "env": {
    "BUILD_VERSION": "1.2.3"
  }
}
`
	if err := os.WriteFile(eventPath, []byte(eventContent), 0o644); err != nil {
		return fmt.Errorf("writing example event: %w", err)
	}

	color.Green("  ✓ Project scaffolded")
	fmt.Println()
	_, _ = bold.Println("Next steps:")
	fmt.Printf("  cd %s\n", projectName)
	fmt.Println("  deckhand configure --url http://rundeck:4440 --login admin --password admin")
	fmt.Println("  deckhand notify build-event.json")
	fmt.Println("  deckhand serve")
	return nil
}
