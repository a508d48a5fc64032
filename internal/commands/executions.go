package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewExecutionsCmd creates the executions command.
func NewExecutionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "executions [project]",
		Short: "List rundeck executions scheduled for a project's builds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecutions(cmd.Context(), args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of executions to show")
	return cmd
}

func runExecutions(ctx context.Context, project string, limit int) error {
	a, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	recs, err := a.store.ListExecutions(ctx, project, limit)
	if err != nil {
		return fmt.Errorf("listing executions: %w", err)
	}
	if len(recs) == 0 {
		color.Yellow("no executions recorded for %s", project)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BUILD\tSCHEDULED\tEXECUTION")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s#%d\t%s\t%s\n",
			rec.Project, rec.BuildNumber,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.URL)
	}
	return w.Flush()
}
