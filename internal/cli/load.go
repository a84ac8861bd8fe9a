package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/smallbiznis/sparkify/internal/config"
	"github.com/smallbiznis/sparkify/internal/loader"
	loaderdomain "github.com/smallbiznis/sparkify/internal/loader/domain"
	"github.com/smallbiznis/sparkify/internal/schema"
	"github.com/spf13/cobra"
)

func createTablesCommand(overrides *Overrides) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "create-tables",
		Short: "Drop and recreate all warehouse tables",
		Long:  `Drop the fact and dimension tables, including every row in them, and create them again empty.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var manager *schema.Manager
			return withApp(cmd.Context(), *overrides, cmd.OutOrStdout(), func(ctx context.Context, cfg config.Config) error {
				if err := confirmReset(yes, cfg); err != nil {
					return err
				}
				if err := manager.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "tables created")
				return nil
			}, &manager)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm that all warehouse data may be dropped")
	return cmd
}

func bulkCommand(overrides *Overrides) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Recreate all tables, then load every song and event file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, *overrides, func(cfg config.Config) (loaderdomain.RunOptions, error) {
				if err := confirmReset(yes, cfg); err != nil {
					return loaderdomain.RunOptions{}, err
				}
				return loaderdomain.RunOptions{Reset: true}, nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm that all warehouse data may be dropped")
	return cmd
}

func etlCommand(overrides *Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "etl",
		Short: "Create missing tables, then append every song and event file",
		Long: `Load song files, then event files, into the existing tables. Dimension rows are
deduplicated, but song plays are appended again when the same files are loaded twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, *overrides, func(config.Config) (loaderdomain.RunOptions, error) {
				return loaderdomain.RunOptions{}, nil
			})
		},
	}
}

func runLoad(cmd *cobra.Command, overrides Overrides, options func(config.Config) (loaderdomain.RunOptions, error)) error {
	var ld *loader.Loader
	out := cmd.OutOrStdout()
	return withApp(cmd.Context(), overrides, out, func(ctx context.Context, cfg config.Config) error {
		opts, err := options(cfg)
		if err != nil {
			return err
		}
		summary, err := ld.Run(ctx, opts)
		printSummary(out, summary)
		return err
	}, &ld)
}

func printSummary(out io.Writer, s loaderdomain.RunSummary) {
	fmt.Fprintf(out, "run %s: %d/%d files loaded, %d failed, %d rows written, %d rows skipped, %d songplays resolved, %d unresolved\n",
		s.RunID, s.FilesProcessed, s.FilesFound, s.FilesFailed, s.RowsLoaded, s.RowsSkipped, s.Resolved, s.Unresolved)
	if s.Err != nil {
		fmt.Fprintf(out, "failed files:\n%v\n", s.Err)
	}
}
