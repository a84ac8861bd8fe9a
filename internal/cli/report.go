package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/smallbiznis/sparkify/internal/config"
	reportdomain "github.com/smallbiznis/sparkify/internal/report/domain"
	"github.com/smallbiznis/sparkify/internal/schema"
	"github.com/spf13/cobra"
)

func reportCommand(overrides *Overrides) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print row counts, sample rows and the most played songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc reportdomain.Service
			out := cmd.OutOrStdout()
			return withApp(cmd.Context(), *overrides, out, func(ctx context.Context, _ config.Config) error {
				return writeReport(ctx, out, svc, limit)
			}, &svc)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", reportdomain.DefaultLimit, "Rows to show per table")
	return cmd
}

func writeReport(ctx context.Context, out io.Writer, svc reportdomain.Service, limit int) error {
	counts, err := svc.Counts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Table, c.Rows)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, table := range schema.Tables {
		rows, err := svc.Sample(ctx, table, limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", table)
		if err := writeRows(out, rows); err != nil {
			return err
		}
	}

	top, err := svc.TopSongs(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nmost played songs")
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SONG_ID\tTITLE\tARTIST\tPLAYS")
	for _, s := range top {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.SongID, s.Title, s.ArtistName, s.Plays)
	}
	return tw.Flush()
}

func writeRows(out io.Writer, rows []map[string]any) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "(no rows)")
		return err
	}

	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, column := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, column)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, column := range columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, formatValue(row[column]))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(value)
	default:
		return fmt.Sprint(value)
	}
}
