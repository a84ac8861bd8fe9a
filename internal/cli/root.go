package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// RootCommand builds the sparkify command tree. Progress and reports go to out.
func RootCommand(out io.Writer) *cobra.Command {
	var overrides Overrides

	rootCmd := &cobra.Command{
		Use:           "sparkify",
		Short:         "Load Sparkify song and event files into a star schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&overrides.SongDataDir, "song-data", "", "Directory of song (catalog) JSON files")
	flags.StringVar(&overrides.LogDataDir, "log-data", "", "Directory of event (activity) JSON files")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&overrides.DBType, "db-type", "", "Database type: postgres, mysql, sqlite")
	flags.StringVar(&overrides.DBDSN, "dsn", "", "Database DSN, overrides host/port/name settings")

	rootCmd.AddCommand(
		createTablesCommand(&overrides),
		bulkCommand(&overrides),
		etlCommand(&overrides),
		reportCommand(&overrides),
	)
	return rootCmd
}
