package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/qntx-cohort/cmd/cohort/commands"
	"github.com/teranos/qntx-cohort/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cohort",
	Short: "cohort - longitudinal patient data from a SPARQL endpoint",
	Long: `cohort - Resolve a study cohort, fetch its measurements over SPARQL and
reshape them into per-subject time series.

Available commands:
  load      - Run the pipeline once and report the loaded cohort
  show      - Print one subject's time series
  snapshots - List or delete saved snapshots
  serve     - Serve the catalog over HTTP
  ping      - Check that the SPARQL endpoint answers
  am        - Show or validate configuration ("I am")
  version   - Show build information

Examples:
  cohort ping                          # Probe the configured endpoint
  cohort load --whitelist 1,2,5 --save # Load three metrics and persist a snapshot
  cohort show 1042 --snapshot latest   # Show a subject from the newest snapshot
  cohort serve --load                  # Load, then serve the API`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Machine-readable output and JSON logs")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.LoadCmd)
	rootCmd.AddCommand(commands.PingCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ShowCmd)
	rootCmd.AddCommand(commands.SnapshotsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		commands.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
