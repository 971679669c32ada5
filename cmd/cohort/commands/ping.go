package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qntx-cohort/sparql"
)

// PingCmd probes the configured SPARQL endpoint
var PingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the SPARQL endpoint answers",
	Long: `Send a one-row probe query to endpoint.url and report the round trip.
The probe runs even when endpoint.probe is false.`,
	RunE: runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	client, err := sparql.Connect(ctx, endpointOptions(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if jsonFlag(cmd) {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"endpoint":    client.URL(),
			"ok":          true,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
	pterm.Success.Printf("%s answered in %s\n", client.URL(), elapsed.Round(time.Millisecond))
	return nil
}
