package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qntx-cohort/cohort"
	"github.com/teranos/qntx-cohort/logger"
)

// ShowCmd prints one subject's time series
var ShowCmd = &cobra.Command{
	Use:   "show <subject>",
	Short: "Print one subject's time series",
	Long: `Print the SubjectTimeSeries of one subject, one row per measurement date
in calendar order and one column per whitelisted metric. Missing values
print as null.

Without --snapshot the configured study is loaded from the endpoint first.

Examples:
  cohort show 1042                     # Live load, then show subject 1042
  cohort show 1042 --snapshot latest   # From the newest saved snapshot
  cohort show 1042 --snapshot <id>     # From a specific snapshot`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var showSnapshotFlag string

func init() {
	ShowCmd.Flags().StringVar(&showSnapshotFlag, "snapshot", "", "Snapshot id, or 'latest'")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var catalog *cohort.Catalog
	if showSnapshotFlag != "" {
		store, conn, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		var snap *cohort.Snapshot
		if showSnapshotFlag == "latest" {
			snap, err = store.Latest(ctx)
		} else {
			snap, err = store.Load(ctx, showSnapshotFlag)
		}
		if err != nil {
			return err
		}
		catalog = cohort.NewCatalog(nil, cohort.WithLogger(logger.ComponentLogger("catalog")))
		if err := catalog.Install(snap.Dataset, snap.Meta); err != nil {
			return err
		}
	} else {
		endpoint, err := openEndpoint(ctx, cfg)
		if err != nil {
			return err
		}
		catalog = cohort.NewCatalog(endpoint, cohort.WithLogger(logger.ComponentLogger("catalog")))
		study, whitelist := resolveStudy(cfg, "", nil, false)
		if _, err := catalog.Load(ctx, study, whitelist); err != nil {
			return err
		}
	}

	subject := args[0]
	ts, meta, err := catalog.RetrieveWithMeta(subject)
	if err != nil {
		return err
	}

	if jsonFlag(cmd) {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"subject": subject,
			"columns": meta.Whitelist,
			"vectors": ts,
		})
	}
	renderSeries(subject, meta.Whitelist, ts)
	return nil
}

// seriesTable lays a time series out as rows of slot values under the
// whitelist codes
func seriesTable(columns []string, ts cohort.SubjectTimeSeries) pterm.TableData {
	header := append([]string{"#"}, columns...)
	data := pterm.TableData{header}
	for i, vec := range ts {
		row := make([]string, 0, len(vec)+1)
		row = append(row, strconv.Itoa(i+1))
		for _, slot := range vec {
			row = append(row, slot.String())
		}
		data = append(data, row)
	}
	return data
}

func renderSeries(subject string, columns []string, ts cohort.SubjectTimeSeries) {
	pterm.DefaultSection.Printf("Subject %s (%d vectors)", subject, len(ts))
	if len(ts) == 0 {
		pterm.Warning.Println("No measurements for this subject")
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(seriesTable(columns, ts)).Render()
}
