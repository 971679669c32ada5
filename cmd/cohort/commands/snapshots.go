package commands

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qntx-cohort/cohort/storage"
)

// SnapshotsCmd lists saved snapshots
var SnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved snapshots, newest first",
	Long: `List snapshots saved with 'cohort load --save' or the API.

Examples:
  cohort snapshots             # Last 20 snapshots
  cohort snapshots --limit 5   # Last 5
  cohort snapshots rm <id>     # Delete one`,
	RunE: runSnapshotsList,
}

var snapshotsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsRm,
}

var snapshotsLimitFlag int

func init() {
	SnapshotsCmd.Flags().IntVar(&snapshotsLimitFlag, "limit", storage.DefaultListLimit, "Number of snapshots to show")
	SnapshotsCmd.AddCommand(snapshotsRmCmd)
}

func runSnapshotsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, conn, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	infos, err := store.List(cmd.Context(), snapshotsLimitFlag)
	if err != nil {
		return err
	}
	if jsonFlag(cmd) {
		if infos == nil {
			infos = []storage.SnapshotInfo{}
		}
		return printJSON(cmd.OutOrStdout(), infos)
	}
	if len(infos) == 0 {
		pterm.Info.Printf("No snapshots in %s\n", cfg.Database.Path)
		return nil
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(snapshotTable(infos)).Render()
	return nil
}

func snapshotTable(infos []storage.SnapshotInfo) pterm.TableData {
	data := pterm.TableData{{"ID", "Study", "Whitelist", "Subjects", "Records", "Loaded", "Saved"}}
	for _, info := range infos {
		data = append(data, []string{
			info.ID,
			info.Study,
			strings.Join(info.Whitelist, ","),
			strconv.Itoa(info.Subjects),
			strconv.Itoa(info.Records),
			info.LoadedAt.Local().Format("2006-01-02 15:04"),
			info.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return data
}

func runSnapshotsRm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, conn, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	if !jsonFlag(cmd) {
		pterm.Success.Printf("Deleted snapshot %s\n", args[0])
	}
	return nil
}
