package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/qntx-cohort/am"
	"github.com/teranos/qntx-cohort/cohort"
	"github.com/teranos/qntx-cohort/cohort/storage"
	"github.com/teranos/qntx-cohort/db"
	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/logger"
	"github.com/teranos/qntx-cohort/sparql"
)

// loadConfig reads and validates am configuration, then registers any
// study definitions file it names
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"), "run 'cohort am show' to inspect the merged settings")
	}
	if cfg.Study.DefinitionsFile != "" {
		names, err := cohort.LoadStudyFile(cfg.Study.DefinitionsFile)
		if err != nil {
			return nil, err
		}
		logger.Debugw("Study definitions registered", "file", cfg.Study.DefinitionsFile, "studies", names)
	}
	return cfg, nil
}

// endpointOptions maps [endpoint] settings onto the SPARQL client
func endpointOptions(cfg *am.Config) sparql.Options {
	return sparql.Options{
		URL:               cfg.Endpoint.URL,
		Timeout:           time.Duration(cfg.Endpoint.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Endpoint.RequestsPerSecond,
		BlockPrivateIP:    cfg.Endpoint.BlockPrivateIP,
		Logger:            logger.ComponentLogger("endpoint"),
	}
}

// openEndpoint builds the SPARQL client, probing it when endpoint.probe is set
func openEndpoint(ctx context.Context, cfg *am.Config) (*sparql.Client, error) {
	opts := endpointOptions(cfg)
	if cfg.Endpoint.Probe {
		return sparql.Connect(ctx, opts)
	}
	return sparql.NewClient(opts)
}

// openStore opens (creating and migrating if needed) the snapshot database
func openStore(cfg *am.Config) (*storage.SnapshotStore, *sql.DB, error) {
	conn, err := db.OpenWithMigrations(cfg.Database.Path, logger.ComponentLogger("db"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open database at %s", cfg.Database.Path)
	}
	return storage.NewSnapshotStore(conn, logger.ComponentLogger("storage")), conn, nil
}

// resolveStudy picks the study and whitelist for a load.
// A --whitelist flag wins; otherwise the configured whitelist applies only to
// the configured study, and any other study gets its own default (nil).
func resolveStudy(cfg *am.Config, studyFlag string, whitelistFlag []string, whitelistSet bool) (string, []string) {
	study := cfg.Study.Name
	if studyFlag != "" {
		study = studyFlag
	}
	if whitelistSet {
		return study, normalizeCodes(whitelistFlag)
	}
	if study == cfg.Study.Name && len(cfg.Study.Whitelist) > 0 {
		return study, cfg.Study.Whitelist
	}
	return study, nil
}

// normalizeCodes trims whitespace and drops empty entries from a flag list
func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func jsonFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintError writes err and its hints the way every command reports failure
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "  hint: %s\n", hint)
	}
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
