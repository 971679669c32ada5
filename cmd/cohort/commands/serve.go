package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qntx-cohort/cohort"
	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/logger"
	"github.com/teranos/qntx-cohort/server"
)

// ServeCmd serves the catalog over HTTP
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Serve the catalog over a JSON HTTP API",
	Long: `Start the cohort API on server.port. The catalog starts empty unless
--load or --restore fills it; POST /api/load fills it later.

Press Ctrl+C to stop; in-flight requests get up to 30s to finish.

Examples:
  cohort serve                 # Empty catalog, load via the API
  cohort serve --load          # Load the configured study first
  cohort serve --restore       # Install the newest snapshot first
  cohort serve --port 9000     # Override server.port`,
	RunE: runServe,
}

var (
	serveLoadFlag    bool
	serveRestoreFlag bool
	servePortFlag    int
)

func init() {
	ServeCmd.Flags().BoolVar(&serveLoadFlag, "load", false, "Load the configured study before serving")
	ServeCmd.Flags().BoolVar(&serveRestoreFlag, "restore", false, "Install the newest snapshot before serving")
	ServeCmd.Flags().IntVar(&servePortFlag, "port", 0, "Port to listen on (default from server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveLoadFlag && serveRestoreFlag {
		return errors.NewInvalidRequestError("--load and --restore are mutually exclusive")
	}

	// the server logs at info unless asked for more
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		if err := logger.Initialize(jsonFlag(cmd), logger.VerbosityInfo); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	// set endpoint.probe=false to start without a reachable endpoint
	endpoint, err := openEndpoint(ctx, cfg)
	if err != nil {
		return err
	}

	store, conn, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	catalog := cohort.NewCatalog(endpoint, cohort.WithLogger(logger.ComponentLogger("catalog")))
	switch {
	case serveLoadFlag:
		study, whitelist := resolveStudy(cfg, "", nil, false)
		if _, err := catalog.Load(ctx, study, whitelist); err != nil {
			return err
		}
	case serveRestoreFlag:
		snap, err := store.Latest(ctx)
		if err != nil {
			return err
		}
		if err := catalog.Install(snap.Dataset, snap.Meta); err != nil {
			return err
		}
		logger.Infow("Snapshot restored", "snapshot_id", snap.ID, "subjects", len(snap.Dataset))
	}

	port := cfg.Server.Port
	if servePortFlag != 0 {
		port = servePortFlag
	}
	srv := server.New(catalog, store, server.Options{
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger.ComponentLogger("server"))

	if !jsonFlag(cmd) {
		pterm.Info.Printf("Cohort API on http://localhost:%d (endpoint %s, database %s)\n",
			port, cfg.Endpoint.URL, cfg.Database.Path)
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	if !jsonFlag(cmd) {
		pterm.Success.Println("Server stopped cleanly")
	}
	return nil
}
