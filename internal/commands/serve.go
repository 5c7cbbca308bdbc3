package commands

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rapproche-dev/rapproche/internal/api"
	"github.com/rapproche-dev/rapproche/internal/config"
	"github.com/rapproche-dev/rapproche/internal/importer"
	"github.com/rapproche-dev/rapproche/internal/ledger"
	"github.com/rapproche-dev/rapproche/internal/logger"
	"github.com/rapproche-dev/rapproche/internal/reconcile"
	"github.com/rapproche-dev/rapproche/internal/statement"
	"github.com/rapproche-dev/rapproche/internal/txhash"
)

func newServeCommand() *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(projectDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runServe(absDir)
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")

	return cmd
}

func runServe(dir string) error {
	cfg, err := config.Load(filepath.Join(dir, "rapproche.yaml"))
	if err != nil {
		return err
	}

	log := logger.New()

	store, err := ledger.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer store.Close()

	parser := statement.NewParser(txhash.SHA256{})
	engine := reconcile.NewEngine(cfg.Matching.AutoMatchScore, cfg.Matching.SuggestScore)
	orch := importer.New(engine)

	router := api.NewRouter(store, parser, orch, log)

	log.Info().Str("listen", cfg.Server.Listen).Msg("rapproche API listening")
	return http.ListenAndServe(cfg.Server.Listen, router)
}
