package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rapproche-dev/rapproche/internal/config"
	"github.com/rapproche-dev/rapproche/internal/ledger"
)

func newInitCommand() *cobra.Command {
	var name string
	var invoicesCSV string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new rapproche project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, name, invoicesCSV)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&invoicesCSV, "invoices", "", "seed the ledger from an invoices CSV")

	return cmd
}

func runInit(dir, name, invoicesCSV string) error {
	for _, d := range []string{"logs", "statements"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name)
	if err := config.Save(filepath.Join(dir, "rapproche.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	store, err := ledger.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}
	defer store.Close()

	seeded := 0
	if invoicesCSV != "" {
		f, err := os.Open(invoicesCSV)
		if err != nil {
			return fmt.Errorf("opening invoices CSV: %w", err)
		}
		defer f.Close()

		invoices, err := ledger.ReadInvoices(f)
		if err != nil {
			return fmt.Errorf("reading invoices: %w", err)
		}
		seeded, err = store.InsertInvoices(invoices)
		if err != nil {
			return fmt.Errorf("seeding invoices: %w", err)
		}
	}

	fmt.Printf("Initialized rapproche project at %s (%d invoices seeded)\n", dir, seeded)
	return nil
}
