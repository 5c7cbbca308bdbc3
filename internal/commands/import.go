package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rapproche-dev/rapproche/internal/auditlog"
	"github.com/rapproche-dev/rapproche/internal/config"
	"github.com/rapproche-dev/rapproche/internal/importer"
	"github.com/rapproche-dev/rapproche/internal/ledger"
	"github.com/rapproche-dev/rapproche/internal/model"
	"github.com/rapproche-dev/rapproche/internal/reconcile"
	"github.com/rapproche-dev/rapproche/internal/statement"
	"github.com/rapproche-dev/rapproche/internal/txhash"
)

// maxShownErrors caps the row errors printed in the summary; the full list
// stays in the audit log.
const maxShownErrors = 5

func newImportCommand() *cobra.Command {
	var projectDir string
	var invoicesCSV string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <statement.csv>",
		Short: "Import a bank statement and reconcile it against open invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(projectDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runImport(absDir, args[0], invoicesCSV, dryRun)
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	cmd.Flags().StringVar(&invoicesCSV, "invoices", "", "match against an invoices CSV instead of the ledger database")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and reconcile without writing anything")

	return cmd
}

func runImport(dir, statementPath, invoicesCSV string, dryRun bool) error {
	cfg, err := config.Load(filepath.Join(dir, "rapproche.yaml"))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(statementPath)
	if err != nil {
		return fmt.Errorf("reading statement: %w", err)
	}

	parser := statement.NewParser(txhash.SHA256{})
	parsed, err := parser.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", statementPath, err)
	}

	store, err := ledger.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer store.Close()

	var invoices []model.Invoice
	if invoicesCSV != "" {
		f, err := os.Open(invoicesCSV)
		if err != nil {
			return fmt.Errorf("opening invoices CSV: %w", err)
		}
		defer f.Close()
		if invoices, err = ledger.ReadInvoices(f); err != nil {
			return fmt.Errorf("reading invoices: %w", err)
		}
		// The ledger must know these invoices before any of them can be
		// marked paid. Existing IDs are left untouched.
		if !dryRun {
			if _, err := store.InsertInvoices(invoices); err != nil {
				return fmt.Errorf("storing invoices: %w", err)
			}
		}
	} else {
		if invoices, err = store.ListOpenInvoices(); err != nil {
			return fmt.Errorf("listing open invoices: %w", err)
		}
	}

	existing, err := store.ExistingHashes()
	if err != nil {
		return fmt.Errorf("loading existing hashes: %w", err)
	}

	engine := reconcile.NewEngine(cfg.Matching.AutoMatchScore, cfg.Matching.SuggestScore)
	result := importer.New(engine).Run(parsed, existing, invoices)

	if !dryRun {
		if err := persistImport(store, result); err != nil {
			return err
		}
		if err := appendAuditTrail(dir, filepath.Base(statementPath), result); err != nil {
			return fmt.Errorf("writing audit log: %w", err)
		}
	}

	printReport(result.Report, dryRun)
	return nil
}

func persistImport(store *ledger.Store, result *importer.Result) error {
	all := make([]model.Match, 0, len(result.Transactions))
	all = append(all, result.Reconcile.Matched...)
	all = append(all, result.Reconcile.Suggested...)
	all = append(all, result.Reconcile.Unmatched...)
	if _, err := store.InsertMatches(all); err != nil {
		return fmt.Errorf("inserting transactions: %w", err)
	}

	for _, m := range result.Reconcile.Matched {
		if err := store.MarkInvoicePaid(m.InvoiceID, m.Transaction.Date); err != nil {
			return fmt.Errorf("marking invoice %s paid: %w", m.InvoiceID, err)
		}
	}
	return nil
}

func appendAuditTrail(dir, file string, result *importer.Result) error {
	now := time.Now().UTC()
	entries := []auditlog.Entry{{
		Timestamp: now,
		File:      file,
		Layout:    result.Report.DetectedLayout,
		Action:    "import",
		Details: fmt.Sprintf("parsed=%d imported=%d duplicates=%d failed=%d",
			result.Report.Parsed, result.Report.Imported, result.Report.Duplicates, result.Report.Failed),
	}}

	for _, m := range result.Reconcile.Matched {
		entries = append(entries, auditlog.Entry{
			Timestamp:       now,
			File:            file,
			Layout:          result.Report.DetectedLayout,
			Action:          "auto_match",
			TransactionHash: m.Transaction.Hash,
			InvoiceID:       m.InvoiceID,
			Score:           m.Score,
			Details:         reasonsDetail(m.Reasons),
		})
	}
	for _, m := range result.Reconcile.Suggested {
		entry := auditlog.Entry{
			Timestamp:       now,
			File:            file,
			Layout:          result.Report.DetectedLayout,
			Action:          "suggest",
			TransactionHash: m.Transaction.Hash,
			Score:           m.Score,
			Details:         reasonsDetail(m.Reasons),
		}
		if len(m.Candidates) > 0 {
			entry.InvoiceID = m.Candidates[0].InvoiceID
		}
		entries = append(entries, entry)
	}

	return auditlog.Append(dir, entries)
}

func reasonsDetail(reasons []model.MatchReason) string {
	detail := ""
	for i, r := range reasons {
		if i > 0 {
			detail += " "
		}
		detail += string(r)
	}
	return detail
}

func printReport(report model.ImportReport, dryRun bool) {
	if dryRun {
		fmt.Println("Dry run: nothing was written.")
	}
	fmt.Printf("Layout: %s\n", report.DetectedLayout)
	fmt.Printf("Parsed %d rows: %d imported, %d duplicates, %d failed\n",
		report.Parsed+report.Failed, report.Imported, report.Duplicates, report.Failed)
	fmt.Printf("Reconciliation: %d auto-matched, %d suggested, %d unmatched\n",
		report.AutoMatched, report.Suggested, report.Unmatched)

	for i, msg := range report.RowErrors {
		if i == maxShownErrors {
			fmt.Printf("  ... and %d more errors\n", len(report.RowErrors)-maxShownErrors)
			break
		}
		fmt.Printf("  %s\n", msg)
	}
}
