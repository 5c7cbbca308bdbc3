// Package ledger is the persistent side of reconciliation: outstanding
// invoices and imported transactions in a single-account SQLite database.
// The reconciliation core never touches this package; the orchestrator's
// callers (CLI, HTTP API) read invoices and hashes out, run the pipeline,
// and write the outcome back here.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/rapproche-dev/rapproche/internal/model"
)

// ErrInvoiceNotOpen is returned when a match is applied to an invoice that
// has been paid or cancelled since the suggestion was produced.
var ErrInvoiceNotOpen = errors.New("invoice is no longer open")

// ErrNotFound is returned when a referenced invoice or transaction does
// not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database. A single *sql.DB serializes writes,
// which is what keeps concurrent imports for the same account safe: the
// hash-unique transactions table makes the dedup check atomic.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and ensures the schema.
// Pass ":memory:" for an in-memory store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes writes and keeps ":memory:" databases from
	// splitting across pool connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS invoices (
			id TEXT PRIMARY KEY,
			number TEXT NOT NULL,
			payer_last_name TEXT NOT NULL,
			payer_first_name TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			total_due TEXT NOT NULL,
			issue_date TEXT NOT NULL,
			status TEXT NOT NULL,
			paid_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			hash TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			label TEXT NOT NULL,
			amount TEXT NOT NULL,
			balance TEXT,
			category TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			invoice_id TEXT,
			match_score INTEGER NOT NULL DEFAULT 0,
			match_reasons TEXT NOT NULL DEFAULT '',
			imported_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- invoices ---

const openStatuses = `'sent','pending','viewed','deposit_invoiced'`

// ListOpenInvoices returns invoices still awaiting payment with a positive
// due amount, oldest first.
func (s *Store) ListOpenInvoices() ([]model.Invoice, error) {
	rows, err := s.db.Query(
		`SELECT id, number, payer_last_name, payer_first_name, company, total_due, issue_date, status
		 FROM invoices WHERE status IN (` + openStatuses + `) ORDER BY issue_date, number`)
	if err != nil {
		return nil, fmt.Errorf("list open invoices: %w", err)
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		if inv.TotalDue.IsPositive() {
			invoices = append(invoices, inv)
		}
	}
	return invoices, rows.Err()
}

// ListInvoices returns every invoice, oldest first.
func (s *Store) ListInvoices() ([]model.Invoice, error) {
	rows, err := s.db.Query(
		`SELECT id, number, payer_last_name, payer_first_name, company, total_due, issue_date, status
		 FROM invoices ORDER BY issue_date, number`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// InsertInvoices stores invoices, assigning IDs where missing. Used for
// seeding and the CSV import path.
func (s *Store) InsertInvoices(invoices []model.Invoice) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO invoices
		 (id, number, payer_last_name, payer_first_name, company, total_due, issue_date, status)
		 VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range invoices {
		inv := &invoices[i]
		if inv.ID == "" {
			inv.ID = uuid.NewString()
		}
		res, err := stmt.Exec(inv.ID, inv.Number, inv.PayerLastName, inv.PayerFirstName,
			inv.Company, inv.TotalDue.StringFixed(2), inv.IssueDate.Format("2006-01-02"),
			string(inv.Status))
		if err != nil {
			return inserted, fmt.Errorf("insert invoice %d: %w", i, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// MarkInvoicePaid transitions an open invoice to paid, recording the
// payment date. Refuses invoices that are no longer open.
func (s *Store) MarkInvoicePaid(invoiceID string, paymentDate time.Time) error {
	res, err := s.db.Exec(
		`UPDATE invoices SET status='paid', paid_at=? WHERE id=? AND status IN (`+openStatuses+`)`,
		paymentDate.Format("2006-01-02"), invoiceID)
	if err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var exists int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM invoices WHERE id=?`, invoiceID).Scan(&exists); err != nil {
			return fmt.Errorf("check invoice: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
		}
		return fmt.Errorf("invoice %s: %w", invoiceID, ErrInvoiceNotOpen)
	}
	return nil
}

// --- transactions ---

// ExistingHashes returns the dedup identity set of all stored transactions.
func (s *Store) ExistingHashes() (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT hash FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("existing hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		hashes[h] = struct{}{}
	}
	return hashes, rows.Err()
}

// InsertMatches stores the outcome of a reconciliation pass: each
// transaction with its status, plus match evidence where present.
// INSERT OR IGNORE keeps a racing duplicate import harmless.
func (s *Store) InsertMatches(matches []model.Match) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO transactions
		 (hash, date, label, amount, balance, category, status, invoice_id, match_score, match_reasons, imported_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for i, m := range matches {
		txn := m.Transaction
		var balance any
		if txn.Balance != nil {
			balance = txn.Balance.StringFixed(2)
		}
		var invoiceID any
		if m.InvoiceID != "" {
			invoiceID = m.InvoiceID
		}
		res, err := stmt.Exec(txn.Hash, txn.DateString(), txn.Label, txn.Amount.StringFixed(2),
			balance, txn.Category, string(txn.Status), invoiceID, m.Score, joinReasons(m.Reasons), now)
		if err != nil {
			return inserted, fmt.Errorf("insert transaction %d: %w", i, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// InsertTransactions stores transactions without match evidence.
func (s *Store) InsertTransactions(transactions []model.Transaction) (int, error) {
	matches := make([]model.Match, len(transactions))
	for i, txn := range transactions {
		matches[i] = model.Match{Transaction: txn}
	}
	return s.InsertMatches(matches)
}

// ListTransactions returns stored transactions, optionally filtered by
// status, most recent date first.
func (s *Store) ListTransactions(status model.TransactionStatus) ([]model.Transaction, error) {
	query := `SELECT hash, date, label, amount, balance, category, status FROM transactions`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, string(status))
	}
	query += ` ORDER BY date DESC, label`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var (
			txn          model.Transaction
			date, amount string
			balance      sql.NullString
			statusStr    string
		)
		if err := rows.Scan(&txn.Hash, &date, &txn.Label, &amount, &balance, &txn.Category, &statusStr); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		txn.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		if balance.Valid {
			b, err := decimal.NewFromString(balance.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored balance %q: %w", balance.String, err)
			}
			txn.Balance = &b
		}
		txn.Status = model.TransactionStatus(statusStr)
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// ConfirmSuggestion applies a human-confirmed match: the invoice is marked
// paid with the transaction's date and the transaction becomes reconciled.
// The invoice must still be open; a suggestion can go stale when another
// transaction claimed its target in the meantime.
func (s *Store) ConfirmSuggestion(hash, invoiceID string) error {
	var date, status string
	err := s.db.QueryRow(`SELECT date, status FROM transactions WHERE hash=?`, hash).Scan(&date, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("transaction %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	paymentDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("parse stored date %q: %w", date, err)
	}

	if err := s.MarkInvoicePaid(invoiceID, paymentDate); err != nil {
		return err
	}

	_, err = s.db.Exec(
		`UPDATE transactions SET status=?, invoice_id=? WHERE hash=?`,
		string(model.StatusReconciled), invoiceID, hash)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (model.Invoice, error) {
	var (
		inv             model.Invoice
		totalDue, issue string
		status          string
	)
	if err := row.Scan(&inv.ID, &inv.Number, &inv.PayerLastName, &inv.PayerFirstName,
		&inv.Company, &totalDue, &issue, &status); err != nil {
		return model.Invoice{}, fmt.Errorf("scan invoice: %w", err)
	}

	var err error
	inv.TotalDue, err = decimal.NewFromString(totalDue)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parse stored total %q: %w", totalDue, err)
	}
	inv.IssueDate, err = time.Parse("2006-01-02", issue)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parse stored issue date %q: %w", issue, err)
	}
	inv.Status = model.InvoiceStatus(status)
	return inv, nil
}

func joinReasons(reasons []model.MatchReason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
