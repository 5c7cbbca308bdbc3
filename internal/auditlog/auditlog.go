// Package auditlog keeps an append-only CSV trail of import runs and match
// decisions, so a bookkeeper can answer "why was this invoice marked paid"
// months later.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the reconciliation log.
type Entry struct {
	Timestamp       time.Time
	File            string
	Layout          string
	Action          string // "import", "auto_match", "suggest", "confirm"
	TransactionHash string
	InvoiceID       string
	Score           int
	Details         string
}

// Header is the CSV header for reconciliation-log.csv.
const Header = "timestamp,file,layout,action,transaction_hash,invoice_id,score,details"

const (
	numFields = 8
	logDir    = "logs"
	logFile   = "logs/reconciliation-log.csv"
	colTime   = 0
	colFile   = 1
	colLayout = 2
	colAction = 3
	colHash   = 4
	colInv    = 5
	colScore  = 6
	colDetail = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.Format(time.RFC3339)
	row[colFile] = e.File
	row[colLayout] = e.Layout
	row[colAction] = e.Action
	row[colHash] = e.TransactionHash
	row[colInv] = e.InvoiceID
	row[colScore] = strconv.Itoa(e.Score)
	row[colDetail] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	score, err := strconv.Atoi(record[colScore])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing score %q: %w", record[colScore], err)
	}

	return Entry{
		Timestamp:       ts,
		File:            record[colFile],
		Layout:          record[colLayout],
		Action:          record[colAction],
		TransactionHash: record[colHash],
		InvoiceID:       record[colInv],
		Score:           score,
		Details:         record[colDetail],
	}, nil
}

// Append writes entries to <root>/logs/reconciliation-log.csv, creating the
// file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening reconciliation log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/reconciliation-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening reconciliation log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reconciliation log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
