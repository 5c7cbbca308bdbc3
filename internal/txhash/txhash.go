// Package txhash derives the content identity of a statement transaction.
// Two transactions with the same (date, label, amount) always hash the
// same, which makes re-imports of overlapping date ranges idempotent. The
// flip side is accepted deliberately: legitimately repeated identical
// entries also collide and are treated as duplicates.
package txhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// delimiter joins the hashed fields; it never appears inside a cleaned
// label or a canonical date/amount string.
const delimiter = "|"

// Hasher produces a fixed-length hex digest over a transaction's identity
// fields.
type Hasher interface {
	// Sum hashes the canonical date (YYYY-MM-DD), cleaned label and
	// two-decimal amount string.
	Sum(date, label, amount string) string
	// Name identifies the strategy, recorded for diagnostics.
	Name() string
}

// SHA256 is the default strategy: a cryptographic digest, suitable for
// both deduplication and integrity checks.
type SHA256 struct{}

func (SHA256) Sum(date, label, amount string) string {
	sum := sha256.Sum256([]byte(date + delimiter + label + delimiter + amount))
	return hex.EncodeToString(sum[:])
}

func (SHA256) Name() string { return "sha256" }

// FNV is the deterministic non-cryptographic fallback. Its collision
// tolerance is fine for deduplication but it must not be used for
// integrity verification.
type FNV struct{}

func (FNV) Sum(date, label, amount string) string {
	h := fnv.New64a()
	h.Write([]byte(date + delimiter + label + delimiter + amount))
	return fmt.Sprintf("%016x", h.Sum64())
}

func (FNV) Name() string { return "fnv64a" }
