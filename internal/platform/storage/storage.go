// Package storage holds the contract shared by canonical-store backends:
// table write specs and the persistence error taxonomy.
package storage

import (
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// ConflictMode decides what a backend does when a written row collides with
// an existing key.
type ConflictMode int

const (
	// ConflictMerge overwrites the existing row (upsert).
	ConflictMerge ConflictMode = iota
	// ConflictReject surfaces the collision as a duplicate error.
	ConflictReject
)

func (m ConflictMode) String() string {
	if m == ConflictReject {
		return "insert"
	}
	return "merge"
}

// Canonical store tables.
const (
	TableCompetitions       = "competitions"
	TableTeams              = "teams"
	TableFixtures           = "fixtures"
	TableBroadcasts         = "broadcasts"
	TableBroadcastProviders = "broadcast_providers"
)

// TableSpec describes how records are written to one destination table.
type TableSpec struct {
	Name     string
	Conflict []string
	Mode     ConflictMode
}

func (s TableSpec) OnConflict() string {
	return strings.Join(s.Conflict, ",")
}

var (
	ErrDuplicate     = crerr.New("duplicate key")
	ErrTableNotFound = crerr.New("table not found")
	ErrNotFound      = crerr.New("row not found")
)

// Error is a failed write or read against the canonical store.
type Error struct {
	Table   string
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("store ")
	b.WriteString(e.Table)
	if e.Status > 0 {
		fmt.Fprintf(&b, " status=%d", e.Status)
	}
	if e.Code != "" {
		b.WriteString(" code=")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Postgres SQLSTATE codes the pipeline cares about.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeNotNullViolation    = "23502"
	CodeUndefinedTable      = "42P01"
	CodeRESTTableNotFound   = "PGRST205"
	// CodeCardinalityViolation is raised when one merge batch touches the
	// same conflict key twice.
	CodeCardinalityViolation = "21000"
)

// Classify marks err with ErrDuplicate or ErrTableNotFound based on its
// code so callers can use errors.Is.
func Classify(err *Error) error {
	if err == nil {
		return nil
	}
	switch {
	case err.Code == CodeUniqueViolation || (err.Status == 409 && err.Code == ""):
		return crerr.Mark(err, ErrDuplicate)
	case err.Code == CodeUndefinedTable || err.Code == CodeRESTTableNotFound || (err.Status == 404 && err.Code == ""):
		return crerr.Mark(err, ErrTableNotFound)
	default:
		return err
	}
}

func IsDuplicate(err error) bool {
	return err != nil && crerr.Is(err, ErrDuplicate)
}

func IsTableNotFound(err error) bool {
	return err != nil && crerr.Is(err, ErrTableNotFound)
}
