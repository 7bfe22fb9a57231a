// Package history persists advisory lifecycle state as an append-only
// SCD Type 2 record set and decides when a new version is warranted.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/echotrust/advisory-backend/model"
)

// ErrConflict reports a concurrent write detected for the same advisory:
// the current record changed between read and write. Callers must re-read
// and retry, never drop or overwrite.
var ErrConflict = errors.New("history: concurrent state write conflict")

// Store is the append-only record set behind the state history manager.
// Implementations must make Transition atomic: closing the superseded
// version and inserting the new current version either both happen or
// neither does, so an interrupted run never leaves an advisory with zero
// or multiple current records.
type Store interface {
	// Ping verifies the store is reachable before a run starts writing.
	Ping(ctx context.Context) error

	// Current returns the record with is_current=true, or nil.
	Current(ctx context.Context, advisoryID string) (*model.AdvisoryStateRecord, error)

	// AtTime returns the version whose effective window covers t, or nil.
	AtTime(ctx context.Context, advisoryID string, t time.Time) (*model.AdvisoryStateRecord, error)

	// History returns all versions for an advisory, oldest first.
	History(ctx context.Context, advisoryID string) ([]model.AdvisoryStateRecord, error)

	// AllCurrent returns every current record, ordered by advisory id.
	AllCurrent(ctx context.Context) ([]model.AdvisoryStateRecord, error)

	// Transition atomically closes the current record identified by
	// supersedes (history id, empty when no current record is expected)
	// and inserts rec as the new current version. Returns ErrConflict if
	// the current record is not the one identified by supersedes.
	Transition(ctx context.Context, rec model.AdvisoryStateRecord, supersedes string) error
}
