package series

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotActive reports that fewer than rank+1 instruments with a future expiry
// exist for the root on the requested date. It is an expected gap, not a fault.
var ErrNotActive = errors.New("no active instrument for rank")

// StaleCatalogError reports that every listed instrument for a root expired
// before the requested date. Distinct from ErrNotActive so callers can tell
// "universe exhausted, refresh the catalog" from "contract not listed yet".
type StaleCatalogError struct {
	Root string
	Date time.Time
}

func (e *StaleCatalogError) Error() string {
	return fmt.Sprintf("instrument catalog for %s is stale: no expiry on or after %s", e.Root, e.Date.Format("2006-01-02"))
}

// CollisionError reports two distinct series triples encoding to one key.
type CollisionError struct {
	Key    string
	First  ContractSeries
	Second ContractSeries
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("contract series key %q is ambiguous: %+v vs %+v", e.Key, e.First, e.Second)
}

// CanonicalAmbiguityError reports more than one canonical row for a
// (root, trading date) pair. The canonical view must never silently
// deduplicate, so reads fail loudly instead.
type CanonicalAmbiguityError struct {
	Root string
	Date time.Time
	Rows int
}

func (e *CanonicalAmbiguityError) Error() string {
	return fmt.Sprintf("canonical view has %d rows for (%s, %s); expected exactly one", e.Rows, e.Root, e.Date.Format("2006-01-02"))
}

// BatchRejectedError reports a merge batch rejected as a whole. Keys lists
// every offending natural key, not just the first, so callers can repair the
// input in one pass.
type BatchRejectedError struct {
	Table  string
	Reason string
	Keys   []string
}

func (e *BatchRejectedError) Error() string {
	return fmt.Sprintf("merge batch rejected for %s (%s): offending keys [%s]", e.Table, e.Reason, strings.Join(e.Keys, ", "))
}
