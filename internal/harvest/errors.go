package harvest

import (
	"errors"
	"fmt"
)

var (
	// ErrViewUnavailable means the list view could not be read or
	// scrolled even after the configured number of retries.
	ErrViewUnavailable = errors.New("list view unavailable")

	// ErrForced means the harvest was cut short (pass budget or
	// context deadline) before end-of-list was naturally detected.
	// The accompanying Result still carries everything collected.
	ErrForced = errors.New("harvest terminated before the list stabilized")
)

// RowError describes a single row whose fields did not map cleanly to
// a Record. Rows failing this way are skipped, never fatal.
type RowError struct {
	Field  string
	Value  string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row field %s=%q: %s", e.Field, e.Value, e.Reason)
}
