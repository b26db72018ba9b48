package servicehours

import "fmt"

// MissingTableError reports that a table required for the computation is
// absent or empty. It is the only error that aborts a computation; all
// per-row problems degrade by excluding the row.
type MissingTableError struct {
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("required GTFS table %q is missing or empty", e.Table)
}
