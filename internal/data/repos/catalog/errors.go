package catalog

import "errors"

// ErrRevisionConflict is returned when a save carries a stale revision.
var ErrRevisionConflict = errors.New("attribute mapping revision conflict")
