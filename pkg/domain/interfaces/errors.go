package interfaces

import "errors"

// ErrNotFound is wrapped by every repository backend when a record does not
// exist
var ErrNotFound = errors.New("not found")
