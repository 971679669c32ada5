package db

import (
	"strings"

	"github.com/teranos/qntx-cohort/errors"
)

// ErrDatabaseClosed is returned when a store is used after its database
// was closed, typically while the server is shutting down.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err means the connection is closed.
// database/sql returns its own unexported error for this, so the message
// is matched as a fallback.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
