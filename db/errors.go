package db

import (
	"strings"

	"github.com/teranos/buildamp/errors"
)

// ErrDatabaseClosed is returned when the store is used after Close, which
// happens when watch mode shuts down while a run is being recorded.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// The sql package reports this with its own unexported error, so the
// message is matched as well.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// wrap annotates a store failure, normalizing closed-database errors
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if IsDatabaseClosed(err) {
		return errors.Wrap(ErrDatabaseClosed, msg)
	}
	return errors.Wrap(err, msg)
}
