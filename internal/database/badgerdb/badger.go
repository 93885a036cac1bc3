// Package badgerdb persists the participant registry and the message log in
// an embedded Badger key-value store.
//
// Keys:
//
//	participant:<name>  -> diskParticipant (JSON)
//	message:<uuidv7>    -> diskMessage (JSON)
//
// UUIDv7 ids sort by creation time, so a prefix scan returns messages in
// insertion order.
package badgerdb

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	participantPrefix = "participant:"
	messagePrefix     = "message:"

	// conflictRetries bounds how often a transaction aborted by a concurrent
	// writer is replayed.
	conflictRetries = 3
)

// Open opens (or creates) a Badger database at path, routing Badger's own
// logging through log at warning level and above.
func Open(path string, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogger{log: log.With("component", "badger")}).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// update runs fn in a read-write transaction, replaying it when Badger
// reports a conflict with a concurrent commit.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for range conflictRetries {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
