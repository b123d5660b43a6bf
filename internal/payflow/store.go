package payflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyState  = "payflow/state"
	keyActive = "payflow/active"
	keyCamera = "payflow/camera-permission"
)

// Store persists flow state between invocations.
type Store interface {
	Load(ctx context.Context) (State, error)
	// Save merges patch into the stored state and marks the flow active.
	Save(ctx context.Context, patch State) (State, error)
	// Clear removes the state and the active flag; clearing nothing is fine.
	Clear(ctx context.Context) error
	Active(ctx context.Context) (bool, error)
	CameraGranted(ctx context.Context) (bool, error)
	GrantCamera(ctx context.Context) error
}

var _ Store = (*BadgerStore)(nil)

type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadger opens the client state under dir; an empty dir keeps it in
// memory.
func OpenBadger(dir string, log *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	opts = opts.WithLogger(badgerLogger{log}).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func loadState(txn *badger.Txn) (State, error) {
	item, err := txn.Get([]byte(keyState))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil || st.Version != StateVersion {
		// unreadable or from another version: start over
		return State{}, nil
	}
	return st, nil
}

func (s *BadgerStore) Load(ctx context.Context) (State, error) {
	var st State
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		st, err = loadState(txn)
		return err
	})
	return st, err
}

func (s *BadgerStore) Save(ctx context.Context, patch State) (State, error) {
	var merged State
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := loadState(txn)
		if err != nil {
			return err
		}
		merged = cur.Merge(patch)
		merged.UpdatedAt = s.now().UTC()
		raw, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(keyState), raw); err != nil {
			return err
		}
		return txn.Set([]byte(keyActive), []byte{1})
	})
	return merged, err
}

func (s *BadgerStore) Clear(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyState)); err != nil {
			return err
		}
		return txn.Delete([]byte(keyActive))
	})
}

func (s *BadgerStore) flag(key string) (bool, error) {
	var on bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		on = err == nil
		return err
	})
	return on, err
}

func (s *BadgerStore) Active(ctx context.Context) (bool, error) { return s.flag(keyActive) }

func (s *BadgerStore) CameraGranted(ctx context.Context) (bool, error) { return s.flag(keyCamera) }

func (s *BadgerStore) GrantCamera(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyCamera), []byte{1})
	})
}

// badgerLogger routes badger's logging through slog.
type badgerLogger struct{ log *slog.Logger }

func (l badgerLogger) logger() *slog.Logger {
	if l.log == nil {
		return slog.Default()
	}
	return l.log
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger().Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger().Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger().Info(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger().Debug(fmt.Sprintf(format, args...), "component", "badger")
}
