// Package hashtree provides the concrete, flock-guarded JSON storage
// collaborator used for the prefix index, per-set summaries, filemaps,
// and sidecars. It is the on-disk realization of the opaque hash-tree
// interface the core composes its trees through.
package hashtree

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/llnl/scrindex/internal/fsutil"
	"github.com/llnl/scrindex/lock"
	"github.com/llnl/scrindex/lock/flock"
	"github.com/llnl/scrindex/storage"
)

// Store provides flock-protected read/modify/write access to a JSON file.
// T is the top-level tree structure stored in the file. If *T implements
// storage.Initer, Init() is called automatically after loading.
type Store[T any] struct {
	lockPath string
	filePath string
}

// New creates a Store for the given lock and data file paths.
func New[T any](lockPath, filePath string) *Store[T] {
	return &Store[T]{lockPath: lockPath, filePath: filePath}
}

// With loads the JSON file under flock and passes the deserialized tree
// to fn. If the file does not exist, fn receives a zero-value T.
func (s *Store[T]) With(ctx context.Context, fn func(*T) error) error {
	return lock.WithLock(ctx, flock.New(s.lockPath), func() error {
		var data T
		raw, err := os.ReadFile(s.filePath) //nolint:gosec // internal index/summary path
		if err != nil {
			if os.IsNotExist(err) {
				initData(&data)
				return fn(&data)
			}
			return fmt.Errorf("read %s: %w", s.filePath, err)
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parse %s: %w", s.filePath, err)
		}
		initData(&data)
		return fn(&data)
	})
}

// Update performs a read-modify-write on the JSON file under flock.
// If fn returns nil the tree is atomically written back.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) error) error {
	return s.With(ctx, func(data *T) error {
		if err := fn(data); err != nil {
			return err
		}
		return fsutil.AtomicWriteJSON(s.filePath, data)
	})
}

// Read loads and returns the tree without taking out an update lock's
// write-back obligation; it is a thin convenience over With for
// collaborators that only ever read (filemap, sidecar).
func Read[T any](lockPath, filePath string) (T, error) {
	var out T
	err := New[T](lockPath, filePath).With(context.Background(), func(data *T) error {
		out = *data
		return nil
	})
	return out, err
}

// Write replaces the file's tree with v. An existing file is still read
// and parsed first, so one that cannot be read or parsed makes Write fail.
func Write[T any](lockPath, filePath string, v T) error {
	return New[T](lockPath, filePath).Update(context.Background(), func(data *T) error {
		*data = v
		return nil
	})
}

func initData[T any](data *T) {
	if initer, ok := any(data).(storage.Initer); ok {
		initer.Init()
	}
}
