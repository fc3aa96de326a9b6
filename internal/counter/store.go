// Package counter keeps click counts per item uid.
//
// Every Store makes Increment a single atomic step in its engine, so
// concurrent increments of one uid never lose an update. A uid that was
// never incremented has no record; counts start at 1.
package counter

import (
	"context"
	"errors"
	"fmt"
)

type Store interface {
	// Initialize prepares the backing storage. Safe to call on every startup.
	Initialize(ctx context.Context) error
	// GetAll returns every stored uid with its count.
	GetAll(ctx context.Context) (map[string]int64, error)
	// Increment creates uid with count 1 or adds 1 to it.
	Increment(ctx context.Context, uid string) error
	Close() error
}

// StorageError is returned when the storage could not serve a read or write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("counter %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

var errNotInitialized = errors.New("store is not initialized")
