package database

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// DatabaseService is a durable key-value medium. Values are overwritten
// wholesale on every Set.
type DatabaseService interface {
	CreateDatabase() error
	DoesDatabaseExist() bool
	Close() error

	// Get returns ErrKeyNotFound when no value was stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
