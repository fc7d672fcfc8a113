// Package kv abstracts the durable key-value storage the cart persists
// snapshots through. Values are opaque strings.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is the durable storage contract. Get returns ErrNotFound for an
// absent key; Set overwrites unconditionally (last writer wins).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
