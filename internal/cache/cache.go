// Package cache stores serialised read results between writes.
//
// Entries are grouped under a generation. Invalidate starts a new generation,
// which makes every earlier entry unreachable at once. Readers pass the
// generation they observed on Get back to Set, so a result computed before
// an invalidation is never stored where later readers would find it.
package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned by Get when no entry exists for the key
var ErrMiss = errors.New("cache miss")

// Generation identifies a cache epoch
type Generation int64

// Cache is a generation-keyed byte cache
type Cache interface {
	// Get returns the value stored for key in the current generation.
	// The generation is returned even on ErrMiss.
	Get(ctx context.Context, key string) ([]byte, Generation, error)

	// Set stores value for key under gen
	Set(ctx context.Context, key string, gen Generation, value []byte) error

	// Invalidate discards every entry by advancing the generation
	Invalidate(ctx context.Context) error

	Close() error
}

// Nop is a Cache that never stores anything
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Get(context.Context, string) ([]byte, Generation, error) { return nil, 0, ErrMiss }

func (Nop) Set(context.Context, string, Generation, []byte) error { return nil }

func (Nop) Invalidate(context.Context) error { return nil }

func (Nop) Close() error { return nil }
