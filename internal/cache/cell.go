// Package cache implements the lock-free cached-value cell (Cached[T]) and
// the bundle of named cells the refresh fleet populates. There is exactly
// one writer per cell — its owning refresh task — so stores need no
// read-modify-write; Store is a plain atomic pointer swap and Load is a
// plain atomic pointer read. Neither ever blocks the other.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

type snapshot[T any] struct {
	value     T
	updatedAt time.Time
	populated bool
}

// Cached is a single-writer, many-reader snapshot cell for one cached
// value. The zero value is ready to use and reports as cold.
type Cached[T any] struct {
	ptr atomic.Pointer[snapshot[T]]
}

// New constructs an empty (cold) cell.
func New[T any]() *Cached[T] {
	c := &Cached[T]{}
	c.ptr.Store(&snapshot[T]{})
	return c
}

// Load returns the latest stored value and whether the cell has ever been
// populated. It never blocks and never allocates.
func (c *Cached[T]) Load() (T, bool) {
	s := c.ptr.Load()
	if s == nil || !s.populated {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Store replaces both the value and the update timestamp atomically. Only
// the cell's owning refresh task should ever call Store.
func (c *Cached[T]) Store(v T) {
	c.ptr.Store(&snapshot[T]{value: v, updatedAt: time.Now(), populated: true})
}

// AgeSecs returns how long ago the cell was last stored, or false if the
// cell has never been populated (age is undefined while cold).
func (c *Cached[T]) AgeSecs() (uint64, bool) {
	s := c.ptr.Load()
	if s == nil || !s.populated {
		return 0, false
	}
	return uint64(time.Since(s.updatedAt).Seconds()), true
}

// IsPopulated reports whether the cell has ever been stored to.
func (c *Cached[T]) IsPopulated() bool {
	s := c.ptr.Load()
	return s != nil && s.populated
}

// LoadOrUnavailable is the handler-facing helper: it never waits, never
// retries, and maps coldness to a 503 the edge can return directly.
func (c *Cached[T]) LoadOrUnavailable(name string) (T, error) {
	v, ok := c.Load()
	if !ok {
		var zero T
		return zero, apperr.ServiceUnavailable(name)
	}
	return v, nil
}

// FieldStatus describes one cell's population state for health endpoints.
type FieldStatus struct {
	Name      string `json:"name"`
	Populated bool   `json:"populated"`
	AgeSecs   *uint64 `json:"age_secs,omitempty"`
}

// Status reports this cell's FieldStatus under the given name.
func (c *Cached[T]) Status(name string) FieldStatus {
	fs := FieldStatus{Name: name, Populated: c.IsPopulated()}
	if age, ok := c.AgeSecs(); ok {
		fs.AgeSecs = &age
	}
	return fs
}
