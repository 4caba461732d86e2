package store

import (
	"context"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// Store is a concurrency-safe keyed store of task records with time based
// eviction. Tasks are evicted once older than the retention window
// regardless of their status.
type Store interface {
	// Save writes the given task snapshot, overwriting any previous version.
	Save(ctx context.Context, t *structs.Task) error

	// Get returns the task with the given id, or nil if absent or evicted.
	Get(ctx context.Context, id string) (*structs.Task, error)

	// GetAll returns the tasks matching the given ids, skipping absent ones.
	GetAll(ctx context.Context, ids []string) ([]*structs.Task, error)

	// Delete removes the task with the given id.
	Delete(ctx context.Context, id string) error

	// List returns tasks matching the query, newest submissions first.
	List(ctx context.Context, q *structs.TaskQuery) ([]*structs.Task, error)

	// Count returns the number of tasks matching the query's filters,
	// ignoring limit and offset.
	Count(ctx context.Context, q *structs.TaskQuery) (int, error)

	// Close releases store resources.
	Close() error
}
