package store

import (
	"context"

	"github.com/eldtechnologies/memorywall/internal/models"
)

// DataStore defines the interface for persistent storage of memories.
// PostgresStore, SQLiteStore and MemoryStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// ListMemories returns every memory, highest id first.
	ListMemories(ctx context.Context) ([]models.Memory, error)
	CreateMemory(ctx context.Context, m models.NewMemory) (*models.Memory, error)
	// DeleteMemory reports whether a row was removed.
	DeleteMemory(ctx context.Context, id int64) (bool, error)
	// DeleteAllMemories returns the number of rows removed.
	DeleteAllMemories(ctx context.Context) (int64, error)
	CountMemories(ctx context.Context) (int64, error)
}
