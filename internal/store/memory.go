package store

import (
	"context"
	"sync"
	"time"

	"github.com/eldtechnologies/memorywall/internal/models"
)

// MemoryStore keeps memories in process memory. It backs MEMORY_STORE=true
// and tests; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	memories []models.Memory // ascending by id
	lastID   int64
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ListMemories returns all memories, newest first.
func (s *MemoryStore) ListMemories(ctx context.Context) ([]models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Memory, 0, len(s.memories))
	for i := len(s.memories) - 1; i >= 0; i-- {
		out = append(out, s.memories[i])
	}
	return out, nil
}

// CreateMemory stores a memory under a millisecond timestamp id, bumped
// when needed so ids stay strictly increasing.
func (s *MemoryStore) CreateMemory(ctx context.Context, in models.NewMemory) (*models.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	m := models.Memory{
		ID:        id,
		Message:   in.Message,
		Author:    in.Author,
		PhotoURL:  in.PhotoURL,
		CreatedAt: now,
	}
	s.memories = append(s.memories, m)
	return &m, nil
}

// DeleteMemory removes the memory with the given id.
func (s *MemoryStore) DeleteMemory(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.memories {
		if m.ID == id {
			s.memories = append(s.memories[:i], s.memories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteAllMemories removes every memory.
func (s *MemoryStore) DeleteAllMemories(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.memories))
	s.memories = nil
	return n, nil
}

// CountMemories returns the number of memories.
func (s *MemoryStore) CountMemories(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.memories)), nil
}
