package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldtechnologies/memorywall/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ListMemories retrieves all memories, newest first.
func (s *PostgresStore) ListMemories(ctx context.Context) ([]models.Memory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, message, author, photo_url, created_at
		FROM memories
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memories := []models.Memory{}
	for rows.Next() {
		var m models.Memory
		if err := rows.Scan(&m.ID, &m.Message, &m.Author, &m.PhotoURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// CreateMemory inserts a memory and returns it with its assigned id.
func (s *PostgresStore) CreateMemory(ctx context.Context, in models.NewMemory) (*models.Memory, error) {
	m := &models.Memory{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO memories (message, author, photo_url)
		VALUES ($1, $2, $3)
		RETURNING id, message, author, photo_url, created_at
	`, in.Message, in.Author, in.PhotoURL).Scan(
		&m.ID,
		&m.Message,
		&m.Author,
		&m.PhotoURL,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMemory removes the memory with the given id.
func (s *PostgresStore) DeleteMemory(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAllMemories removes every memory.
func (s *PostgresStore) DeleteAllMemories(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM memories`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountMemories returns the number of memories.
func (s *PostgresStore) CountMemories(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count)
	return count, err
}
