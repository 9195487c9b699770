package refreshlog

import (
	"context"
	"sync"
)

// Repository keeps the most recent refresh runs, newest first.
type Repository interface {
	Append(ctx context.Context, r *Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// MemoryRepository is the journal used when Redis is not configured.
type MemoryRepository struct {
	mu   sync.Mutex
	runs []Run
	size int
}

func NewMemoryRepository(size int) *MemoryRepository {
	if size <= 0 {
		size = 1
	}
	return &MemoryRepository{size: size}
}

func (m *MemoryRepository) Append(_ context.Context, r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append([]Run{*r}, m.runs...)
	if len(m.runs) > m.size {
		m.runs = m.runs[:m.size]
	}
	return nil
}

func (m *MemoryRepository) Recent(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]Run, limit)
	copy(out, m.runs[:limit])
	return out, nil
}
