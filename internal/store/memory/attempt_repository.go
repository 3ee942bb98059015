package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"paysync/internal/domain/payment"
	"paysync/internal/store/repositories"
)

const defaultShards = 32

type shard struct {
	mu       sync.RWMutex
	attempts map[string]payment.Attempt
}

// AttemptRepository is a process-local status store. Keys are spread over
// independently locked shards, so writes to different attempts rarely share a lock.
type AttemptRepository struct {
	shards []*shard
}

func NewAttemptRepository() *AttemptRepository {
	return NewAttemptRepositoryWithShards(defaultShards)
}

func NewAttemptRepositoryWithShards(n int) *AttemptRepository {
	if n <= 0 {
		n = defaultShards
	}
	r := &AttemptRepository{shards: make([]*shard, n)}
	for i := range r.shards {
		r.shards[i] = &shard{attempts: make(map[string]payment.Attempt)}
	}
	return r
}

func (r *AttemptRepository) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

func (r *AttemptRepository) Create(_ context.Context, a *payment.Attempt) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("attempt ID is required")
	}
	s := r.shardFor(a.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.attempts[a.ID]; exists {
		return repositories.ErrAlreadyExists
	}
	s.attempts[a.ID] = *a
	return nil
}

func (r *AttemptRepository) FindByID(_ context.Context, id string) (*payment.Attempt, error) {
	s := r.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attempts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (r *AttemptRepository) Transition(_ context.Context, id string, to payment.Status) (bool, error) {
	if !to.IsTerminal() {
		return false, fmt.Errorf("transition target must be terminal, got %q", to)
	}
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[id]
	if !ok {
		now := time.Now().UTC()
		s.attempts[id] = payment.Attempt{ID: id, Status: to, CreatedAt: now, UpdatedAt: now}
		return true, nil
	}
	if !a.Transition(to) {
		return false, nil
	}
	s.attempts[id] = a
	return true, nil
}

// Len returns the number of tracked attempts
func (r *AttemptRepository) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.attempts)
		s.mu.RUnlock()
	}
	return n
}
