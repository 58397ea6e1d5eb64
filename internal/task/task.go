// Package task tracks the lifecycle of background document runs for the
// HTTP layer. The store is an explicit dependency handed to whoever needs
// it; there is no package-level registry.
package task

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/peredit/internal"
)

// Status is a task lifecycle state. Transitions are
// pending -> processing -> completed or error; both end states are
// terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Task is one background document run as seen by API clients.
type Task struct {
	ID        string           `json:"id"`
	Status    Status           `json:"status"`
	Completed int              `json:"completed"`
	Total     int              `json:"total"`
	Message   string           `json:"message,omitempty"`
	Error     string           `json:"error,omitempty"`
	Report    *internal.Report `json:"-"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Terminal reports whether the task reached an end state.
func (t Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusError
}

// Store holds tasks by id. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*Task)}
}

// Create registers a new pending task and returns its snapshot. Ids are
// short so they stay readable in URLs and logs.
func (s *Store) Create() Task {
	now := time.Now()
	t := &Task{
		ID:        uuid.NewString()[:8],
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	return *t
}

// Get returns a snapshot of the task, if it exists.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Update applies fn to the stored task under the lock and stamps
// UpdatedAt. It reports whether the task existed.
func (s *Store) Update(id string, fn func(*Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	fn(t)
	t.UpdatedAt = time.Now()
	return true
}

// Delete removes the task and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// List returns snapshots of all tasks in unspecified order.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}
