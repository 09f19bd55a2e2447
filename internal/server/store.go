package server

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// RunStore keeps completed runs in memory.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	seq  map[string]int
	next int
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		seq:  make(map[string]int),
	}
}

// Save assigns run an ID and stores a copy of it.
func (s *RunStore) Save(run Run) Run {
	run.ID = newRunID()
	run.Object = "run"

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = &run
	s.seq[run.ID] = s.next
	s.next++
	return run
}

func (s *RunStore) Get(id string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// List returns all runs in creation order.
func (s *RunStore) List() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, *run)
	}
	slices.SortFunc(out, func(a, b Run) int {
		return s.seq[a.ID] - s.seq[b.ID]
	})
	return out
}

func (s *RunStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return false
	}
	delete(s.runs, id)
	delete(s.seq, id)
	return true
}

func newRunID() string {
	return "run_" + uuid.NewString()
}
