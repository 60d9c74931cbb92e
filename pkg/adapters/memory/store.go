package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/conduit/pkg/domain"
)

// Store implements ports.ReportStore in memory.
// Safe for concurrent use.
type Store struct {
	data  map[string]*domain.Report
	order []string
	mu    sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Report),
	}
}

// Save persists a copy of the report.
func (s *Store) Save(_ context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[report.ID]; !ok {
		s.order = append(s.order, report.ID)
	}
	s.data[report.ID] = clone(report)
	return nil
}

// Load retrieves a copy of a report.
func (s *Store) Load(_ context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.data[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return clone(report), nil
}

// Delete removes a report.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return nil
	}
	delete(s.data, id)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == id })
	return nil
}

// List returns report IDs in insertion order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order), nil
}

// clone isolates stored reports from callers, as serialization would.
func clone(r *domain.Report) *domain.Report {
	c := *r
	c.Terminals = clonePaths(r.Terminals)
	c.Failures = clonePaths(r.Failures)
	c.Visits = maps.Clone(r.Visits)
	return &c
}

func clonePaths(in []domain.PathResult) []domain.PathResult {
	if in == nil {
		return nil
	}
	out := make([]domain.PathResult, len(in))
	for i, p := range in {
		out[i] = domain.PathResult{
			Path:  slices.Clone(p.Path),
			Node:  p.Node,
			Top:   p.Top,
			Stack: slices.Clone(p.Stack),
		}
	}
	return out
}
