package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/conduit/internal/logging"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Analyzer runs a single contract to completion.
// *conduit.Engine satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, c *domain.Contract) (*domain.Report, error)
	// ReportID names the report Analyze would produce for c.
	ReportID(c *domain.Contract) string
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serves reports from a store and runs the analyzer on a miss.
// Locks are reference counted and dropped once nobody waits on them.
type Manager struct {
	analyzer Analyzer
	store    ports.ReportStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given analyzer and report store.
func NewManager(analyzer Analyzer, store ports.ReportStore, opts ...Option) *Manager {
	m := &Manager{
		analyzer: analyzer,
		store:    store,
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the report ID a contract is stored under.
func (m *Manager) ID(c *domain.Contract) string {
	return m.analyzer.ReportID(c)
}

func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Analyze returns the stored report for c, running the analyzer first if
// there is none. The boolean reports whether the result came from the store.
func (m *Manager) Analyze(ctx context.Context, c *domain.Contract) (*domain.Report, bool, error) {
	id := m.ID(c)
	var (
		report *domain.Report
		cached bool
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		report, err = m.store.Load(ctx, id)
		if err == nil {
			cached = true
			return nil
		}
		if !errors.Is(err, domain.ErrReportNotFound) {
			return fmt.Errorf("failed to check report existence: %w", err)
		}

		report, err = m.analyzer.Analyze(ctx, c)
		if err != nil {
			return err
		}
		if report.Truncated {
			// a truncated run depends on the step limit; keep it out of the store
			return nil
		}
		if err := m.store.Save(ctx, report); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	m.logger.Debug("analysis served", "id", id, "cached", cached)
	return report, cached, nil
}

// Load retrieves a stored report.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Report, error) {
	var report *domain.Report
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		report, err = m.store.Load(ctx, id)
		return err
	})
	return report, err
}

// Delete removes a report from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying report store.
func (m *Manager) Store() ports.ReportStore {
	return m.store
}

// WithLock executes fn while holding the lock for id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"report_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
