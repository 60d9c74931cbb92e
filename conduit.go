package conduit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/conduit/internal/compiler"
	"github.com/aretw0/conduit/internal/runtime"
	"github.com/aretw0/conduit/internal/validator"
	"github.com/aretw0/conduit/pkg/domain"
)

const (
	// DefaultStepLimit bounds a valve run when no limit is configured.
	DefaultStepLimit = 1000
	// DefaultStackLimit bounds the stacks a valve run may record. Branches
	// inside loops double the frontier, so steps alone do not bound memory.
	DefaultStackLimit = 50000
)

// Engine is the high-level entry point for Conduit.
// It compiles contracts into graphs and drives valves over them.
type Engine struct {
	sem    *runtime.Semantics
	parser *compiler.Parser

	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	env       *domain.Env
	maxSteps  int
	maxStacks int

	cacheSize int
	cacheMu   sync.Mutex
	graphs    *lru.Cache
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStepLimit bounds every valve run; a non-positive limit disables the bound.
func WithStepLimit(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithStackLimit bounds the stacks recorded by every valve run; a run that
// reaches it ends truncated. A non-positive limit disables the bound.
func WithStackLimit(n int) Option {
	return func(e *Engine) {
		e.maxStacks = n
	}
}

// WithEnv overrides the environment placeholders seen by SENDER, AMOUNT and friends.
func WithEnv(env *domain.Env) Option {
	return func(e *Engine) {
		e.env = domain.DefaultEnv().Merge(env)
	}
}

// WithGraphCache keeps up to size compiled graphs, keyed by code fingerprint.
func WithGraphCache(size int) Option {
	return func(e *Engine) {
		e.cacheSize = size
	}
}

// New initializes an Engine and checks that the instruction table is complete.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		sem:       runtime.NewSemantics(),
		parser:    compiler.NewParser(),
		env:       domain.DefaultEnv(),
		maxSteps:  DefaultStepLimit,
		maxStacks: DefaultStackLimit,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if err := eng.sem.CheckTable(); err != nil {
		return nil, fmt.Errorf("instruction table: %w", err)
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.cacheSize > 0 {
		eng.graphs = lru.New(eng.cacheSize)
	}
	return eng, nil
}

// Parse decodes a Micheline JSON contract.
func (e *Engine) Parse(data []byte) (*domain.Contract, error) {
	return e.parser.ParseContract(data)
}

// Compile flattens code and builds its graph, reusing a cached graph when
// the same code was compiled before.
func (e *Engine) Compile(code []domain.Instruction) *domain.Graph {
	if e.graphs == nil {
		return compiler.Build(code)
	}
	key := compiler.Fingerprint(code)

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if g, ok := e.graphs.Get(key); ok {
		return g.(*domain.Graph)
	}
	g := compiler.Build(code)
	e.graphs.Add(key, g)
	return g
}

// Validate checks a graph for dangling edges, arity mismatches, unknown
// instructions and unbalanced cursor markers.
func (e *Engine) Validate(g *domain.Graph) error {
	return validator.ValidateGraph(g, e.sem)
}

// NewValve prepares a valve for step-by-step exploration of g.
func (e *Engine) NewValve(g *domain.Graph, initial *domain.Stack, id string) *runtime.Valve {
	return runtime.NewValve(g, e.sem, initial,
		runtime.WithHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithAnalysisID(id),
		runtime.WithMaxStacks(e.maxStacks),
	)
}

// Env returns the environment placeholders used for new stacks.
func (e *Engine) Env() *domain.Env {
	return e.env
}

// Analyze compiles a contract and runs a valve to exhaustion or to the step
// limit. Symbolic failures end up in the report; only engine defects
// (unsupported instructions, underflow) are returned as errors.
func (e *Engine) Analyze(ctx context.Context, c *domain.Contract) (*domain.Report, error) {
	return e.AnalyzeLimit(ctx, c, e.maxSteps)
}

// ReportID returns the ID a report for c is produced under. It covers the
// code, the parameter and storage types and this engine's environment.
func (e *Engine) ReportID(c *domain.Contract) string {
	return compiler.ReportFingerprint(c, e.env)
}

// AnalyzeLimit is Analyze with a step limit for this run only.
func (e *Engine) AnalyzeLimit(ctx context.Context, c *domain.Contract, maxSteps int) (*domain.Report, error) {
	id := e.ReportID(c)
	logger := e.logger.With("contract", c.Name, "id", id)

	g := e.Compile(c.Code)
	if err := e.Validate(g); err != nil {
		return nil, fmt.Errorf("contract %s: %w", id, err)
	}

	v := e.NewValve(g, c.InitialStack(e.env), id)
	truncated := false
	if err := v.Run(ctx, maxSteps); err != nil {
		if !errors.Is(err, domain.ErrStepLimit) {
			logger.Error("analysis failed", "err", err)
			return nil, fmt.Errorf("contract %s: %w", id, err)
		}
		truncated = true
	}

	report := &domain.Report{
		ID:        id,
		Contract:  c.Name,
		CreatedAt: time.Now().UTC(),
		Nodes:     g.Len(),
		Steps:     v.Steps(),
		Truncated: truncated,
		Visits:    v.Visits(),
	}
	for _, s := range v.Terminals() {
		node := domain.NoNode
		if len(s.Path) > 0 {
			node = s.Path[len(s.Path)-1]
		}
		report.Terminals = append(report.Terminals, domain.NewPathResult(node, s))
	}
	for _, f := range v.Failures() {
		report.Failures = append(report.Failures, domain.NewPathResult(f.Node, f.Stack))
	}

	logger.Info("analysis complete",
		"steps", report.Steps,
		"terminals", len(report.Terminals),
		"failures", len(report.Failures),
		"truncated", truncated,
	)
	return report, nil
}

// AnalyzeAll analyses independent contracts concurrently; reports come back
// in input order. The first engine error cancels the remaining work.
func (e *Engine) AnalyzeAll(ctx context.Context, contracts []*domain.Contract, concurrency int) ([]*domain.Report, error) {
	reports := make([]*domain.Report, len(contracts))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, c := range contracts {
		g.Go(func() error {
			r, err := e.Analyze(ctx, c)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
