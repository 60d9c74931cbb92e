package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/internal/config"
	"github.com/aretw0/conduit/internal/logging"
	"github.com/aretw0/conduit/pkg/adapters/loam"
	"github.com/aretw0/conduit/pkg/adapters/memory"
	"github.com/aretw0/conduit/pkg/adapters/redis"
	"github.com/aretw0/conduit/pkg/analysis"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/observability"
	"github.com/aretw0/conduit/pkg/persistence/middleware"
	"github.com/aretw0/conduit/pkg/ports"
)

// Options carries the command line overrides applied on top of conduit.yaml.
type Options struct {
	Dir        string
	ConfigPath string
	Debug      bool

	// MaxSteps and Store override the config when non-nil / non-empty.
	MaxSteps *int
	Store    string

	// Loader replaces the Loam repository in Dir.
	Loader ports.ContractLoader
}

// App bundles everything a command needs.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *conduit.Engine
	Store    ports.ReportStore
	Manager  *analysis.Manager
	Registry *prometheus.Registry

	dir     string
	loader  ports.ContractLoader
	closers []func() error
}

// NewApp reads the config file, applies overrides and builds the engine,
// report store and analysis manager.
func NewApp(opts Options) (*App, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(opts.Dir, config.DefaultPath)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.MaxSteps != nil {
		cfg.MaxSteps = *opts.MaxSteps
	}
	if opts.Store != "" {
		cfg.Store.Driver = opts.Store
	}
	if opts.Debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWriter(os.Stderr, level, format)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		dir:      opts.Dir,
		loader:   opts.Loader,
	}
	metrics := observability.NewMetrics(a.Registry)

	a.Engine, err = conduit.New(
		conduit.WithLogger(logger),
		conduit.WithStepLimit(cfg.MaxSteps),
		conduit.WithStackLimit(cfg.MaxStacks),
		conduit.WithEnv(&cfg.Env),
		conduit.WithGraphCache(cfg.CacheSize),
		conduit.WithLifecycleHooks(metrics.Hooks()),
		conduit.WithLifecycleHooks(observability.LogHooks(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	mgrOpts := []analysis.Option{analysis.WithLogger(logger)}
	switch cfg.Store.Driver {
	case "redis":
		rc := cfg.Store.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB,
			redis.WithPrefix(rc.Prefix+"report:"),
			redis.WithTTL(rc.TTL),
		)
		a.Store = store
		a.closers = append(a.closers, store.Close)
		mgrOpts = append(mgrOpts, analysis.WithLocker(redis.NewLocker(store.Client(), rc.Prefix)))
	default:
		a.Store = memory.NewStore()
	}

	a.Store, err = secure(a.Store, cfg.Store)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Manager = analysis.NewManager(a.Engine, a.Store, mgrOpts...)
	return a, nil
}

// secure wraps the store with the configured redaction and encryption
// layers. Redaction runs first so masked text is what gets encrypted.
func secure(store ports.ReportStore, cfg config.StoreConfig) (ports.ReportStore, error) {
	if cfg.EncryptionKey != "" {
		key, err := config.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		var fallbacks [][]byte
		for _, k := range cfg.FallbackKeys {
			fk, err := config.DecodeKey(k)
			if err != nil {
				return nil, err
			}
			fallbacks = append(fallbacks, fk)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key, FallbackKeys: fallbacks})
		if err != nil {
			return nil, err
		}
		store = mw(store)
	}
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		store = mw(store)
	}
	return store, nil
}

// Close releases store connections.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.Logger.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

// Loader returns the contract source, opening the Loam repository in Dir on
// first use.
func (a *App) Loader() (ports.ContractLoader, error) {
	if a.loader != nil {
		return a.loader, nil
	}
	l, err := loam.Open(a.dir)
	if err != nil {
		return nil, err
	}
	a.loader = l
	return l, nil
}

// Contracts resolves each argument as a file path first and as a contract
// ID otherwise. No arguments means every contract the loader knows.
func (a *App) Contracts(ctx context.Context, args []string) ([]*domain.Contract, error) {
	if len(args) == 0 {
		l, err := a.Loader()
		if err != nil {
			return nil, err
		}
		if args, err = l.ListContracts(ctx); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("no contracts found in %s", a.dir)
		}
	}

	out := make([]*domain.Contract, 0, len(args))
	for _, arg := range args {
		data, err := os.ReadFile(arg)
		name := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		if errors.Is(err, os.ErrNotExist) {
			l, lerr := a.Loader()
			if lerr != nil {
				return nil, lerr
			}
			data, err = l.GetContract(ctx, arg)
			name = arg
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}

		c, err := a.Engine.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if c.Name == "" {
			c.Name = name
		}
		out = append(out, c)
	}
	return out, nil
}

// Analyze runs every contract. The memory driver goes straight to the
// engine since nothing outlives the process; other drivers go through the
// manager so reports are shared and cached.
func (a *App) Analyze(ctx context.Context, contracts []*domain.Contract, concurrency int) ([]*domain.Report, error) {
	if a.Config.Store.Driver != "redis" {
		return a.Engine.AnalyzeAll(ctx, contracts, concurrency)
	}

	reports := make([]*domain.Report, len(contracts))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, c := range contracts {
		g.Go(func() error {
			r, cached, err := a.Manager.Analyze(ctx, c)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			a.Logger.Debug("report ready", "contract", c.Name, "cached", cached)
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
