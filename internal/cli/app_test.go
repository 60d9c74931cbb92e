package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/conduit/internal/testutils"
	"github.com/aretw0/conduit/pkg/adapters/memory"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/ports"
)

const tipJar = `[
  {"prim": "parameter", "args": [{"prim": "unit"}]},
  {"prim": "storage", "args": [{"prim": "int"}]},
  {"prim": "code", "args": [[
    {"prim": "CDR"},
    {"prim": "PUSH", "args": [{"prim": "mutez"}, {"int": "0"}]},
    {"prim": "AMOUNT"},
    {"prim": "COMPARE"},
    {"prim": "GT"},
    {"prim": "IF", "args": [
      [{"prim": "NIL", "args": [{"prim": "operation"}]}, {"prim": "PAIR"}],
      [{"prim": "PUSH", "args": [{"prim": "string"}, {"string": "no tip"}]}, {"prim": "FAILWITH"}]
    ]}
  ]]}
]`

const echo = `[
  {"prim": "parameter", "args": [{"prim": "int"}]},
  {"prim": "storage", "args": [{"prim": "int"}]},
  {"prim": "code", "args": [[{"prim": "CAR"}, {"prim": "NIL", "args": [{"prim": "operation"}]}, {"prim": "PAIR"}]]}
]`

func newTestApp(t *testing.T, yaml string, opts Options) *App {
	t.Helper()
	opts.Dir = t.TempDir()
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(opts.Dir, "conduit.yaml"), []byte(yaml), 0o644))
	}
	if opts.Loader == nil {
		opts.Loader = memory.NewLoader(map[string]string{"tipjar": tipJar, "echo": echo})
	}
	a, err := NewApp(opts)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewApp_Overrides(t *testing.T) {
	steps := 3
	a := newTestApp(t, "max_steps: 50\nstore: {driver: memory}\n", Options{MaxSteps: &steps, Debug: true})
	assert.Equal(t, 3, a.Config.MaxSteps)
	assert.Equal(t, "debug", a.Config.LogLevel)

	_, err := NewApp(Options{Dir: t.TempDir(), Store: "etcd"})
	assert.Error(t, err)
}

func TestNewApp_InvalidRedactPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conduit.yaml"), []byte("store: {redact: ['(']}\n"), 0o644))
	_, err := NewApp(Options{Dir: dir})
	assert.ErrorContains(t, err, "invalid redact pattern")
}

func TestApp_Contracts(t *testing.T) {
	a := newTestApp(t, "", Options{})
	ctx := context.Background()

	all, err := a.Contracts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "echo", all[0].Name)
	assert.Equal(t, "tipjar", all[1].Name)

	file := filepath.Join(t.TempDir(), "jar.json")
	require.NoError(t, os.WriteFile(file, []byte(tipJar), 0o644))
	byPath, err := a.Contracts(ctx, []string{file})
	require.NoError(t, err)
	assert.Equal(t, "jar", byPath[0].Name, "files are named after their base name")

	_, err = a.Contracts(ctx, []string{"missing"})
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestApp_AnalyzeMemory(t *testing.T) {
	a := newTestApp(t, "", Options{})
	ctx := context.Background()

	contracts, err := a.Contracts(ctx, []string{"tipjar", "echo"})
	require.NoError(t, err)
	reports, err := a.Analyze(ctx, contracts, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Len(t, reports[0].Failures, 1)
	assert.Equal(t, "({}, parameter:int)", reports[1].Terminals[0].Top)

	ids, err := a.Manager.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "the memory driver bypasses the store")
}

func TestApp_AnalyzeRedisEncrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	key := strings.Repeat("0f", 32)
	a := newTestApp(t, "store:\n  driver: redis\n  redis: {addr: "+mr.Addr()+", prefix: 'test:'}\n  encryption_key: "+key+"\n", Options{})
	ctx := context.Background()

	contracts, err := a.Contracts(ctx, []string{"tipjar"})
	require.NoError(t, err)
	reports, err := a.Analyze(ctx, contracts, 1)
	require.NoError(t, err)

	ids, err := a.Manager.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{reports[0].ID}, ids)

	raw, err := mr.Get("test:report:" + reports[0].ID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "no tip", "reports are sealed at rest")

	loaded, err := a.Manager.Load(ctx, reports[0].ID)
	require.NoError(t, err)
	assert.Equal(t, reports[0].Failures, loaded.Failures)
}

type watchLoader struct {
	*memory.Loader
	events chan string
}

func (w *watchLoader) Watch(ctx context.Context) (<-chan string, error) {
	return w.events, nil
}

func TestApp_Watch(t *testing.T) {
	settle = time.Millisecond
	loader := &watchLoader{
		Loader: memory.NewLoader(map[string]string{"echo": echo}),
		events: make(chan string, 1),
	}
	a := newTestApp(t, "", Options{Loader: loader})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shown := make(chan int, 4)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, nil, 1, func(r []*domain.Report) error {
			shown <- len(r)
			return nil
		})
	}()

	select {
	case n := <-shown:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial analysis")
	}

	loader.events <- "echo"
	select {
	case <-shown:
	case <-time.After(2 * time.Second):
		t.Fatal("change did not trigger a re-analysis")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestApp_WatchRequiresWatchableSource(t *testing.T) {
	a := newTestApp(t, "", Options{})
	err := a.Watch(context.Background(), nil, 1, func([]*domain.Report) error { return nil })
	assert.ErrorContains(t, err, "does not support watching")
}

func TestApp_LoamRepository(t *testing.T) {
	dir, _ := testutils.SeedTestRepo(t, map[string]string{
		"jar.json": `{"id": "jar", "name": "Tip jar", "script": ` + tipJar + `}`,
	})
	a, err := NewApp(Options{Dir: dir})
	require.NoError(t, err)
	defer a.Close()

	contracts, err := a.Contracts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "Tip jar", contracts[0].Name)

	_, ok := mustLoader(t, a).(ports.Watchable)
	assert.True(t, ok, "the Loam source supports watch mode")
}

func mustLoader(t *testing.T, a *App) ports.ContractLoader {
	t.Helper()
	l, err := a.Loader()
	require.NoError(t, err)
	return l
}
