package analysis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/internal/compiler"
	"github.com/aretw0/conduit/pkg/adapters/memory"
	"github.com/aretw0/conduit/pkg/analysis"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/dsl"
	"github.com/aretw0/conduit/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowAnalyzer simulates a long valve run and counts invocations.
type slowAnalyzer struct {
	calls     atomic.Int64
	truncated bool
	err       error
}

func (a *slowAnalyzer) Analyze(_ context.Context, c *domain.Contract) (*domain.Report, error) {
	a.calls.Add(1)
	time.Sleep(10 * time.Millisecond)
	if a.err != nil {
		return nil, a.err
	}
	return &domain.Report{ID: a.ReportID(c), Contract: c.Name, Truncated: a.truncated}, nil
}

func (a *slowAnalyzer) ReportID(c *domain.Contract) string {
	return compiler.ReportFingerprint(c, nil)
}

func sample(n int64) *domain.Contract {
	return &domain.Contract{
		Name:      "sample",
		Parameter: domain.TypeUnit,
		Storage:   domain.TypeInt,
		Code:      dsl.New().Prim("DROP").PushInt(n).Build(),
	}
}

func TestManager_AnalyzeOnce(t *testing.T) {
	analyzer := &slowAnalyzer{}
	mgr := analysis.NewManager(analyzer, memory.NewStore())
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		hits   atomic.Int64
		misses atomic.Int64
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, cached, err := mgr.Analyze(ctx, sample(1))
			assert.NoError(t, err)
			assert.NotNil(t, report)
			if cached {
				hits.Add(1)
			} else {
				misses.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), analyzer.calls.Load(), "concurrent requests for one contract run the engine once")
	assert.Equal(t, int64(1), misses.Load())
	assert.Equal(t, int64(7), hits.Load())

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{mgr.ID(sample(1))}, ids)
}

func TestManager_TruncatedReportsAreNotStored(t *testing.T) {
	analyzer := &slowAnalyzer{truncated: true}
	mgr := analysis.NewManager(analyzer, memory.NewStore())
	ctx := context.Background()

	for range 2 {
		_, cached, err := mgr.Analyze(ctx, sample(2))
		require.NoError(t, err)
		assert.False(t, cached)
	}
	assert.Equal(t, int64(2), analyzer.calls.Load())
}

func TestManager_AnalyzerErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	mgr := analysis.NewManager(&slowAnalyzer{err: boom}, memory.NewStore())

	_, _, err := mgr.Analyze(context.Background(), sample(3))
	assert.ErrorIs(t, err, boom)
}

func TestManager_LoadAndDelete(t *testing.T) {
	eng, err := conduit.New()
	require.NoError(t, err)
	mgr := analysis.NewManager(eng, memory.NewStore())
	ctx := context.Background()

	report, _, err := mgr.Analyze(ctx, sample(4))
	require.NoError(t, err)
	require.Len(t, report.Terminals, 1)
	assert.Equal(t, "4", report.Terminals[0].Top)

	loaded, err := mgr.Load(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Terminals, loaded.Terminals)

	require.NoError(t, mgr.Delete(ctx, report.ID))
	_, err = mgr.Load(ctx, report.ID)
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}

func TestManager_ReportsAreKeyedByTypes(t *testing.T) {
	eng, err := conduit.New()
	require.NoError(t, err)
	mgr := analysis.NewManager(eng, memory.NewStore())
	ctx := context.Background()

	code := dsl.New().Prim("CDR").Build()
	a := &domain.Contract{Name: "a", Parameter: domain.TypeUnit, Storage: domain.TypeInt, Code: code}
	b := &domain.Contract{Name: "b", Parameter: domain.TypeUnit, Storage: domain.TypeBytes, Code: code}

	first, cached, err := mgr.Analyze(ctx, a)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, first.Terminals, 1)
	assert.Equal(t, "storage:int", first.Terminals[0].Top)

	second, cached, err := mgr.Analyze(ctx, b)
	require.NoError(t, err)
	assert.False(t, cached, "same code over other storage is a different report")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "b", second.Contract)
	require.Len(t, second.Terminals, 1)
	assert.Equal(t, "storage:bytes", second.Terminals[0].Top)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

type countingLocker struct {
	locks, unlocks atomic.Int64
	fail           bool
}

func (l *countingLocker) Lock(_ context.Context, _ string, _ time.Duration) (ports.UnlockFunc, error) {
	if l.fail {
		return nil, errors.New("lock busy")
	}
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	mgr := analysis.NewManager(&slowAnalyzer{}, memory.NewStore(), analysis.WithLocker(locker))
	ctx := context.Background()

	_, _, err := mgr.Analyze(ctx, sample(5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), locker.locks.Load())
	assert.Equal(t, int64(1), locker.unlocks.Load())

	locker.fail = true
	_, _, err = mgr.Analyze(ctx, sample(6))
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}
