package conduit_test

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/dsl"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contract(name string, code []domain.Instruction) *domain.Contract {
	return &domain.Contract{
		Name:      name,
		Parameter: domain.TypeUnit,
		Storage:   domain.TypeInt,
		Code:      code,
	}
}

func TestEngine_AnalyzeReport(t *testing.T) {
	eng, err := conduit.New()
	require.NoError(t, err)

	c, err := eng.Parse([]byte(tipJar))
	require.NoError(t, err)

	report, err := eng.Analyze(context.Background(), c)
	require.NoError(t, err)

	assert.Len(t, report.ID, 32)
	assert.False(t, report.Truncated)
	require.Len(t, report.Terminals, 1, spew.Sdump(report))
	require.Len(t, report.Failures, 1, spew.Sdump(report))

	term := report.Terminals[0]
	assert.Equal(t, domain.TerminalID, term.Node)
	assert.Equal(t, []string{"({}, storage:int)"}, term.Stack)

	fail := report.Failures[0]
	assert.Equal(t, fail.Node, fail.Path[len(fail.Path)-1], "a failure is recorded at the tube that failed")
	assert.Equal(t, 1, report.Visits[fail.Node])
}

func TestEngine_EnvOverrides(t *testing.T) {
	eng, err := conduit.New(conduit.WithEnv(&domain.Env{Sender: "tz1bob"}))
	require.NoError(t, err)

	report, err := eng.Analyze(context.Background(), contract("sender", dsl.New().Prim("DROP").Prim("SENDER").Build()))
	require.NoError(t, err)
	require.Len(t, report.Terminals, 1)
	assert.Equal(t, "tz1bob", report.Terminals[0].Top)
	assert.Equal(t, "AMOUNT", eng.Env().Amount)
}

func TestEngine_StackLimitTruncatesBranchingLoops(t *testing.T) {
	eng, err := conduit.New(conduit.WithStackLimit(2000))
	require.NoError(t, err)

	c := &domain.Contract{
		Name:      "fanout",
		Parameter: domain.TypeUnit,
		Storage:   domain.NewType("list", domain.TypeBool),
		Code: dsl.New().
			Prim("CDR").
			Iter(func(b *dsl.Builder) { b.If(nil, nil) }).
			Build(),
	}

	report, err := eng.Analyze(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Less(t, report.Steps, conduit.DefaultStepLimit, "the stack budget ends the run before the step limit")

	recorded := 0
	for _, n := range report.Visits {
		recorded += n
	}
	assert.LessOrEqual(t, recorded, 2000)
	assert.LessOrEqual(t, len(report.Terminals), 2000)
}

func TestEngine_StepLimitTruncates(t *testing.T) {
	eng, err := conduit.New(conduit.WithStepLimit(8))
	require.NoError(t, err)

	code := dsl.New().
		Prim("DROP").
		PushInt(1).PushInt(1).Prim("COMPARE").Prim("EQ").
		Loop(func(b *dsl.Builder) {
			b.PushInt(1).PushInt(1).Prim("COMPARE").Prim("EQ")
		}).
		Build()

	report, err := eng.Analyze(context.Background(), contract("spin", code))
	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Equal(t, 8, report.Steps)

	report, err = eng.AnalyzeLimit(context.Background(), contract("spin", code), 3)
	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Equal(t, 3, report.Steps)
}

func TestEngine_EngineDefectsAreErrors(t *testing.T) {
	eng, err := conduit.New()
	require.NoError(t, err)

	_, err = eng.Analyze(context.Background(), contract("bad", dsl.New().Prim("DROP").Prim("DROP").Build()))
	assert.ErrorIs(t, err, domain.ErrStackUnderflow)

	_, err = eng.Analyze(context.Background(), contract("unknown", dsl.New().Prim("TICKET").Build()))
	assert.Error(t, err, "unknown instructions are caught by validation")
}

func TestEngine_CompileCache(t *testing.T) {
	eng, err := conduit.New(conduit.WithGraphCache(4))
	require.NoError(t, err)

	code := dsl.New().PushInt(1).Build()
	assert.Same(t, eng.Compile(code), eng.Compile(dsl.New().PushInt(1).Build()))
	assert.NotSame(t, eng.Compile(code), eng.Compile(dsl.New().PushInt(2).Build()))

	plain, err := conduit.New()
	require.NoError(t, err)
	assert.NotSame(t, plain.Compile(code), plain.Compile(code))
}

func TestEngine_AnalyzeAll(t *testing.T) {
	var finished atomic.Int64
	eng, err := conduit.New(conduit.WithLifecycleHooks(domain.LifecycleHooks{
		OnPathFinished: func(context.Context, *domain.PathEvent) { finished.Add(1) },
	}))
	require.NoError(t, err)

	var contracts []*domain.Contract
	for i := range 6 {
		contracts = append(contracts, contract("c", dsl.New().Prim("DROP").PushInt(int64(i)).Build()))
	}

	reports, err := eng.AnalyzeAll(context.Background(), contracts, 2)
	require.NoError(t, err)
	require.Len(t, reports, 6)
	for i, r := range reports {
		require.Len(t, r.Terminals, 1)
		assert.Equal(t, strconv.Itoa(i), r.Terminals[0].Top, "reports keep input order")
	}
	assert.Equal(t, int64(6), finished.Load())

	contracts = append(contracts, contract("bad", dsl.New().Prim("SWAP").Build()))
	_, err = eng.AnalyzeAll(context.Background(), contracts, 0)
	assert.ErrorIs(t, err, domain.ErrStackUnderflow)
}
