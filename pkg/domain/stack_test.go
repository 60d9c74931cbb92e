package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(s string) *Item {
	return LiteralItem(TypeString, s)
}

func TestStack_PushPopRespectCursor(t *testing.T) {
	a, b, c := lit("a"), lit("b"), lit("c")
	s := NewStack(nil, a, b, c)

	require.NoError(t, s.Shift(1))
	assert.Equal(t, 2, s.Depth())

	top, err := s.Top()
	require.NoError(t, err)
	assert.Same(t, b, top, "protected item must be skipped")

	d := lit("d")
	s.Push(d)
	assert.Equal(t, []*Item{a, d, b, c}, s.Items)

	popped, err := s.Pop(2)
	require.NoError(t, err)
	assert.Equal(t, []*Item{d, b}, popped)
	assert.Equal(t, []*Item{a, c}, s.Items)
}

func TestStack_Underflow(t *testing.T) {
	s := NewStack(nil, lit("a"))

	_, err := s.Peek(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackUnderflow))

	var uerr *StackUnderflowError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 3, uerr.Index)
	assert.Equal(t, 1, uerr.Depth)

	_, err = s.Pop(2)
	assert.ErrorIs(t, err, ErrStackUnderflow)

	assert.ErrorIs(t, s.Shift(-1), ErrStackUnderflow)
	assert.ErrorIs(t, s.Shift(2), ErrStackUnderflow)
	assert.Equal(t, 0, s.Cursor, "failed shift must not move the cursor")
}

func TestStack_PushAtAndReplace(t *testing.T) {
	a, b := lit("a"), lit("b")
	s := NewStack(nil, a, b)

	x := lit("x")
	require.NoError(t, s.PushAt(2, x))
	assert.Equal(t, []*Item{a, b, x}, s.Items)
	assert.Error(t, s.PushAt(5, x))

	y := lit("y")
	require.NoError(t, s.Replace(1, y))
	assert.Equal(t, []*Item{a, y, x}, s.Items)

	got, err := s.PopAt(1)
	require.NoError(t, err)
	assert.Same(t, y, got)
	assert.Equal(t, []*Item{a, x}, s.Items)
}

func TestStack_FailIsPoison(t *testing.T) {
	s := NewStack(nil, lit("a"), lit("b"))
	require.NoError(t, s.Shift(1))
	assert.False(t, s.IsFailed())

	s.Fail(lit("boom"))
	assert.True(t, s.IsFailed())
	assert.Equal(t, 0, s.Cursor)
	require.Len(t, s.Items, 1)
	assert.Equal(t, `FAIL("boom")`, s.Items[0].String())
}

func TestStack_CloneSharesEnvAndAttached(t *testing.T) {
	attached := &struct{ n int }{n: 1}
	s := NewStack(nil, lit("a"))
	s.Attached = attached
	s.Visit(1)

	cp := s.Clone()
	cp.Push(lit("b"))
	cp.Visit(2)
	require.NoError(t, cp.Shift(1))

	assert.Len(t, s.Items, 1, "clone must not alias items")
	assert.Equal(t, []int{1}, s.Path, "clone must not alias path")
	assert.Equal(t, 0, s.Cursor)

	assert.Same(t, s.Env, cp.Env)
	assert.Same(t, attached, cp.Attached)
	attached.n = 2
	assert.Equal(t, 2, cp.Attached.(*struct{ n int }).n)
}

func TestEnv_Merge(t *testing.T) {
	base := DefaultEnv()
	merged := base.Merge(&Env{Sender: "tz1alice"})

	assert.Equal(t, "tz1alice", merged.Sender)
	assert.Equal(t, "AMOUNT", merged.Amount)
	assert.Equal(t, "SENDER", base.Sender, "merge must not modify the receiver")
}
