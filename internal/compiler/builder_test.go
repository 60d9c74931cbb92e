package compiler_test

import (
	"testing"

	"github.com/aretw0/conduit/internal/compiler"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SimpleBranch(t *testing.T) {
	code := dsl.New().
		PushInt(1).PushInt(2).Prim("COMPARE").Prim("EQ").
		If(func(b *dsl.Builder) {
			b.PushString("A")
		}, func(b *dsl.Builder) {
			b.PushString("B")
		}).
		Build()

	g := compiler.Build(code)

	root, err := g.Node(g.Root)
	require.NoError(t, err)
	assert.Equal(t, domain.KindTube, root.Kind)
	assert.Equal(t, []string{"PUSH", "PUSH", "COMPARE", "EQ"}, prims(root.Code))

	joint, err := g.Node(root.Next)
	require.NoError(t, err)
	assert.Equal(t, domain.KindJoint, joint.Kind)
	assert.Equal(t, domain.JointIf, joint.Joint)
	require.Len(t, joint.Edges, 2)

	left, _ := g.Node(joint.Edges[0])
	right, _ := g.Node(joint.Edges[1])
	assert.Equal(t, `PUSH string "A"`, left.Code[0].String())
	assert.Equal(t, `PUSH string "B"`, right.Code[0].String())
	assert.Equal(t, domain.TerminalID, left.Next)
	assert.Equal(t, left.Next, right.Next, "both arms must share one continuation")

	terminal, _ := g.Node(domain.TerminalID)
	assert.Empty(t, terminal.Code)
	assert.Equal(t, domain.NoNode, terminal.Next)
}

func TestBuild_ContinuationIsSharedNotCopied(t *testing.T) {
	code := dsl.New().
		If(func(b *dsl.Builder) {
			b.If(func(b *dsl.Builder) { b.Prim("UNIT") }, nil)
		}, nil).
		Prim("DROP").
		Prim("UNIT").
		Build()

	g := compiler.Build(code)

	var tail []domain.Node
	for _, n := range g.Nodes {
		if n.Kind == domain.KindTube && len(n.Code) == 2 && n.Code[0].Prim == "DROP" {
			tail = append(tail, n)
		}
	}
	require.Len(t, tail, 1, "the code after the outer joint must be compiled exactly once")

	// Every path eventually reaches the single tail tube.
	outer, _ := g.Node(g.Nodes[g.Root].Next)
	inner, _ := g.Node(g.Nodes[outer.Edges[0]].Next)
	assert.Equal(t, domain.KindJoint, inner.Kind)
	join := g.Nodes[inner.Edges[0]].Next
	assert.Equal(t, join, g.Nodes[inner.Edges[1]].Next, "inner arms re-converge on one node")
	assert.Equal(t, tail[0].ID, g.Nodes[join].Next)
	assert.Equal(t, tail[0].ID, g.Nodes[outer.Edges[1]].Next)
}

func TestBuild_IDsFollowConstructionOrder(t *testing.T) {
	code := dsl.New().
		IfLeft(func(b *dsl.Builder) { b.Prim("DROP") }, func(b *dsl.Builder) {
			b.IfNone(nil, func(b *dsl.Builder) { b.Prim("DROP") })
		}).
		Prim("UNIT").
		Build()

	g := compiler.Build(code)
	for i, n := range g.Nodes {
		assert.Equal(t, i, n.ID)
	}

	root := g.Nodes[g.Root]
	joint := g.Nodes[root.Next]
	assert.Equal(t, g.Root+1, root.Next, "the joint is allocated right after its tube")
	for _, e := range joint.Edges {
		assert.Greater(t, e, root.Next, "branches are built after their joint")
	}
	unit := g.Nodes[joint.Edges[0]].Next
	assert.Less(t, unit, g.Root, "the continuation is built before the tube that leads to it")
}

func TestBuild_EmptyCode(t *testing.T) {
	g := compiler.Build(nil)
	assert.Equal(t, domain.TerminalID, g.Root)
	assert.Equal(t, 1, g.Len())
}

func TestBuild_LoopBackEdges(t *testing.T) {
	code := dsl.New().
		Loop(func(b *dsl.Builder) { b.Prim("SWAP") }).
		Prim("UNIT").
		Build()

	g := compiler.Build(code)
	jointID := g.Nodes[g.Root].Next
	joint := g.Nodes[jointID]
	require.Equal(t, domain.JointLoop, joint.Joint)

	body := g.Nodes[joint.Edges[0]]
	assert.Equal(t, "SWAP", body.Code[0].Prim)
	assert.Equal(t, jointID, body.Next, "the loop body re-enters the joint")

	exit := g.Nodes[joint.Edges[1]]
	assert.Equal(t, "UNIT", exit.Code[0].Prim)
}

func TestBuild_IterRestoresCursorBeforeReentry(t *testing.T) {
	code := dsl.New().
		Iter(func(b *dsl.Builder) { b.Prim("DROP") }).
		Build()

	g := compiler.Build(code)
	jointID := g.Nodes[g.Root].Next
	joint := g.Nodes[jointID]
	require.Equal(t, domain.JointIter, joint.Joint)

	body := g.Nodes[joint.Edges[0]]
	restore := g.Nodes[body.Next]
	require.Len(t, restore.Code, 1)
	assert.Equal(t, "CURSOR -1", restore.Code[0].String())
	assert.Equal(t, jointID, restore.Next)
	assert.Equal(t, domain.TerminalID, joint.Edges[1])
}

func TestBuild_DipInsideBranch(t *testing.T) {
	code := dsl.New().
		If(func(b *dsl.Builder) {
			b.Dip(func(b *dsl.Builder) { b.Prim("DROP") })
		}, nil).
		Build()

	g := compiler.Build(code)
	joint := g.Nodes[g.Nodes[g.Root].Next]
	arm := g.Nodes[joint.Edges[0]]
	assert.Equal(t, []string{"CURSOR 1", "DROP", "CURSOR -1"}, prims(arm.Code))
}
