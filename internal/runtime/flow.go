package runtime

import (
	"fmt"

	"github.com/aretw0/conduit/pkg/domain"
)

// Cursor is one in-flight path: the node a stack is about to enter. A
// cursor whose Node is domain.NoNode has finished.
type Cursor struct {
	Node  int
	Stack *domain.Stack
}

// Flow runs one node on a clone of c.Stack and returns the successor cursors.
// The input stack is never modified.
func Flow(g *domain.Graph, sem *Semantics, c Cursor) ([]Cursor, error) {
	n, err := g.Node(c.Node)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case domain.KindTube:
		st, err := flowTube(sem, n, c.Stack)
		if err != nil {
			return nil, err
		}
		return []Cursor{{Node: n.Next, Stack: st}}, nil
	case domain.KindJoint:
		return flowJoint(sem, n, c.Stack)
	}
	return nil, fmt.Errorf("node %d: unknown kind %v", n.ID, n.Kind)
}

func flowTube(sem *Semantics, n domain.Node, in *domain.Stack) (*domain.Stack, error) {
	st := in.Clone()
	for _, instr := range n.Code {
		// a failed stack is poison: nothing after FAILWITH runs
		if st.IsFailed() {
			break
		}
		if err := sem.Apply(st, instr); err != nil {
			return nil, fmt.Errorf("node %d: %s: %w", n.ID, instr, err)
		}
	}
	st.Visit(n.ID)
	return st, nil
}

func flowJoint(sem *Semantics, n domain.Node, in *domain.Stack) ([]Cursor, error) {
	stacks, err := sem.Branch(n.Joint, in.Clone())
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", n.ID, err)
	}
	if len(stacks) != len(n.Edges) {
		return nil, fmt.Errorf("node %d: %s produced %d stacks for %d edges", n.ID, n.Joint, len(stacks), len(n.Edges))
	}
	out := make([]Cursor, len(stacks))
	for i, st := range stacks {
		out[i] = Cursor{Node: n.Edges[i], Stack: st}
	}
	return out, nil
}
