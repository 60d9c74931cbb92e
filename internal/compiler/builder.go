package compiler

import (
	"slices"

	"github.com/aretw0/conduit/pkg/domain"
)

// builder owns the node arena while a graph is under construction.
// The next free ID is always len(nodes), so IDs follow allocation order.
type builder struct {
	nodes []domain.Node
}

// Build compiles a (possibly nested) instruction list into a graph of tubes
// and joints. Node 0 is always the canonical empty terminal tube.
func Build(code []domain.Instruction) *domain.Graph {
	b := &builder{
		nodes: []domain.Node{{ID: domain.TerminalID, Kind: domain.KindTube, Next: domain.NoNode}},
	}
	root := b.walk(Flatten(code), domain.NoNode)
	return &domain.Graph{Nodes: b.nodes, Root: root}
}

func (b *builder) alloc() int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, domain.Node{ID: id, Next: domain.NoNode})
	return id
}

// walk buffers straight-line instructions until the first joint, then emits
// Tube(buffer) -> Joint(branches). Everything after the joint is compiled once
// into `remaining`, which every branch continues into.
func (b *builder) walk(flat []domain.Instruction, last int) int {
	for i, in := range flat {
		if !domain.IsJoint(in.Prim) {
			continue
		}

		remaining := b.walk(flat[i+1:], last)
		tube := b.alloc()
		joint := b.alloc()
		edges := b.branches(in, joint, remaining)

		b.nodes[joint] = domain.Node{ID: joint, Kind: domain.KindJoint, Joint: in.Prim, Edges: edges, Next: domain.NoNode}
		b.nodes[tube] = domain.Node{ID: tube, Kind: domain.KindTube, Code: slices.Clone(flat[:i]), Next: joint}
		return tube
	}

	if len(flat) == 0 && last == domain.NoNode {
		return domain.TerminalID
	}
	id := b.alloc()
	b.nodes[id] = domain.Node{ID: id, Kind: domain.KindTube, Code: slices.Clone(flat), Next: last}
	return id
}

// branches builds the two outgoing edges of a joint. Conditionals route
// both arms into remaining; loops route the body back into the joint and
// exit into remaining.
func (b *builder) branches(in domain.Instruction, joint, remaining int) []int {
	codes := in.CodeArgs()
	arm := func(k, cont int) int {
		if k >= len(codes) {
			return cont
		}
		return b.walk(Flatten(codes[k]), cont)
	}

	if !domain.IsLoop(in.Prim) {
		return []int{arm(0, remaining), arm(1, remaining)}
	}

	back := joint
	if in.Prim == domain.JointIter {
		// ITER hides the rest of the container under one protected slot
		// while the body runs; restore it before re-entering the joint.
		back = b.alloc()
		b.nodes[back] = domain.Node{ID: back, Kind: domain.KindTube, Code: []domain.Instruction{Cursor(-1)}, Next: joint}
	}
	return []int{arm(0, back), remaining}
}
