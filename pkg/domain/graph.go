package domain

import "fmt"

// NoNode marks an absent continuation: a path that reaches it has finished.
const NoNode = -1

// TerminalID is the canonical empty tube every top-level path ends in.
const TerminalID = 0

// NodeKind distinguishes straight-line tubes from branching joints.
type NodeKind uint8

const (
	KindTube NodeKind = iota
	KindJoint
)

func (k NodeKind) String() string {
	if k == KindJoint {
		return "joint"
	}
	return "tube"
}

// Node is one vertex of the control-flow graph. Tubes carry Code and Next;
// joints carry Joint (the branching instruction) and Edges.
type Node struct {
	ID    int           `json:"id"`
	Kind  NodeKind      `json:"kind"`
	Code  []Instruction `json:"code,omitempty"`
	Next  int           `json:"next"`
	Joint string        `json:"joint,omitempty"`
	Edges []int         `json:"edges,omitempty"`
}

// Successors returns the node IDs reachable in one step, absent ones excluded.
func (n Node) Successors() []int {
	if n.Kind == KindJoint {
		return n.Edges
	}
	if n.Next == NoNode {
		return nil
	}
	return []int{n.Next}
}

// Graph is an arena of nodes; a node's ID is its index in Nodes.
// Graphs are immutable once built and may be shared by many valves.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Root  int    `json:"root"`
}

// Node returns the node with the given ID.
func (g *Graph) Node(id int) (Node, error) {
	if id < 0 || id >= len(g.Nodes) {
		return Node{}, fmt.Errorf("node %d not in graph of %d nodes", id, len(g.Nodes))
	}
	return g.Nodes[id], nil
}

// Len returns the number of allocated nodes, the terminal included.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Reachable returns the IDs reachable from the root in breadth-first order.
func (g *Graph) Reachable() []int {
	seen := make(map[int]bool)
	queue := []int{g.Root}
	var out []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] || id < 0 || id >= len(g.Nodes) {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue, g.Nodes[id].Successors()...)
	}
	return out
}
