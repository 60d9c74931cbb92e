package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/conduit/pkg/domain"
)

// Table reports whether an instruction has semantics.
type Table interface {
	Supports(name string) bool
}

// ValidateGraph crawls the graph breadth-first from the root and reports
// dangling edges, joints with the wrong number of edges, instructions the
// table does not know, and cursor markers that do not balance.
func ValidateGraph(g *domain.Graph, table Table) error {
	if _, err := g.Node(g.Root); err != nil {
		return fmt.Errorf("%w: root: %w", domain.ErrInvalidGraph, err)
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	// depth is the cursor value a stack carries when it enters a node
	depth := map[int]int{g.Root: 0}
	queue := []int{g.Root}
	visited := make(map[int]bool)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		n := g.Nodes[id]
		in := depth[id]

		var succ []int
		var out []int
		switch n.Kind {
		case domain.KindTube:
			d := in
			for _, instr := range n.Code {
				if !table.Supports(instr.Prim) {
					report("node %d: unsupported instruction %s", id, instr.Prim)
				}
				if instr.Prim == domain.PrimCursor {
					d += instr.IntArg(0, 0)
					if d < 0 {
						report("node %d: cursor drops below zero", id)
					}
				}
			}
			if n.Next == domain.NoNode {
				if d != 0 {
					report("node %d: path ends with cursor %d", id, d)
				}
				break
			}
			succ, out = []int{n.Next}, []int{d}
		case domain.KindJoint:
			if !table.Supports(n.Joint) {
				report("node %d: unsupported joint %s", id, n.Joint)
			}
			if len(n.Edges) != 2 {
				report("node %d: %s has %d edges, want 2", id, n.Joint, len(n.Edges))
			}
			for i, e := range n.Edges {
				d := in
				// the ITER continue edge hides the remaining container
				if n.Joint == domain.JointIter && i == 0 {
					d++
				}
				succ = append(succ, e)
				out = append(out, d)
			}
		}

		for i, next := range succ {
			if next < 0 || next >= len(g.Nodes) {
				report("node %d: edge to missing node %d", id, next)
				continue
			}
			if prev, seen := depth[next]; seen && prev != out[i] {
				report("node %d: reached with cursor %d and %d", next, prev, out[i])
				continue
			}
			depth[next] = out[i]
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrInvalidGraph, len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
