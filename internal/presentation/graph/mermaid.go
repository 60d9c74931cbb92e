package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/conduit/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []int
	// CurrentNode is highlighted on top of the visited style; domain.NoNode for none.
	CurrentNode int
}

// NewOverlay highlights a path, marking its last node as current.
func NewOverlay(path []int) *GraphOverlay {
	o := &GraphOverlay{VisitedNodes: path, CurrentNode: domain.NoNode}
	if len(path) > 0 {
		o.CurrentNode = path[len(path)-1]
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of every node reachable from
// the root. It applies semantic styling:
// - Terminal: ((Circle))
// - Joint: {Rhombus}, with labelled edges
// - Tube: [Rectangle] listing its code
// Loop back edges are drawn dotted.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	reachable := g.Reachable()
	drawn := make(map[int]bool, len(reachable))
	for _, id := range reachable {
		drawn[id] = true
	}

	for _, id := range reachable {
		node := g.Nodes[id]
		safeID := mermaidID(id)

		switch {
		case id == domain.TerminalID && len(node.Code) == 0:
			fmt.Fprintf(&sb, "    %s((\"end\"))\n", safeID)
		case node.Kind == domain.KindJoint:
			fmt.Fprintf(&sb, "    %s{\"%d: %s\"}\n", safeID, id, node.Joint)
		default:
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", safeID, tubeLabel(node))
		}

		if node.Kind == domain.KindJoint {
			labels := domain.EdgeLabels[node.Joint]
			for i, to := range node.Edges {
				label := ""
				if i < len(labels) {
					label = labels[i]
				}
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, mermaidID(to))
			}
			continue
		}
		if node.Next == domain.NoNode {
			continue
		}
		arrow := "-->"
		if next, err := g.Node(node.Next); err == nil && next.Kind == domain.KindJoint && domain.IsLoop(next.Joint) && node.Next < id {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, mermaidID(node.Next))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// black text keeps contrast on light fills in both themes
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, id := range overlay.VisitedNodes {
			if seen[id] || !drawn[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", mermaidID(id))
		}
		if drawn[overlay.CurrentNode] {
			fmt.Fprintf(&sb, "    class %s current;\n", mermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func tubeLabel(n domain.Node) string {
	lines := []string{fmt.Sprintf("%d", n.ID)}
	for _, in := range n.Code {
		lines = append(lines, escape(in.String()))
	}
	return strings.Join(lines, "<br/>")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func mermaidID(id int) string {
	return fmt.Sprintf("n%d", id)
}
