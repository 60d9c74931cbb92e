// Package report renders analysis reports for humans.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/conduit/pkg/domain"
)

// Markdown renders a report as a markdown document: a summary table, then one
// section per outcome listing each path's trail and final stack.
func Markdown(r *domain.Report) string {
	var sb strings.Builder

	title := r.Contract
	if title == "" {
		title = r.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| id | `%s` |\n", r.ID)
	fmt.Fprintf(&sb, "| nodes | %d |\n", r.Nodes)
	fmt.Fprintf(&sb, "| steps | %d |\n", r.Steps)
	fmt.Fprintf(&sb, "| terminals | %d |\n", len(r.Terminals))
	fmt.Fprintf(&sb, "| failures | %d |\n", len(r.Failures))
	if r.Truncated {
		sb.WriteString("\n> **Truncated:** the step limit was reached before every path finished.\n")
	}

	section(&sb, "Terminals", r.Terminals)
	section(&sb, "Failures", r.Failures)

	if len(r.Visits) > 0 {
		sb.WriteString("\n## Visits\n\n| node | stacks |\n|---|---|\n")
		ids := make([]int, 0, len(r.Visits))
		for id := range r.Visits {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			fmt.Fprintf(&sb, "| %d | %d |\n", id, r.Visits[id])
		}
	}
	return sb.String()
}

func section(sb *strings.Builder, title string, paths []domain.PathResult) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n", title)
	for i, p := range paths {
		fmt.Fprintf(sb, "\n### %d. `%s`\n\n", i+1, p.Top)
		fmt.Fprintf(sb, "- path: %s\n", Trail(p.Path))
		fmt.Fprintf(sb, "- node: %d\n", p.Node)
		if len(p.Stack) > 1 {
			sb.WriteString("- stack:\n")
			for _, item := range p.Stack {
				fmt.Fprintf(sb, "  - `%s`\n", item)
			}
		}
	}
}

// Trail formats a node path as "1 → 3 → 0".
func Trail(path []int) string {
	if len(path) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " → ")
}
