package domain

import "time"

// PathResult summarizes one path that left the frontier.
type PathResult struct {
	Path []int  `json:"path"`
	Node int    `json:"node"`
	Top  string `json:"top,omitempty"`
	// Stack renders every visible item, top first.
	Stack []string `json:"stack,omitempty"`
}

// Report is the persisted outcome of analysing one contract.
type Report struct {
	ID        string       `json:"id"`
	Contract  string       `json:"contract,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Nodes     int          `json:"nodes"`
	Steps     int          `json:"steps"`
	Truncated bool         `json:"truncated,omitempty"`
	Terminals []PathResult `json:"terminals"`
	Failures  []PathResult `json:"failures"`
	// Visits counts memoised stacks per node ID.
	Visits map[int]int `json:"visits,omitempty"`

	// Sealed is set only on envelopes written by an encrypting store and
	// holds the whole report as ciphertext.
	Sealed string `json:"sealed,omitempty"`
}

// NewPathResult captures a stack's trail and rendered contents.
func NewPathResult(node int, s *Stack) PathResult {
	r := PathResult{Node: node, Path: append([]int(nil), s.Path...)}
	for i, it := range s.Items {
		if i < s.Cursor {
			continue
		}
		r.Stack = append(r.Stack, it.Reduce().String())
	}
	if len(s.Items) > 0 {
		r.Top = s.Items[0].Reduce().String()
	}
	return r
}
