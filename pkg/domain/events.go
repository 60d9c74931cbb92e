package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter    EventType = "node_enter"
	EventNodeLeave    EventType = "node_leave"
	EventPathFinished EventType = "path_finished"
	EventPathFailed   EventType = "path_failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	// AnalysisID correlates events of one valve run (usually the contract ID).
	AnalysisID string `json:"analysis_id,omitempty"`
}

// NodeEvent represents a stack flowing into or out of a graph node.
type NodeEvent struct {
	EventBase
	NodeID   int    `json:"node_id"`
	NodeKind string `json:"node_kind"`
	Joint    string `json:"joint,omitempty"`
	// Outputs is the number of stacks produced (leave events only).
	Outputs int `json:"outputs,omitempty"`
}

// PathEvent represents a path leaving the frontier for good.
type PathEvent struct {
	EventBase
	Path []int  `json:"path"`
	Top  string `json:"top,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnNodeLeave    func(context.Context, *NodeEvent)
	OnPathFinished func(context.Context, *PathEvent)
	OnPathFailed   func(context.Context, *PathEvent)
}

// Merge returns hooks that call h first and then o, for every callback either defines.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:    chain(h.OnNodeEnter, o.OnNodeEnter),
		OnNodeLeave:    chain(h.OnNodeLeave, o.OnNodeLeave),
		OnPathFinished: chain(h.OnPathFinished, o.OnPathFinished),
		OnPathFailed:   chain(h.OnPathFailed, o.OnPathFailed),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
