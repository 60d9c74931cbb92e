package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/conduit/pkg/domain"
)

// Valve drives every path of a graph forward one node at a time.
//
// The frontier holds the cursors still in flight. Every stack produced by a
// node is appended to that node's memo list. Failed stacks are recorded
// there too but leave the frontier for good, as do stacks whose path has
// no next node.
type Valve struct {
	graph *domain.Graph
	sem   *Semantics

	frontier []Cursor
	finished []Cursor
	failed   []Cursor
	memo     map[int][]*domain.Stack
	recorded int
	steps    int

	// maxStacks bounds recorded; zero means no bound.
	maxStacks int

	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	analysisID string
}

// ValveOption configures a Valve.
type ValveOption func(*Valve)

// WithHooks registers lifecycle callbacks fired as stacks move through nodes.
func WithHooks(h domain.LifecycleHooks) ValveOption {
	return func(v *Valve) {
		v.hooks = h
	}
}

// WithLogger sets the valve's logger.
func WithLogger(l *slog.Logger) ValveOption {
	return func(v *Valve) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithAnalysisID tags emitted events and log lines.
func WithAnalysisID(id string) ValveOption {
	return func(v *Valve) {
		v.analysisID = id
	}
}

// WithMaxStacks bounds the number of stacks the valve records across all
// nodes. A step that would record more aborts with domain.ErrStepLimit.
// A non-positive n means no bound.
func WithMaxStacks(n int) ValveOption {
	return func(v *Valve) {
		v.maxStacks = n
	}
}

// NewValve starts a valve with a single cursor at the graph's root.
func NewValve(g *domain.Graph, sem *Semantics, initial *domain.Stack, opts ...ValveOption) *Valve {
	v := &Valve{
		graph:    g,
		sem:      sem,
		frontier: []Cursor{{Node: g.Root, Stack: initial}},
		memo:     make(map[int][]*domain.Stack),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.analysisID != "" {
		v.logger = v.logger.With("analysis_id", v.analysisID)
	}
	return v
}

// Advance performs one step: every active cursor flows through its node.
// Engine errors (unsupported instructions, underflow), cancellation and an
// exhausted stack budget abort the step and leave the frontier unchanged.
// Hooks fire only for committed steps.
func (v *Valve) Advance(ctx context.Context) error {
	var (
		next     []Cursor
		finished []Cursor
		failed   []Cursor
		produced = make(map[int][]*domain.Stack)
		order    []int
		count    int
		events   []*domain.NodeEvent
	)
	for _, c := range v.frontier {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.Node == domain.NoNode {
			// seeded with an already finished cursor
			finished = append(finished, c)
			continue
		}
		node, err := v.graph.Node(c.Node)
		if err != nil {
			return err
		}

		out, err := Flow(v.graph, v.sem, c)
		if err != nil {
			v.logger.Error("flow failed", "node", c.Node, "err", err)
			return err
		}
		count += len(out)
		if v.maxStacks > 0 && v.recorded+count > v.maxStacks {
			v.logger.Warn("stack budget exhausted",
				"recorded", v.recorded,
				"pending", count,
				"budget", v.maxStacks,
			)
			return fmt.Errorf("%w: stack budget of %d exhausted", domain.ErrStepLimit, v.maxStacks)
		}
		events = append(events,
			v.nodeEvent(domain.EventNodeEnter, node, 0),
			v.nodeEvent(domain.EventNodeLeave, node, len(out)),
		)

		if _, seen := produced[c.Node]; !seen {
			order = append(order, c.Node)
		}
		for _, o := range out {
			produced[c.Node] = append(produced[c.Node], o.Stack)
			switch {
			case o.Stack.IsFailed():
				failed = append(failed, Cursor{Node: c.Node, Stack: o.Stack})
			case o.Node == domain.NoNode:
				finished = append(finished, o)
			default:
				next = append(next, o)
			}
		}
	}

	// commit only once the whole step succeeded
	for _, id := range order {
		v.memo[id] = append(v.memo[id], produced[id]...)
	}
	v.recorded += count
	for _, ev := range events {
		v.emitNode(ctx, ev)
	}
	for _, c := range finished {
		v.emitPath(ctx, domain.EventPathFinished, c)
	}
	for _, c := range failed {
		v.emitPath(ctx, domain.EventPathFailed, c)
	}
	v.finished = append(v.finished, finished...)
	v.failed = append(v.failed, failed...)
	v.frontier = next
	v.steps++

	v.logger.Debug("valve advanced",
		"step", v.steps,
		"frontier", len(next),
		"recorded", v.recorded,
		"failed", len(failed),
		"finished", len(finished),
	)
	return nil
}

// Done reports whether the frontier is empty.
func (v *Valve) Done() bool {
	return len(v.frontier) == 0
}

// Run advances until Done or until maxSteps steps have been taken, in which
// case it returns domain.ErrStepLimit. A non-positive maxSteps means no bound.
// An exhausted stack budget also ends the run with domain.ErrStepLimit.
func (v *Valve) Run(ctx context.Context, maxSteps int) error {
	start := time.Now()
	for !v.Done() {
		if maxSteps > 0 && v.steps >= maxSteps {
			v.logger.Warn("step limit reached", "steps", v.steps, "frontier", len(v.frontier))
			return domain.ErrStepLimit
		}
		if err := v.Advance(ctx); err != nil {
			return err
		}
	}
	v.logger.Info("valve drained",
		"steps", v.steps,
		"terminals", len(v.Terminals()),
		"failures", len(v.failed),
		"duration", time.Since(start),
	)
	return nil
}

// Frontier returns the cursors still in flight.
func (v *Valve) Frontier() []Cursor {
	return v.frontier
}

// Memo returns every stack recorded at node id, in arrival order.
func (v *Valve) Memo(id int) []*domain.Stack {
	return v.memo[id]
}

// Visits returns the memo size of every node that produced at least one stack.
func (v *Valve) Visits() map[int]int {
	out := make(map[int]int, len(v.memo))
	for id, stacks := range v.memo {
		out[id] = len(stacks)
	}
	return out
}

// Terminals returns the surviving stacks whose path has ended.
func (v *Valve) Terminals() []*domain.Stack {
	out := make([]*domain.Stack, len(v.finished))
	for i, c := range v.finished {
		out[i] = c.Stack
	}
	return out
}

// Failures returns the failed paths, each paired with the node that failed it.
func (v *Valve) Failures() []Cursor {
	return v.failed
}

// Steps returns the number of completed Advance calls.
func (v *Valve) Steps() int {
	return v.steps
}

// Recorded returns the number of stacks held in the memo.
func (v *Valve) Recorded() int {
	return v.recorded
}

func (v *Valve) nodeEvent(typ domain.EventType, n domain.Node, outputs int) *domain.NodeEvent {
	return &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, AnalysisID: v.analysisID},
		NodeID:    n.ID,
		NodeKind:  n.Kind.String(),
		Joint:     n.Joint,
		Outputs:   outputs,
	}
}

func (v *Valve) emitNode(ctx context.Context, ev *domain.NodeEvent) {
	hook := v.hooks.OnNodeEnter
	if ev.Type == domain.EventNodeLeave {
		hook = v.hooks.OnNodeLeave
	}
	if hook != nil {
		hook(ctx, ev)
	}
}

func (v *Valve) emitPath(ctx context.Context, typ domain.EventType, c Cursor) {
	hook := v.hooks.OnPathFinished
	if typ == domain.EventPathFailed {
		hook = v.hooks.OnPathFailed
	}
	if hook == nil {
		return
	}
	ev := &domain.PathEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, AnalysisID: v.analysisID},
		Path:      c.Stack.Path,
	}
	if len(c.Stack.Items) > 0 {
		ev.Top = c.Stack.Items[0].Reduce().String()
	}
	hook(ctx, ev)
}
