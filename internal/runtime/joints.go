package runtime

import (
	"github.com/aretw0/conduit/pkg/domain"
)

// payload describes what one edge of a joint pushes after the guard is popped.
type payload func(guard *domain.Item) []*domain.Item

// split pops the guard and returns one clone per edge, each with its payload
// pushed (last element of the payload ends on top).
func split(edges ...payload) JointFunc {
	return func(st *domain.Stack) ([]*domain.Stack, error) {
		ops, err := st.Pop(1)
		if err != nil {
			return nil, err
		}
		guard := ops[0]
		out := make([]*domain.Stack, len(edges))
		for i, edge := range edges {
			c := st.Clone()
			if edge != nil {
				for _, it := range edge(guard) {
					c.Push(it)
				}
			}
			out[i] = c
		}
		return out, nil
	}
}

// arm pushes a single item derived from the guard, typed by the guard's i-th
// type argument and labelled with the arm it belongs to.
func arm(label string, typeOf func(*domain.Type) *domain.Type) payload {
	return func(guard *domain.Item) []*domain.Item {
		return []*domain.Item{domain.NewItem(typeOf(guard.Type), label, guard)}
	}
}

func argOf(i int) func(*domain.Type) *domain.Type {
	return func(t *domain.Type) *domain.Type { return t.Arg(i) }
}

func (s *Semantics) registerJoints() {
	s.joints[domain.JointIf] = split(nil, nil)
	s.joints[domain.JointLoop] = split(nil, nil)

	s.joints[domain.JointIfLeft] = split(
		arm("IF_LEFT.0", argOf(0)),
		arm("IF_LEFT.1", argOf(1)),
	)
	s.joints[domain.JointLoopLeft] = split(
		arm("LOOP_LEFT.0", argOf(0)),
		arm("LOOP_LEFT.1", argOf(1)),
	)
	s.joints[domain.JointIfNone] = split(
		nil,
		arm("IF_NONE.some", argOf(0)),
	)

	// cons arm: the tail goes below, the head ends on top
	s.joints[domain.JointIfCons] = split(
		func(guard *domain.Item) []*domain.Item {
			return []*domain.Item{
				domain.NewItem(guard.Type, "IF_CONS.tail", guard),
				domain.NewItem(guard.Type.Arg(0), "IF_CONS.head", guard),
			}
		},
		nil,
	)

	s.joints[domain.JointIter] = iterate
}

// iterate models one ITER step. The continue edge pushes the remaining
// container and then the next element, and protects the container behind
// the cursor so the body only sees the element; the body's trailing
// CURSOR -1 exposes it again before the joint is re-entered. The exit edge
// leaves nothing.
func iterate(st *domain.Stack) ([]*domain.Stack, error) {
	ops, err := st.Pop(1)
	if err != nil {
		return nil, err
	}
	coll := ops[0]

	elem := coll.Type.Arg(0)
	if coll.Type.Is("map") || coll.Type.Is("big_map") {
		elem = domain.NewType("pair", coll.Type.Arg(0), coll.Type.Arg(1))
	}

	cont := st.Clone()
	cont.Push(domain.NewItem(coll.Type, "ITER.rest", coll))
	if err := cont.Shift(1); err != nil {
		return nil, err
	}
	cont.Push(domain.NewItem(elem, "ITER.elem", coll))

	return []*domain.Stack{cont, st.Clone()}, nil
}
