package domain

import "slices"

// Env holds the symbolic values read by environment instructions such as
// SENDER or AMOUNT. All stacks of one analysis share a single Env.
type Env struct {
	Self    string `json:"self" yaml:"self"`
	Amount  string `json:"amount" yaml:"amount"`
	Balance string `json:"balance" yaml:"balance"`
	Sender  string `json:"sender" yaml:"sender"`
	Source  string `json:"source" yaml:"source"`
	ChainID string `json:"chain_id" yaml:"chain_id"`
	Now     string `json:"now" yaml:"now"`
}

// DefaultEnv returns an Env whose values are the instruction names themselves,
// so rendered expressions read e.g. `SENDER` or `AMOUNT`.
func DefaultEnv() *Env {
	return &Env{
		Self:    "SELF",
		Amount:  "AMOUNT",
		Balance: "BALANCE",
		Sender:  "SENDER",
		Source:  "SOURCE",
		ChainID: "CHAIN_ID",
		Now:     "NOW",
	}
}

// Merge returns a copy of e where every non-empty field of o wins.
func (e *Env) Merge(o *Env) *Env {
	cp := *e
	if o == nil {
		return &cp
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&cp.Self, o.Self},
		{&cp.Amount, o.Amount},
		{&cp.Balance, o.Balance},
		{&cp.Sender, o.Sender},
		{&cp.Source, o.Source},
		{&cp.ChainID, o.ChainID},
		{&cp.Now, o.Now},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return &cp
}

// Stack is one symbolic execution state.
//
// Items[0] is the top of the stack. The first Cursor items are protected:
// they were hidden by an enclosing DIP and every positional operation
// addresses Items[Cursor+i] instead. Stacks are mutated in place by the
// instruction semantics; callers Clone before branching.
type Stack struct {
	Cursor int
	Items  []*Item
	// Path lists the tube IDs traversed so far, in order.
	Path []int
	// Env and Attached are shared by every clone of a stack.
	Env      *Env
	Attached any
}

// NewStack builds a stack whose top is items[0].
func NewStack(env *Env, items ...*Item) *Stack {
	if env == nil {
		env = DefaultEnv()
	}
	return &Stack{
		Items: append([]*Item(nil), items...),
		Env:   env,
	}
}

// Depth returns the number of visible (unprotected) items.
func (s *Stack) Depth() int {
	return len(s.Items) - s.Cursor
}

func (s *Stack) underflow(i int) error {
	return &StackUnderflowError{Index: i, Depth: s.Depth()}
}

// Peek returns the i-th visible item without removing it.
func (s *Stack) Peek(i int) (*Item, error) {
	if i < 0 || i >= s.Depth() {
		return nil, s.underflow(i)
	}
	return s.Items[s.Cursor+i], nil
}

// Top returns the first visible item.
func (s *Stack) Top() (*Item, error) {
	return s.Peek(0)
}

// Pop removes the n topmost visible items and returns them top-first.
func (s *Stack) Pop(n int) ([]*Item, error) {
	if n < 0 || n > s.Depth() {
		return nil, s.underflow(n - 1)
	}
	out := slices.Clone(s.Items[s.Cursor : s.Cursor+n])
	s.Items = slices.Delete(s.Items, s.Cursor, s.Cursor+n)
	return out, nil
}

// PopAt removes and returns the i-th visible item.
func (s *Stack) PopAt(i int) (*Item, error) {
	it, err := s.Peek(i)
	if err != nil {
		return nil, err
	}
	s.Items = slices.Delete(s.Items, s.Cursor+i, s.Cursor+i+1)
	return it, nil
}

// Push inserts an item at the top of the visible region.
func (s *Stack) Push(it *Item) {
	s.Items = slices.Insert(s.Items, s.Cursor, it)
}

// PushAt inserts an item so that it becomes the i-th visible item.
func (s *Stack) PushAt(i int, it *Item) error {
	if i < 0 || i > s.Depth() {
		return s.underflow(i)
	}
	s.Items = slices.Insert(s.Items, s.Cursor+i, it)
	return nil
}

// Replace overwrites the i-th visible item.
func (s *Stack) Replace(i int, it *Item) error {
	if i < 0 || i >= s.Depth() {
		return s.underflow(i)
	}
	s.Items[s.Cursor+i] = it
	return nil
}

// Shift moves the protected boundary by delta; it never crosses either end
// of the stack.
func (s *Stack) Shift(delta int) error {
	next := s.Cursor + delta
	if next < 0 || next > len(s.Items) {
		return &StackUnderflowError{Index: next, Depth: len(s.Items)}
	}
	s.Cursor = next
	return nil
}

// Fail discards every item, protected ones included, and leaves only the
// poison item built from reason.
func (s *Stack) Fail(reason *Item) {
	s.Items = []*Item{FailItem(reason)}
	s.Cursor = 0
}

// IsFailed reports whether the stack has hit FAILWITH.
func (s *Stack) IsFailed() bool {
	return len(s.Items) > 0 && s.Items[0].IsFailure()
}

// Clone returns an independent copy of cursor, items and path. Items
// themselves are immutable and shared; Env and Attached are shared on purpose.
func (s *Stack) Clone() *Stack {
	return &Stack{
		Cursor:   s.Cursor,
		Items:    slices.Clone(s.Items),
		Path:     slices.Clone(s.Path),
		Env:      s.Env,
		Attached: s.Attached,
	}
}

// Visit records a tube ID on the provenance trail.
func (s *Stack) Visit(id int) {
	s.Path = append(s.Path, id)
}
