package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/conduit/pkg/domain"
)

// TubeFunc applies one straight-line instruction to a stack in place.
type TubeFunc func(s *domain.Stack, in domain.Instruction) error

// JointFunc pops a joint's guard and returns one stack per outgoing edge.
type JointFunc func(s *domain.Stack) ([]*domain.Stack, error)

// Semantics is the closed dispatch table from instruction name to behavior.
type Semantics struct {
	tubes  map[string]TubeFunc
	joints map[string]JointFunc
}

// NewSemantics returns the built-in table.
func NewSemantics() *Semantics {
	s := &Semantics{
		tubes:  make(map[string]TubeFunc),
		joints: make(map[string]JointFunc),
	}
	s.registerStack()
	s.registerLiterals()
	s.registerEnv()
	s.registerData()
	s.registerCombinators()
	s.registerContracts()
	s.registerJoints()
	return s
}

// Apply runs a straight-line instruction.
func (s *Semantics) Apply(st *domain.Stack, in domain.Instruction) error {
	fn, ok := s.tubes[in.Prim]
	if !ok {
		return &domain.UnsupportedInstructionError{Name: in.Prim}
	}
	return fn(st, in)
}

// Branch runs the guard of a joint and returns the per-edge stacks.
func (s *Semantics) Branch(kind string, st *domain.Stack) ([]*domain.Stack, error) {
	fn, ok := s.joints[kind]
	if !ok {
		return nil, &domain.UnsupportedInstructionError{Name: kind}
	}
	return fn(st)
}

// Supports reports whether name is a known straight-line or joint instruction.
func (s *Semantics) Supports(name string) bool {
	_, tube := s.tubes[name]
	_, joint := s.joints[name]
	return tube || joint
}

// CheckTable verifies that the table covers exactly the declared instruction
// and joint sets.
func (s *Semantics) CheckTable() error {
	if err := agree("instruction", domain.KnownInstructions, s.tubes); err != nil {
		return err
	}
	return agree("joint", domain.JointKinds, s.joints)
}

func agree[F any](what string, declared []string, table map[string]F) error {
	for _, name := range declared {
		if _, ok := table[name]; !ok {
			return fmt.Errorf("%s %s declared but has no semantics", what, name)
		}
	}
	for name := range table {
		if !slices.Contains(declared, name) {
			return fmt.Errorf("%s %s has semantics but is not declared", what, name)
		}
	}
	return nil
}

// annotate carries the instruction's annotations onto the item it produced.
func annotate(it *domain.Item, in domain.Instruction) *domain.Item {
	if len(in.Annots) == 0 {
		return it
	}
	return it.WithAnnots(in.Annots...)
}

func literalType(in domain.Instruction, idx int) (*domain.Type, error) {
	lits := in.LiteralArgs()
	if idx >= len(lits) {
		return nil, fmt.Errorf("%s: missing type argument %d", in.Prim, idx)
	}
	return domain.TypeOf(lits[idx])
}

func (s *Semantics) registerStack() {
	s.tubes["DUP"] = func(st *domain.Stack, in domain.Instruction) error {
		n := in.IntArg(0, 1)
		if n < 1 {
			return fmt.Errorf("DUP %d: level must be positive", n)
		}
		it, err := st.Peek(n - 1)
		if err != nil {
			return err
		}
		st.Push(it)
		return nil
	}
	s.tubes["DROP"] = func(st *domain.Stack, in domain.Instruction) error {
		_, err := st.Pop(in.IntArg(0, 1))
		return err
	}
	s.tubes["SWAP"] = func(st *domain.Stack, _ domain.Instruction) error {
		ops, err := st.Pop(2)
		if err != nil {
			return err
		}
		st.Push(ops[0])
		st.Push(ops[1])
		return nil
	}
	s.tubes["DIG"] = func(st *domain.Stack, in domain.Instruction) error {
		it, err := st.PopAt(in.IntArg(0, 0))
		if err != nil {
			return err
		}
		st.Push(it)
		return nil
	}
	s.tubes["DUG"] = func(st *domain.Stack, in domain.Instruction) error {
		n := in.IntArg(0, 0)
		if n >= st.Depth() {
			return &domain.StackUnderflowError{Index: n, Depth: st.Depth()}
		}
		it, err := st.PopAt(0)
		if err != nil {
			return err
		}
		return st.PushAt(n, it)
	}
	s.tubes[domain.PrimCursor] = func(st *domain.Stack, in domain.Instruction) error {
		return st.Shift(in.IntArg(0, 0))
	}
	s.tubes[domain.PrimFailWith] = func(st *domain.Stack, _ domain.Instruction) error {
		ops, err := st.Pop(1)
		if err != nil {
			return err
		}
		st.Fail(ops[0])
		return nil
	}
}

func (s *Semantics) registerLiterals() {
	s.tubes["PUSH"] = func(st *domain.Stack, in domain.Instruction) error {
		lits := in.LiteralArgs()
		if len(lits) != 2 {
			return fmt.Errorf("PUSH: expected type and value, got %d arguments", len(lits))
		}
		t, err := domain.TypeOf(lits[0])
		if err != nil {
			return fmt.Errorf("PUSH: %w", err)
		}
		it, err := domain.ItemFromValue(t, lits[1])
		if err != nil {
			return fmt.Errorf("PUSH: %w", err)
		}
		st.Push(annotate(it, in))
		return nil
	}
	s.tubes["UNIT"] = func(st *domain.Stack, in domain.Instruction) error {
		st.Push(annotate(domain.LiteralItem(domain.TypeUnit, "Unit"), in))
		return nil
	}
	s.tubes["LAMBDA"] = func(st *domain.Stack, in domain.Instruction) error {
		arg, err := literalType(in, 0)
		if err != nil {
			return err
		}
		ret, err := literalType(in, 1)
		if err != nil {
			return err
		}
		body := ""
		if codes := in.CodeArgs(); len(codes) > 0 {
			body = domain.Group(codes[0]...).String()
		}
		st.Push(annotate(domain.LiteralItem(domain.NewType("lambda", arg, ret), body), in))
		return nil
	}

	// empty collections and None: typed literals with no content
	empty := func(container string, arity int, literal string) TubeFunc {
		return func(st *domain.Stack, in domain.Instruction) error {
			args := make([]*domain.Type, arity)
			for i := range args {
				t, err := literalType(in, i)
				if err != nil {
					return err
				}
				args[i] = t
			}
			st.Push(annotate(domain.LiteralItem(domain.NewType(container, args...), literal), in))
			return nil
		}
	}
	s.tubes["NIL"] = empty("list", 1, "{}")
	s.tubes["EMPTY_SET"] = empty("set", 1, "{}")
	s.tubes["EMPTY_MAP"] = empty("map", 2, "{}")
	s.tubes["EMPTY_BIG_MAP"] = empty("big_map", 2, "{}")
	s.tubes["NONE"] = empty("option", 1, "None")
}

func (s *Semantics) registerEnv() {
	read := func(t *domain.Type, field func(*domain.Env) string) TubeFunc {
		return func(st *domain.Stack, in domain.Instruction) error {
			env := st.Env
			if env == nil {
				env = domain.DefaultEnv()
			}
			st.Push(annotate(domain.LiteralItem(t, field(env)), in))
			return nil
		}
	}
	s.tubes["AMOUNT"] = read(domain.TypeMutez, func(e *domain.Env) string { return e.Amount })
	s.tubes["BALANCE"] = read(domain.TypeMutez, func(e *domain.Env) string { return e.Balance })
	s.tubes["SENDER"] = read(domain.TypeAddress, func(e *domain.Env) string { return e.Sender })
	s.tubes["SOURCE"] = read(domain.TypeAddress, func(e *domain.Env) string { return e.Source })
	s.tubes["SELF"] = read(domain.NewType("contract"), func(e *domain.Env) string { return e.Self })
	s.tubes["NOW"] = read(domain.TypeTimestamp, func(e *domain.Env) string { return e.Now })
	s.tubes["CHAIN_ID"] = read(domain.TypeChainID, func(e *domain.Env) string { return e.ChainID })
}

func (s *Semantics) registerData() {
	project := func(idx int) TubeFunc {
		return func(st *domain.Stack, in domain.Instruction) error {
			ops, err := st.Pop(1)
			if err != nil {
				return err
			}
			st.Push(annotate(projection(ops[0], in.Prim, idx), in))
			return nil
		}
	}
	s.tubes["CAR"] = project(0)
	s.tubes["CDR"] = project(1)
	s.tubes["UNPAIR"] = func(st *domain.Stack, _ domain.Instruction) error {
		ops, err := st.Pop(1)
		if err != nil {
			return err
		}
		st.Push(projection(ops[0], "CDR", 1))
		st.Push(projection(ops[0], "CAR", 0))
		return nil
	}

	s.tubes["PAIR"] = func(st *domain.Stack, in domain.Instruction) error {
		ops, err := st.Pop(2)
		if err != nil {
			return err
		}
		t := domain.NewType("pair", ops[0].Type, ops[1].Type)
		st.Push(annotate(domain.Composite(t, nil, ops[0], ops[1]), in))
		return nil
	}
	s.tubes["SOME"] = func(st *domain.Stack, in domain.Instruction) error {
		ops, err := st.Pop(1)
		if err != nil {
			return err
		}
		st.Push(annotate(domain.Composite(domain.NewType("option", ops[0].Type), "Some", ops[0]), in))
		return nil
	}
	inject := func(tag string) TubeFunc {
		return func(st *domain.Stack, in domain.Instruction) error {
			other, err := literalType(in, 0)
			if err != nil {
				return err
			}
			ops, err := st.Pop(1)
			if err != nil {
				return err
			}
			t := domain.NewType("or", ops[0].Type, other)
			if tag == "Right" {
				t = domain.NewType("or", other, ops[0].Type)
			}
			st.Push(annotate(domain.Composite(t, tag, ops[0]), in))
			return nil
		}
	}
	s.tubes["LEFT"] = inject("Left")
	s.tubes["RIGHT"] = inject("Right")

	s.tubes["CAST"] = func(st *domain.Stack, in domain.Instruction) error {
		t, err := literalType(in, 0)
		if err != nil {
			return err
		}
		top, err := st.Top()
		if err != nil {
			return err
		}
		cp := *top
		cp.Type = t
		return st.Replace(0, annotate(&cp, in))
	}
	s.tubes["RENAME"] = func(st *domain.Stack, in domain.Instruction) error {
		top, err := st.Top()
		if err != nil {
			return err
		}
		return st.Replace(0, top.WithAnnots(in.Annots...))
	}
}

// projection extracts a pair component: directly when the pair is concrete,
// otherwise as a new CAR/CDR node over it.
func projection(src *domain.Item, prim string, idx int) *domain.Item {
	if src.IsConcretePair() {
		return src.Operands[idx]
	}
	return domain.NewItem(src.Type.Arg(idx), prim, src)
}
