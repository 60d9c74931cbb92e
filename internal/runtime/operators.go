package runtime

import (
	"github.com/aretw0/conduit/pkg/domain"
)

// resultType computes the type of an operator's result from its operands, top first.
type resultType func(ops []*domain.Item, in domain.Instruction) (*domain.Type, error)

// operator pops arity operands and pushes a single derived item.
func operator(arity int, rt resultType) TubeFunc {
	return func(st *domain.Stack, in domain.Instruction) error {
		ops, err := st.Pop(arity)
		if err != nil {
			return err
		}
		t, err := rt(ops, in)
		if err != nil {
			return err
		}
		st.Push(annotate(domain.NewItem(t, in.Prim, ops...), in))
		return nil
	}
}

func fixed(t *domain.Type) resultType {
	return func([]*domain.Item, domain.Instruction) (*domain.Type, error) { return t, nil }
}

func sameAs(idx int) resultType {
	return func(ops []*domain.Item, _ domain.Instruction) (*domain.Type, error) { return ops[idx].Type, nil }
}

func optionOf(rt resultType) resultType {
	return func(ops []*domain.Item, in domain.Instruction) (*domain.Type, error) {
		t, err := rt(ops, in)
		if err != nil {
			return nil, err
		}
		return domain.NewType("option", t), nil
	}
}

func bothAre(ops []*domain.Item, prim string) bool {
	return ops[0].Type.Is(prim) && ops[1].Type.Is(prim)
}

func additive(ops []*domain.Item, in domain.Instruction) (*domain.Type, error) {
	a, b := ops[0].Type, ops[1].Type
	switch {
	case bothAre(ops, "nat"):
		if in.Prim == "SUB" {
			return domain.TypeInt, nil
		}
		return domain.TypeNat, nil
	case bothAre(ops, "mutez"):
		return domain.TypeMutez, nil
	case bothAre(ops, "timestamp"):
		return domain.TypeInt, nil
	case a.Is("timestamp") || b.Is("timestamp"):
		return domain.TypeTimestamp, nil
	}
	return domain.TypeInt, nil
}

func multiplicative(ops []*domain.Item, _ domain.Instruction) (*domain.Type, error) {
	switch {
	case bothAre(ops, "nat"):
		return domain.TypeNat, nil
	case ops[0].Type.Is("mutez") || ops[1].Type.Is("mutez"):
		return domain.TypeMutez, nil
	}
	return domain.TypeInt, nil
}

func euclidean(ops []*domain.Item, _ domain.Instruction) (*domain.Type, error) {
	a, b := ops[0].Type, ops[1].Type
	quot, rem := domain.TypeInt, domain.TypeNat
	switch {
	case bothAre(ops, "nat"):
		quot = domain.TypeNat
	case bothAre(ops, "mutez"):
		quot, rem = domain.TypeNat, domain.TypeMutez
	case a.Is("mutez") && b.Is("nat"):
		quot, rem = domain.TypeMutez, domain.TypeMutez
	}
	return domain.NewType("option", domain.NewType("pair", quot, rem)), nil
}

func bitwiseAnd(ops []*domain.Item, _ domain.Instruction) (*domain.Type, error) {
	if ops[0].Type.Is("nat") || ops[1].Type.Is("nat") {
		return domain.TypeNat, nil
	}
	return ops[0].Type, nil
}

func collectionValue(ops []*domain.Item, _ domain.Instruction) (*domain.Type, error) {
	return domain.NewType("option", ops[1].Type.Arg(1)), nil
}

func lambdaResult(ops []*domain.Item, _ domain.Instruction) (*domain.Type, error) {
	return ops[1].Type.Arg(1), nil
}

func typeArg(wrap func(*domain.Type) *domain.Type) resultType {
	return func(_ []*domain.Item, in domain.Instruction) (*domain.Type, error) {
		t, err := literalType(in, 0)
		if err != nil {
			return nil, err
		}
		return wrap(t), nil
	}
}

func (s *Semantics) registerCombinators() {
	s.tubes["COMPARE"] = operator(2, fixed(domain.TypeInt))
	for _, p := range []string{"EQ", "NEQ", "LT", "GT", "LE", "GE"} {
		s.tubes[p] = operator(1, fixed(domain.TypeBool))
	}

	s.tubes["ADD"] = operator(2, additive)
	s.tubes["SUB"] = operator(2, additive)
	s.tubes["MUL"] = operator(2, multiplicative)
	s.tubes["EDIV"] = operator(2, euclidean)
	s.tubes["ABS"] = operator(1, fixed(domain.TypeNat))
	s.tubes["NEG"] = operator(1, fixed(domain.TypeInt))
	s.tubes["INT"] = operator(1, fixed(domain.TypeInt))
	s.tubes["ISNAT"] = operator(1, fixed(domain.NewType("option", domain.TypeNat)))

	s.tubes["NOT"] = operator(1, sameAs(0))
	s.tubes["AND"] = operator(2, bitwiseAnd)
	s.tubes["OR"] = operator(2, sameAs(0))
	s.tubes["XOR"] = operator(2, sameAs(0))

	s.tubes["CONCAT"] = func(st *domain.Stack, in domain.Instruction) error {
		top, err := st.Top()
		if err != nil {
			return err
		}
		if top.Type.Is("list") {
			return operator(1, fixed(top.Type.Arg(0)))(st, in)
		}
		return operator(2, sameAs(0))(st, in)
	}
	s.tubes["SIZE"] = operator(1, fixed(domain.TypeNat))
	s.tubes["SLICE"] = operator(3, optionOf(sameAs(2)))
	s.tubes["PACK"] = operator(1, fixed(domain.TypeBytes))
	s.tubes["UNPACK"] = operator(1, typeArg(func(t *domain.Type) *domain.Type {
		return domain.NewType("option", t)
	}))
	for _, p := range []string{"BLAKE2B", "SHA256", "SHA512"} {
		s.tubes[p] = operator(1, fixed(domain.TypeBytes))
	}
	s.tubes["HASH_KEY"] = operator(1, fixed(domain.TypeKeyHash))
	s.tubes["CHECK_SIGNATURE"] = operator(3, fixed(domain.TypeBool))

	s.tubes["MEM"] = operator(2, fixed(domain.TypeBool))
	s.tubes["GET"] = operator(2, collectionValue)
	s.tubes["UPDATE"] = operator(3, sameAs(2))
	s.tubes["CONS"] = operator(2, sameAs(1))
}

func (s *Semantics) registerContracts() {
	s.tubes["ADDRESS"] = operator(1, fixed(domain.TypeAddress))
	s.tubes["CONTRACT"] = operator(1, typeArg(func(t *domain.Type) *domain.Type {
		return domain.NewType("option", domain.NewType("contract", t))
	}))
	s.tubes["IMPLICIT_ACCOUNT"] = operator(1, fixed(domain.NewType("contract", domain.TypeUnit)))
	s.tubes["TRANSFER_TOKENS"] = operator(3, fixed(domain.TypeOperation))
	s.tubes["SET_DELEGATE"] = operator(1, fixed(domain.TypeOperation))
	s.tubes["EXEC"] = operator(2, lambdaResult)

	s.tubes["CREATE_CONTRACT"] = func(st *domain.Stack, in domain.Instruction) error {
		ops, err := st.Pop(3)
		if err != nil {
			return err
		}
		st.Push(domain.NewItem(domain.TypeAddress, "CREATE_CONTRACT.address", ops...))
		st.Push(annotate(domain.NewItem(domain.TypeOperation, in.Prim, ops...), in))
		return nil
	}
}
