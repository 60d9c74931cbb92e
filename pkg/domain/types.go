package domain

import (
	"fmt"
	"strings"
)

// TypeFail tags the item left on a stack after FAILWITH.
const TypeFail = "fail"

// Type describes the static type of a stack value, e.g. pair(int, string).
// Types are immutable once built and are shared by pointer between items.
type Type struct {
	Prim string  `json:"prim"`
	Args []*Type `json:"args,omitempty"`
}

// NewType builds a type node.
func NewType(prim string, args ...*Type) *Type {
	return &Type{Prim: prim, Args: args}
}

// Arg returns the i-th component type, or nil when the type has no such component.
func (t *Type) Arg(i int) *Type {
	if t == nil || i < 0 || i >= len(t.Args) {
		return nil
	}
	return t.Args[i]
}

// Is reports whether t has the given head constructor.
func (t *Type) Is(prim string) bool {
	return t != nil && t.Prim == prim
}

func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	if len(t.Args) == 0 {
		return t.Prim
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", t.Prim, strings.Join(parts, ", "))
}

// Common leaf types.
var (
	TypeInt       = NewType("int")
	TypeNat       = NewType("nat")
	TypeBool      = NewType("bool")
	TypeUnit      = NewType("unit")
	TypeString    = NewType("string")
	TypeBytes     = NewType("bytes")
	TypeMutez     = NewType("mutez")
	TypeAddress   = NewType("address")
	TypeTimestamp = NewType("timestamp")
	TypeChainID   = NewType("chain_id")
	TypeKeyHash   = NewType("key_hash")
	TypeOperation = NewType("operation")
)

// TypeOf converts a type expression (as found in PUSH, NIL, parameter...) into a Type.
// Right-combed pairs with more than two components are folded into nested pairs.
func TypeOf(e Expr) (*Type, error) {
	if e.Kind != ExprPrim {
		return nil, fmt.Errorf("expected a type expression, got %s", e.Kind)
	}
	args := make([]*Type, 0, len(e.Args))
	for _, a := range e.Args {
		t, err := TypeOf(a)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	if e.Prim == "pair" && len(args) > 2 {
		return combPair(args), nil
	}
	return NewType(e.Prim, args...), nil
}

func combPair(args []*Type) *Type {
	if len(args) == 1 {
		return args[0]
	}
	return NewType("pair", args[0], combPair(args[1:]))
}
