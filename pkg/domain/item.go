package domain

import (
	"fmt"
	"math/big"
)

// Item is a symbolic stack value: a node of an expression tree.
//
// An item with a Producer is the result of that instruction applied to its
// Operands. An item without a Producer is either a concrete literal (Literal
// set), a concrete composite such as a pushed Pair (Operands set), or a
// type-only placeholder (neither set).
//
// Items are never mutated after construction, so stacks share them freely.
type Item struct {
	Type     *Type
	Annots   []string
	Producer string
	Literal  any
	Operands []*Item
}

// NewItem builds the result of applying producer to operands.
func NewItem(t *Type, producer string, operands ...*Item) *Item {
	return &Item{Type: t, Producer: producer, Operands: operands}
}

// LiteralItem builds a concrete scalar.
func LiteralItem(t *Type, v any) *Item {
	return &Item{Type: t, Literal: v}
}

// Placeholder builds a type-only leaf, optionally annotated (e.g. "parameter").
func Placeholder(t *Type, annots ...string) *Item {
	return &Item{Type: t, Annots: annots}
}

// Composite builds a concrete structured value; tag is an optional
// constructor name such as "Left" or "Some".
func Composite(t *Type, tag any, parts ...*Item) *Item {
	return &Item{Type: t, Literal: tag, Operands: parts}
}

// FailItem wraps the FAILWITH argument in the poison item that marks a failed stack.
func FailItem(reason *Item) *Item {
	return NewItem(NewType(TypeFail), PrimFailWith, reason)
}

// WithAnnots returns a copy carrying annots instead of the current annotations.
func (it *Item) WithAnnots(annots ...string) *Item {
	cp := *it
	cp.Annots = annots
	return &cp
}

// Annot returns the first annotation, or "".
func (it *Item) Annot() string {
	if len(it.Annots) == 0 {
		return ""
	}
	return it.Annots[0]
}

// IsLeaf reports whether the item has neither a producer nor operands.
func (it *Item) IsLeaf() bool {
	return it.Producer == "" && len(it.Operands) == 0
}

// IsPlaceholder reports whether the item is a type-only leaf.
func (it *Item) IsPlaceholder() bool {
	return it.IsLeaf() && it.Literal == nil
}

// IsFailure reports whether the item is the poison left by FAILWITH.
func (it *Item) IsFailure() bool {
	return it.Type.Is(TypeFail)
}

// IsConcretePair reports whether the item is a pushed or built pair whose
// components are directly known.
func (it *Item) IsConcretePair() bool {
	return it.Producer == "" && it.Type.Is("pair") && len(it.Operands) == 2 && it.Literal == nil
}

// Tag returns the constructor tag of a concrete variant (Left, Right, Some, None).
func (it *Item) Tag() string {
	if it.Producer != "" {
		return ""
	}
	s, _ := it.Literal.(string)
	switch s {
	case "Left", "Right", "Some", "None":
		return s
	}
	return ""
}

// Int returns the integer literal, if any.
func (it *Item) Int() (*big.Int, bool) {
	n, ok := it.Literal.(*big.Int)
	return n, ok
}

// Text returns the string literal, if any.
func (it *Item) Text() (string, bool) {
	s, ok := it.Literal.(string)
	return s, ok
}

// Bool returns the boolean literal, if any.
func (it *Item) Bool() (bool, bool) {
	b, ok := it.Literal.(bool)
	return b, ok
}

// Sub walks operand indices and returns the item found, or nil if the path
// leaves the tree.
func (it *Item) Sub(path ...int) *Item {
	cur := it
	for _, i := range path {
		if cur == nil || i < 0 || i >= len(cur.Operands) {
			return nil
		}
		cur = cur.Operands[i]
	}
	return cur
}

// projections maps a branch-payload producer to the concrete tag it unwraps
// and the operand position of the payload within that tag.
var projections = map[string]struct {
	tag string
	idx int
}{
	"IF_LEFT.0":    {"Left", 0},
	"IF_LEFT.1":    {"Right", 0},
	"LOOP_LEFT.0":  {"Left", 0},
	"LOOP_LEFT.1":  {"Right", 0},
	"IF_NONE.some": {"Some", 0},
}

// Reduce simplifies projections over concrete values: CAR/CDR of a known
// pair and branch payloads of a known variant collapse to the component
// itself. The receiver is returned unchanged when nothing simplifies.
func (it *Item) Reduce() *Item {
	if it == nil || len(it.Operands) == 0 {
		return it
	}
	ops := make([]*Item, len(it.Operands))
	changed := false
	for i, op := range it.Operands {
		ops[i] = op.Reduce()
		changed = changed || ops[i] != op
	}
	if it.Producer != "" && len(ops) == 1 {
		src := ops[0]
		switch it.Producer {
		case "CAR":
			if src.IsConcretePair() {
				return src.Operands[0]
			}
		case "CDR":
			if src.IsConcretePair() {
				return src.Operands[1]
			}
		default:
			if p, ok := projections[it.Producer]; ok && src.Tag() == p.tag {
				if sub := src.Sub(p.idx); sub != nil {
					return sub
				}
			}
		}
	}
	if !changed {
		return it
	}
	cp := *it
	cp.Operands = ops
	return &cp
}

// ItemFromValue builds the concrete item for a literal of type t, as pushed by PUSH.
func ItemFromValue(t *Type, v Expr) (*Item, error) {
	switch v.Kind {
	case ExprInt:
		n, ok := new(big.Int).SetString(v.Text, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer literal %q", v.Text)
		}
		return LiteralItem(t, n), nil
	case ExprString:
		return LiteralItem(t, v.Text), nil
	case ExprBytes:
		return LiteralItem(t, "0x"+v.Text), nil
	case ExprSeq:
		return seqFromValue(t, v)
	}

	switch v.Prim {
	case "Unit", "None":
		return LiteralItem(t, v.Prim), nil
	case "True":
		return LiteralItem(t, true), nil
	case "False":
		return LiteralItem(t, false), nil
	case "Pair":
		if len(v.Args) < 2 {
			return nil, fmt.Errorf("Pair needs two components, got %d", len(v.Args))
		}
		if len(v.Args) > 2 {
			v = PrimExpr("Pair", v.Args[0], PrimExpr("Pair", v.Args[1:]...))
		}
		left, err := ItemFromValue(t.Arg(0), v.Args[0])
		if err != nil {
			return nil, err
		}
		right, err := ItemFromValue(t.Arg(1), v.Args[1])
		if err != nil {
			return nil, err
		}
		return Composite(t, nil, left, right), nil
	case "Left", "Right", "Some":
		if len(v.Args) != 1 {
			return nil, fmt.Errorf("%s needs one argument", v.Prim)
		}
		sub := t.Arg(0)
		if v.Prim == "Right" {
			sub = t.Arg(1)
		}
		inner, err := ItemFromValue(sub, v.Args[0])
		if err != nil {
			return nil, err
		}
		return Composite(t, v.Prim, inner), nil
	}
	return nil, fmt.Errorf("unsupported literal %s for type %s", v.Prim, t)
}

func seqFromValue(t *Type, v Expr) (*Item, error) {
	if t.Is("lambda") {
		// code literal: kept opaque
		return LiteralItem(t, v.String()), nil
	}
	if len(v.Args) == 0 {
		return LiteralItem(t, "{}"), nil
	}
	parts := make([]*Item, 0, len(v.Args))
	for _, e := range v.Args {
		if e.Kind == ExprPrim && e.Prim == "Elt" && len(e.Args) == 2 {
			k, err := ItemFromValue(t.Arg(0), e.Args[0])
			if err != nil {
				return nil, err
			}
			val, err := ItemFromValue(t.Arg(1), e.Args[1])
			if err != nil {
				return nil, err
			}
			parts = append(parts, Composite(NewType("pair", t.Arg(0), t.Arg(1)), "Elt", k, val))
			continue
		}
		el, err := ItemFromValue(t.Arg(0), e)
		if err != nil {
			return nil, err
		}
		parts = append(parts, el)
	}
	return Composite(t, nil, parts...), nil
}
