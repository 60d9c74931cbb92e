package domain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var infix = map[string]string{
	"ADD": "+",
	"SUB": "-",
	"MUL": "*",
	"AND": "&",
	"OR":  "|",
	"XOR": "^",
}

var comparisons = map[string]string{
	"EQ":  "==",
	"NEQ": "<>",
	"LT":  "<",
	"GT":  ">",
	"LE":  "<=",
	"GE":  ">=",
}

// String renders the item as a readable expression, e.g. `amount:mutez > 0`
// or `TRANSFER_TO(CONTRACT(SENDER), AMOUNT, Unit)`.
func (it *Item) String() string {
	if it == nil {
		return "<nil>"
	}
	if it.Producer == "" {
		return it.valueString()
	}

	ops := it.Operands
	arg := func(i int) string {
		if i < len(ops) {
			return ops[i].String()
		}
		return "?"
	}

	if sym, ok := infix[it.Producer]; ok && len(ops) == 2 {
		return fmt.Sprintf("%s %s %s", wrap(ops[0]), sym, wrap(ops[1]))
	}
	if sym, ok := comparisons[it.Producer]; ok && len(ops) == 1 {
		if cmp := ops[0]; cmp.Producer == "COMPARE" && len(cmp.Operands) == 2 {
			return fmt.Sprintf("%s %s %s", wrap(cmp.Operands[0]), sym, wrap(cmp.Operands[1]))
		}
	}

	switch it.Producer {
	case PrimFailWith:
		return fmt.Sprintf("FAIL(%s)", arg(0))
	case "IMPLICIT_ACCOUNT":
		return fmt.Sprintf("CONTRACT(%s)", arg(0))
	case "TRANSFER_TOKENS":
		// operands are popped top-first: parameter, amount, contract
		return fmt.Sprintf("TRANSFER_TO(%s, %s, %s)", arg(2), arg(1), arg(0))
	case "CHECK_SIGNATURE":
		return fmt.Sprintf("CHECK_SIG(%s, %s, %s)", arg(0), arg(1), arg(2))
	case "MEM":
		return fmt.Sprintf("(%s IN %s)", arg(0), arg(1))
	case "GET":
		return fmt.Sprintf("%s.GET(%s)", arg(1), arg(0))
	case "EXEC":
		return fmt.Sprintf("%s.EXEC(%s)", arg(1), arg(0))
	case "NOT":
		if len(ops) == 1 {
			return "!" + wrap(ops[0])
		}
	}

	if len(ops) == 0 {
		return it.Producer
	}
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = op.String()
	}
	return fmt.Sprintf("%s(%s)", it.Producer, strings.Join(parts, ", "))
}

func (it *Item) valueString() string {
	switch v := it.Literal.(type) {
	case nil:
		if len(it.Operands) > 0 {
			return it.compositeString()
		}
		if a := it.Annot(); a != "" {
			return fmt.Sprintf("%s:%s", a, it.Type)
		}
		return it.Type.String()
	case *big.Int:
		return v.String()
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		if len(it.Operands) > 0 {
			return it.compositeString()
		}
		if it.Type.Is("string") {
			return strconv.Quote(v)
		}
		return v
	}
	return fmt.Sprint(it.Literal)
}

func (it *Item) compositeString() string {
	parts := make([]string, len(it.Operands))
	for i, op := range it.Operands {
		parts[i] = op.String()
	}
	switch tag := it.Literal.(type) {
	case string:
		if tag == "Elt" && len(parts) == 2 {
			return parts[0] + ": " + parts[1]
		}
		return fmt.Sprintf("%s(%s)", tag, strings.Join(parts, ", "))
	}
	switch {
	case it.Type.Is("pair"):
		return "(" + strings.Join(parts, ", ") + ")"
	case it.Type.Is("map"), it.Type.Is("big_map"):
		return "{" + strings.Join(parts, ", ") + "}"
	case it.Type.Is("set"):
		return "SET[" + strings.Join(parts, ", ") + "]"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// wrap parenthesizes compound infix sub-expressions.
func wrap(it *Item) string {
	s := it.String()
	if it.Producer == "" {
		return s
	}
	if _, ok := infix[it.Producer]; ok {
		return "(" + s + ")"
	}
	if _, ok := comparisons[it.Producer]; ok && strings.ContainsRune(s, ' ') {
		return "(" + s + ")"
	}
	return s
}
