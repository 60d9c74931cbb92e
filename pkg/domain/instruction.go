package domain

import (
	"strconv"
	"strings"
)

// ExprKind distinguishes the shapes a literal argument can take.
type ExprKind uint8

const (
	ExprPrim ExprKind = iota
	ExprInt
	ExprString
	ExprBytes
	ExprSeq
)

func (k ExprKind) String() string {
	switch k {
	case ExprPrim:
		return "prim"
	case ExprInt:
		return "int"
	case ExprString:
		return "string"
	case ExprBytes:
		return "bytes"
	case ExprSeq:
		return "seq"
	}
	return "unknown"
}

// Expr is a literal data or type payload carried by an instruction, e.g. the
// `int` and `1` in `PUSH int 1`.
type Expr struct {
	Kind   ExprKind `json:"kind"`
	Prim   string   `json:"prim,omitempty"`
	Text   string   `json:"text,omitempty"`
	Annots []string `json:"annots,omitempty"`
	Args   []Expr   `json:"args,omitempty"`
}

// PrimExpr builds a primitive application expression such as `pair int string` or `Unit`.
func PrimExpr(prim string, args ...Expr) Expr {
	return Expr{Kind: ExprPrim, Prim: prim, Args: args}
}

// IntExpr builds an integer literal expression.
func IntExpr(n int64) Expr {
	return Expr{Kind: ExprInt, Text: strconv.FormatInt(n, 10)}
}

// StringExpr builds a string literal expression.
func StringExpr(s string) Expr {
	return Expr{Kind: ExprString, Text: s}
}

// BytesExpr builds a bytes literal expression from its hex form (without 0x).
func BytesExpr(hex string) Expr {
	return Expr{Kind: ExprBytes, Text: hex}
}

// SeqExpr builds a sequence literal such as `{ 1 ; 2 }` or `{ Elt "a" 1 }`.
func SeqExpr(items ...Expr) Expr {
	return Expr{Kind: ExprSeq, Args: items}
}

func (e Expr) String() string {
	switch e.Kind {
	case ExprInt:
		return e.Text
	case ExprString:
		return strconv.Quote(e.Text)
	case ExprBytes:
		return "0x" + e.Text
	case ExprSeq:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		return "{" + strings.Join(parts, "; ") + "}"
	}
	if len(e.Args) == 0 {
		return e.Prim
	}
	parts := make([]string, 0, len(e.Args)+1)
	parts = append(parts, e.Prim)
	for _, a := range e.Args {
		s := a.String()
		if a.Kind == ExprPrim && len(a.Args) > 0 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// Arg is a single instruction argument: either a literal payload or a nested
// instruction list. Exactly one of the two is set.
type Arg struct {
	Expr *Expr         `json:"expr,omitempty"`
	Code []Instruction `json:"code,omitempty"`
}

// IsCode reports whether the argument carries nested instructions.
func (a Arg) IsCode() bool {
	return a.Expr == nil
}

// LiteralArg wraps an expression as an argument.
func LiteralArg(e Expr) Arg {
	return Arg{Expr: &e}
}

// CodeArg wraps an instruction list as an argument.
func CodeArg(code ...Instruction) Arg {
	if code == nil {
		code = []Instruction{}
	}
	return Arg{Code: code}
}

// Instruction is either a plain instruction (Prim set) or a bracketed group
// of instructions (Prim empty, Body non-nil).
type Instruction struct {
	Prim   string        `json:"prim,omitempty"`
	Annots []string      `json:"annots,omitempty"`
	Args   []Arg         `json:"args,omitempty"`
	Body   []Instruction `json:"body,omitempty"`
}

// Op builds a plain instruction.
func Op(prim string, args ...Arg) Instruction {
	return Instruction{Prim: prim, Args: args}
}

// Group builds a bracketed instruction sequence.
func Group(body ...Instruction) Instruction {
	if body == nil {
		body = []Instruction{}
	}
	return Instruction{Body: body}
}

// IsGroup reports whether the instruction is a bracketed sequence.
func (i Instruction) IsGroup() bool {
	return i.Prim == ""
}

// WithAnnots returns a copy of the instruction carrying the given annotations.
func (i Instruction) WithAnnots(annots ...string) Instruction {
	i.Annots = append([]string(nil), annots...)
	return i
}

// IntArg returns the integer literal at position idx, or def when the
// argument is absent or not an integer.
func (i Instruction) IntArg(idx, def int) int {
	if idx >= len(i.Args) || i.Args[idx].Expr == nil || i.Args[idx].Expr.Kind != ExprInt {
		return def
	}
	n, err := strconv.Atoi(i.Args[idx].Expr.Text)
	if err != nil {
		return def
	}
	return n
}

// CodeArgs returns the nested instruction lists, in order.
func (i Instruction) CodeArgs() [][]Instruction {
	var out [][]Instruction
	for _, a := range i.Args {
		if a.IsCode() {
			out = append(out, a.Code)
		}
	}
	return out
}

// LiteralArgs returns the literal payloads, in order.
func (i Instruction) LiteralArgs() []Expr {
	var out []Expr
	for _, a := range i.Args {
		if !a.IsCode() {
			out = append(out, *a.Expr)
		}
	}
	return out
}

func (i Instruction) String() string {
	if i.IsGroup() {
		parts := make([]string, len(i.Body))
		for j, b := range i.Body {
			parts[j] = b.String()
		}
		return "{" + strings.Join(parts, "; ") + "}"
	}
	parts := []string{i.Prim}
	parts = append(parts, i.Annots...)
	for _, a := range i.Args {
		if a.IsCode() {
			parts = append(parts, Group(a.Code...).String())
			continue
		}
		s := a.Expr.String()
		if a.Expr.Kind == ExprPrim && len(a.Expr.Args) > 0 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
