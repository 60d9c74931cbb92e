package compiler

import "github.com/aretw0/conduit/pkg/domain"

// frame is one pending instruction list on the flattening worklist.
type frame struct {
	code []domain.Instruction
	pos  int
	// trailer is emitted once the list is exhausted (the closing CURSOR of a DIP).
	trailer *domain.Instruction
}

// Flatten splices bracketed groups inline and rewrites every DIP into
// `CURSOR +n; body; CURSOR -n`. Joint instructions keep their code arguments
// untouched; the graph builder flattens each branch when it reaches it.
//
// The walk uses an explicit worklist, so arbitrarily deep nesting does not
// grow the Go call stack.
func Flatten(code []domain.Instruction) []domain.Instruction {
	out := make([]domain.Instruction, 0, len(code))
	work := []*frame{{code: code}}

	for len(work) > 0 {
		top := work[len(work)-1]
		if top.pos >= len(top.code) {
			work = work[:len(work)-1]
			if top.trailer != nil {
				out = append(out, *top.trailer)
			}
			continue
		}

		in := top.code[top.pos]
		top.pos++

		switch {
		case in.IsGroup():
			work = append(work, &frame{code: in.Body})
		case in.Prim == domain.PrimDip:
			level, body := dipParts(in)
			out = append(out, Cursor(level))
			closing := Cursor(-level)
			work = append(work, &frame{code: body, trailer: &closing})
		default:
			out = append(out, in)
		}
	}
	return out
}

// dipParts extracts the optional level (default 1) and the body of a DIP.
func dipParts(in domain.Instruction) (int, []domain.Instruction) {
	level := in.IntArg(0, 1)
	var body []domain.Instruction
	if codes := in.CodeArgs(); len(codes) > 0 {
		body = codes[len(codes)-1]
	}
	return level, body
}

// Cursor builds the marker that shifts the protected boundary by delta.
func Cursor(delta int) domain.Instruction {
	return domain.Op(domain.PrimCursor, domain.LiteralArg(domain.IntExpr(int64(delta))))
}

// CursorDelta sums the CURSOR markers of a flat list. A balanced list sums to zero.
func CursorDelta(flat []domain.Instruction) int {
	sum := 0
	for _, in := range flat {
		if in.Prim == domain.PrimCursor {
			sum += in.IntArg(0, 0)
		}
	}
	return sum
}
