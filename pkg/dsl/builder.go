package dsl

import "github.com/aretw0/conduit/pkg/domain"

// Builder accumulates an instruction sequence through a fluent API.
type Builder struct {
	code []domain.Instruction
}

// New creates an empty code builder.
func New() *Builder {
	return &Builder{code: []domain.Instruction{}}
}

// Build returns the accumulated instructions.
func (b *Builder) Build() []domain.Instruction {
	return b.code
}

// Prim appends an arbitrary instruction.
func (b *Builder) Prim(name string, args ...domain.Arg) *Builder {
	b.code = append(b.code, domain.Op(name, args...))
	return b
}

// Annotated appends an instruction carrying annotations, e.g. CAR %owner.
func (b *Builder) Annotated(name string, annots []string, args ...domain.Arg) *Builder {
	b.code = append(b.code, domain.Op(name, args...).WithAnnots(annots...))
	return b
}

// Ops appends several argument-less instructions at once.
func (b *Builder) Ops(names ...string) *Builder {
	for _, n := range names {
		b.Prim(n)
	}
	return b
}

// Push appends PUSH t v.
func (b *Builder) Push(t, v domain.Expr) *Builder {
	return b.Prim("PUSH", domain.LiteralArg(t), domain.LiteralArg(v))
}

// PushInt appends PUSH int n.
func (b *Builder) PushInt(n int64) *Builder {
	return b.Push(Type("int"), Int(n))
}

// PushString appends PUSH string s.
func (b *Builder) PushString(s string) *Builder {
	return b.Push(Type("string"), String(s))
}

// Nil appends NIL t.
func (b *Builder) Nil(t domain.Expr) *Builder {
	return b.Prim("NIL", domain.LiteralArg(t))
}

// DropN appends DROP n.
func (b *Builder) DropN(n int) *Builder {
	return b.Prim("DROP", domain.LiteralArg(Int(int64(n))))
}

// Dip appends DIP { body }.
func (b *Builder) Dip(body func(*Builder)) *Builder {
	return b.Prim(domain.PrimDip, block(body))
}

// DipN appends DIP n { body }.
func (b *Builder) DipN(n int, body func(*Builder)) *Builder {
	return b.Prim(domain.PrimDip, domain.LiteralArg(Int(int64(n))), block(body))
}

// Group appends a bracketed sequence.
func (b *Builder) Group(body func(*Builder)) *Builder {
	inner := New()
	if body != nil {
		body(inner)
	}
	b.code = append(b.code, domain.Group(inner.code...))
	return b
}

// If appends IF { then } { else }.
func (b *Builder) If(then, els func(*Builder)) *Builder {
	return b.Prim(domain.JointIf, block(then), block(els))
}

// IfLeft appends IF_LEFT { left } { right }.
func (b *Builder) IfLeft(left, right func(*Builder)) *Builder {
	return b.Prim(domain.JointIfLeft, block(left), block(right))
}

// IfNone appends IF_NONE { none } { some }.
func (b *Builder) IfNone(none, some func(*Builder)) *Builder {
	return b.Prim(domain.JointIfNone, block(none), block(some))
}

// IfCons appends IF_CONS { cons } { nil }.
func (b *Builder) IfCons(cons, empty func(*Builder)) *Builder {
	return b.Prim(domain.JointIfCons, block(cons), block(empty))
}

// Loop appends LOOP { body }.
func (b *Builder) Loop(body func(*Builder)) *Builder {
	return b.Prim(domain.JointLoop, block(body))
}

// LoopLeft appends LOOP_LEFT { body }.
func (b *Builder) LoopLeft(body func(*Builder)) *Builder {
	return b.Prim(domain.JointLoopLeft, block(body))
}

// Iter appends ITER { body }.
func (b *Builder) Iter(body func(*Builder)) *Builder {
	return b.Prim(domain.JointIter, block(body))
}

// FailWith appends FAILWITH.
func (b *Builder) FailWith() *Builder {
	return b.Prim(domain.PrimFailWith)
}

func block(body func(*Builder)) domain.Arg {
	inner := New()
	if body != nil {
		body(inner)
	}
	return domain.CodeArg(inner.code...)
}
