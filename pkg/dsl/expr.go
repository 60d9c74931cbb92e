package dsl

import "github.com/aretw0/conduit/pkg/domain"

// Type builds a type expression, e.g. Type("pair", Type("int"), Type("string")).
func Type(prim string, args ...domain.Expr) domain.Expr {
	return domain.PrimExpr(prim, args...)
}

// Int builds an integer literal.
func Int(n int64) domain.Expr {
	return domain.IntExpr(n)
}

// String builds a string literal.
func String(s string) domain.Expr {
	return domain.StringExpr(s)
}

// Bytes builds a bytes literal from its hex form.
func Bytes(hex string) domain.Expr {
	return domain.BytesExpr(hex)
}

// Data builds a data constructor such as Pair, Left, Some or Unit.
func Data(prim string, args ...domain.Expr) domain.Expr {
	return domain.PrimExpr(prim, args...)
}

// Seq builds a sequence literal.
func Seq(items ...domain.Expr) domain.Expr {
	return domain.SeqExpr(items...)
}
