/*
Package dsl provides a fluent API for writing instruction trees in Go.

It is the programmatic counterpart of Micheline JSON and is handy for tests
and for embedding small scripts:

	code := dsl.New().
		Prim("CAR").
		PushInt(0).
		Ops("COMPARE", "GT").
		If(func(b *dsl.Builder) {
			b.Prim("UNIT")
		}, func(b *dsl.Builder) {
			b.PushString("too small").FailWith()
		}).
		Build()
*/
package dsl
