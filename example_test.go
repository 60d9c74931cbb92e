package conduit_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/dsl"
)

const tipJar = `[
  {"prim": "parameter", "args": [{"prim": "unit"}]},
  {"prim": "storage", "args": [{"prim": "int"}]},
  {"prim": "code", "args": [[
    {"prim": "CDR"},
    {"prim": "PUSH", "args": [{"prim": "mutez"}, {"int": "0"}]},
    {"prim": "AMOUNT"},
    {"prim": "COMPARE"},
    {"prim": "GT"},
    {"prim": "IF", "args": [
      [{"prim": "NIL", "args": [{"prim": "operation"}]}, {"prim": "PAIR"}],
      [{"prim": "PUSH", "args": [{"prim": "string"}, {"string": "no tip"}]}, {"prim": "FAILWITH"}]
    ]}
  ]]}
]`

// ExampleEngine_Analyze parses a Micheline contract and lists every path
// through it.
func ExampleEngine_Analyze() {
	eng, err := conduit.New()
	if err != nil {
		log.Fatal(err)
	}

	c, err := eng.Parse([]byte(tipJar))
	if err != nil {
		log.Fatal(err)
	}

	report, err := eng.Analyze(context.Background(), c)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("terminals:", len(report.Terminals))
	for _, t := range report.Terminals {
		fmt.Println(" ", t.Top)
	}
	fmt.Println("failures:", len(report.Failures))
	for _, f := range report.Failures {
		fmt.Println(" ", f.Top)
	}

	// Output:
	// terminals: 1
	//   ({}, storage:int)
	// failures: 1
	//   FAIL("no tip")
}

// ExampleEngine_NewValve steps a valve by hand, the way an interactive
// explorer would.
func ExampleEngine_NewValve() {
	eng, err := conduit.New()
	if err != nil {
		log.Fatal(err)
	}

	code := dsl.New().
		PushInt(1).PushInt(2).Prim("COMPARE").
		If(func(b *dsl.Builder) {
			b.PushString("A")
		}, func(b *dsl.Builder) {
			b.PushString("B")
		}).
		Build()

	g := eng.Compile(code)
	v := eng.NewValve(g, domain.NewStack(eng.Env()), "example")

	ctx := context.Background()
	for !v.Done() {
		if err := v.Advance(ctx); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("step %d: %d in flight\n", v.Steps(), len(v.Frontier()))
	}
	for _, s := range v.Terminals() {
		top, _ := s.Top()
		fmt.Println(top)
	}

	// Output:
	// step 1: 1 in flight
	// step 2: 2 in flight
	// step 3: 2 in flight
	// step 4: 0 in flight
	// "A"
	// "B"
}
