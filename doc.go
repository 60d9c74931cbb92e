/*
Package conduit is a symbolic executor for Michelson-style stack code.

It compiles a contract's nested instruction tree into a control-flow graph of
tubes (straight-line nodes) and joints (branching nodes), then pushes symbolic
stacks through that graph with a valve. Every terminating execution path is
enumerated exactly once; paths that hit FAILWITH are recorded where they
failed and never advance again.

# Concept

Stack items are expression trees, not values. Pushing literals keeps them
concrete, while parameters, storage and environment reads stay symbolic, so
the top of a finished stack reads like `({}, storage:int)` or
`FAIL("no tip")`.

The graph is immutable once built and can be shared by any number of valves.
A valve is single-threaded and advances one node per step; stopping the loop
is a complete cancellation.

# Usage

	eng, err := conduit.New(conduit.WithStepLimit(500))
	if err != nil {
		log.Fatal(err)
	}

	c, err := eng.Parse(scriptJSON)
	if err != nil {
		log.Fatal(err)
	}

	report, err := eng.Analyze(ctx, c)
	if err != nil {
		log.Fatal(err)
	}
	for _, t := range report.Terminals {
		fmt.Println(t.Top)
	}

For step-by-step exploration, compile the code and drive a valve yourself:

	g := eng.Compile(c.Code)
	v := eng.NewValve(g, c.InitialStack(eng.Env()), "session")
	for !v.Done() {
		if err := v.Advance(ctx); err != nil {
			return err
		}
	}
*/
package conduit
