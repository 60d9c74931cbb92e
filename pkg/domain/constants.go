package domain

// Instruction names with special meaning to the compiler.
const (
	// PrimCursor is the synthetic marker emitted in place of DIP; its single
	// integer argument shifts the stack's protected boundary.
	PrimCursor   = "CURSOR"
	PrimDip      = "DIP"
	PrimFailWith = "FAILWITH"
)

// Joint kinds: instructions whose outcome splits control flow.
const (
	JointIf       = "IF"
	JointIfLeft   = "IF_LEFT"
	JointIfNone   = "IF_NONE"
	JointIfCons   = "IF_CONS"
	JointLoop     = "LOOP"
	JointLoopLeft = "LOOP_LEFT"
	JointIter     = "ITER"
)

// JointKinds lists every branching instruction, in the order used for lookups.
var JointKinds = []string{
	JointIf,
	JointIfLeft,
	JointIfNone,
	JointIfCons,
	JointLoop,
	JointLoopLeft,
	JointIter,
}

// IsJoint reports whether prim splits control flow.
func IsJoint(prim string) bool {
	for _, k := range JointKinds {
		if k == prim {
			return true
		}
	}
	return false
}

// IsLoop reports whether the joint kind re-enters itself.
func IsLoop(kind string) bool {
	return kind == JointLoop || kind == JointLoopLeft || kind == JointIter
}

// EdgeLabels names the outgoing edges of each joint kind, in edge order.
var EdgeLabels = map[string][2]string{
	JointIf:       {"true", "false"},
	JointIfLeft:   {"left", "right"},
	JointIfNone:   {"none", "some"},
	JointIfCons:   {"cons", "nil"},
	JointLoop:     {"continue", "exit"},
	JointLoopLeft: {"continue", "exit"},
	JointIter:     {"continue", "exit"},
}

// KnownInstructions is the closed set of straight-line instructions the
// runtime understands. The dispatch table must cover exactly this set.
var KnownInstructions = []string{
	// stack shape
	"DUP", "DROP", "SWAP", "DIG", "DUG", PrimCursor,
	// literals and constants
	"PUSH", "UNIT", "NIL", "NONE", "EMPTY_SET", "EMPTY_MAP", "EMPTY_BIG_MAP", "LAMBDA",
	// environment
	"AMOUNT", "BALANCE", "SENDER", "SOURCE", "SELF", "NOW", "CHAIN_ID",
	// projections and constructors
	"CAR", "CDR", "UNPAIR", "PAIR", "SOME", "LEFT", "RIGHT", "CONS",
	// comparison
	"COMPARE", "EQ", "NEQ", "LT", "GT", "LE", "GE",
	// arithmetic and logic
	"ADD", "SUB", "MUL", "EDIV", "ABS", "NEG", "ISNAT", "INT",
	"NOT", "AND", "OR", "XOR",
	// sequences, hashing, serialization
	"CONCAT", "SIZE", "SLICE", "PACK", "UNPACK",
	"BLAKE2B", "SHA256", "SHA512", "HASH_KEY", "CHECK_SIGNATURE",
	// collections
	"MEM", "GET", "UPDATE",
	// contracts and operations
	"ADDRESS", "CONTRACT", "IMPLICIT_ACCOUNT", "TRANSFER_TOKENS",
	"SET_DELEGATE", "CREATE_CONTRACT", "EXEC",
	// casts
	"CAST", "RENAME",
	PrimFailWith,
}
