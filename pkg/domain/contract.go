package domain

// Contract is a parsed script: the declared parameter and storage types plus
// the code run against the pair (parameter, storage).
type Contract struct {
	Name      string
	Parameter *Type
	Storage   *Type
	Code      []Instruction
}

// InitialStack builds the entry stack: a single concrete pair whose
// components are placeholders annotated "parameter" and "storage".
func (c *Contract) InitialStack(env *Env) *Stack {
	param := Placeholder(c.Parameter, "parameter")
	storage := Placeholder(c.Storage, "storage")
	pair := Composite(NewType("pair", c.Parameter, c.Storage), nil, param, storage)
	return NewStack(env, pair)
}
