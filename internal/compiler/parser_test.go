package compiler_test

import (
	"testing"

	"github.com/aretw0/conduit/internal/compiler"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tipJar = `[
  {"prim": "parameter", "args": [{"prim": "unit"}]},
  {"prim": "storage", "args": [{"prim": "pair", "args": [{"prim": "int"}, {"prim": "string"}, {"prim": "bool"}]}]},
  {"prim": "code", "args": [[
    {"prim": "CDR"},
    {"prim": "PUSH", "args": [{"prim": "mutez"}, {"int": "0"}]},
    {"prim": "AMOUNT"},
    {"prim": "COMPARE"},
    {"prim": "GT"},
    {"prim": "IF", "args": [
      [{"prim": "NIL", "args": [{"prim": "operation"}]}, {"prim": "PAIR"}],
      [{"prim": "PUSH", "args": [{"prim": "string"}, {"string": "no tip"}]}, {"prim": "FAILWITH"}]
    ]},
    {"prim": "DIP", "args": [{"int": "2"}, [{"prim": "DROP", "annots": ["@x"]}]]}
  ]]}
]`

func TestParser_ParseContract(t *testing.T) {
	c, err := compiler.NewParser().ParseContract([]byte(tipJar))
	require.NoError(t, err)

	assert.Equal(t, "unit", c.Parameter.String())
	assert.Equal(t, "pair(int, pair(string, bool))", c.Storage.String())
	require.Len(t, c.Code, 7)

	push := c.Code[1]
	assert.Equal(t, "PUSH mutez 0", push.String())

	iff := c.Code[5]
	codes := iff.CodeArgs()
	require.Len(t, codes, 2)
	assert.Equal(t, "NIL operation", codes[0][0].String())
	assert.Equal(t, domain.PrimFailWith, codes[1][1].Prim)

	dip := c.Code[6]
	assert.Equal(t, 2, dip.IntArg(0, 1))
	assert.Equal(t, []string{"@x"}, dip.CodeArgs()[0][0].Annots)
}

func TestParser_Envelope(t *testing.T) {
	data := `{"name": "tipjar", "script": ` + tipJar + `}`
	c, err := compiler.NewParser().ParseContract([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "tipjar", c.Name)

	rpc := `{"code": ` + tipJar + `, "storage": {"int": "1"}}`
	c, err = compiler.NewParser().ParseContract([]byte(rpc))
	require.NoError(t, err)
	assert.Len(t, c.Code, 7)
}

func TestParser_PushSequenceIsData(t *testing.T) {
	code, err := compiler.NewParser().ParseCode([]byte(`[
		{"prim": "PUSH", "args": [{"prim": "list", "args": [{"prim": "int"}]}, [{"int": "1"}, {"int": "2"}]]},
		{"prim": "LAMBDA", "args": [{"prim": "int"}, {"prim": "int"}, [{"prim": "DUP"}, {"prim": "ADD"}]]}
	]`))
	require.NoError(t, err)
	require.Len(t, code, 2)

	push := code[0]
	assert.Empty(t, push.CodeArgs())
	assert.Equal(t, domain.ExprSeq, push.LiteralArgs()[1].Kind)

	lambda := code[1]
	require.Len(t, lambda.CodeArgs(), 1)
	assert.Len(t, lambda.CodeArgs()[0], 2)
}

func TestParser_Errors(t *testing.T) {
	p := compiler.NewParser()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing code", `[{"prim": "parameter", "args": [{"prim": "unit"}]}, {"prim": "storage", "args": [{"prim": "unit"}]}]`},
		{"unknown section", `[{"prim": "views", "args": [[]]}]`},
		{"instruction without prim", `{"code": [{"prim": "parameter", "args": [{"prim": "unit"}]}, {"prim": "storage", "args": [{"prim": "unit"}]}, {"prim": "code", "args": [[{"int": "1"}]]}]}`},
		{"scalar", `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseContract([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
