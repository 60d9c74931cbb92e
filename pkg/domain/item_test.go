package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	e := PrimExpr("pair", PrimExpr("int"), PrimExpr("string"), PrimExpr("bool"))
	typ, err := TypeOf(e)
	require.NoError(t, err)
	assert.Equal(t, "pair(int, pair(string, bool))", typ.String())
	assert.Equal(t, "string", typ.Arg(1).Arg(0).String())
	assert.Nil(t, typ.Arg(2))

	_, err = TypeOf(IntExpr(1))
	assert.Error(t, err)
}

func TestItemFromValue(t *testing.T) {
	pairT := NewType("pair", TypeInt, TypeString)

	tests := []struct {
		name string
		typ  *Type
		val  Expr
		want string
	}{
		{"int", TypeInt, IntExpr(42), "42"},
		{"string", TypeString, StringExpr("hi"), `"hi"`},
		{"bytes", TypeBytes, BytesExpr("00ff"), "0x00ff"},
		{"unit", TypeUnit, PrimExpr("Unit"), "Unit"},
		{"bool", TypeBool, PrimExpr("True"), "True"},
		{"pair", pairT, PrimExpr("Pair", IntExpr(1), StringExpr("a")), `(1, "a")`},
		{"left", NewType("or", TypeInt, TypeString), PrimExpr("Left", IntExpr(7)), "Left(7)"},
		{"none", NewType("option", TypeInt), PrimExpr("None"), "None"},
		{"list", NewType("list", TypeInt), SeqExpr(IntExpr(1), IntExpr(2)), "[1, 2]"},
		{"empty list", NewType("list", TypeInt), SeqExpr(), "{}"},
		{"map", NewType("map", TypeString, TypeInt), SeqExpr(PrimExpr("Elt", StringExpr("k"), IntExpr(1))), `{"k": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := ItemFromValue(tt.typ, tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.want, it.String())
		})
	}

	_, err := ItemFromValue(TypeInt, Expr{Kind: ExprInt, Text: "x"})
	assert.Error(t, err)
}

func TestItem_IntLiteral(t *testing.T) {
	it, err := ItemFromValue(TypeInt, IntExpr(-3))
	require.NoError(t, err)

	n, ok := it.Int()
	require.True(t, ok)
	assert.Equal(t, int64(-3), n.Int64())
	assert.True(t, it.IsLeaf())
	assert.False(t, it.IsPlaceholder())
}

func TestItem_BoolLiteral(t *testing.T) {
	it, err := ItemFromValue(TypeBool, PrimExpr("False"))
	require.NoError(t, err)

	b, ok := it.Bool()
	require.True(t, ok)
	assert.False(t, b)

	_, ok = Placeholder(TypeBool, "flag").Bool()
	assert.False(t, ok, "a placeholder has no literal")
}

func TestItem_String(t *testing.T) {
	amount := LiteralItem(TypeMutez, "AMOUNT")
	zero := LiteralItem(TypeMutez, "0")
	sender := LiteralItem(TypeAddress, "SENDER")
	param := Placeholder(TypeInt, "parameter")

	tests := []struct {
		name string
		item *Item
		want string
	}{
		{"placeholder", param, "parameter:int"},
		{"bare placeholder", Placeholder(TypeNat), "nat"},
		{"comparison", NewItem(TypeBool, "GT", NewItem(TypeInt, "COMPARE", amount, zero)), "AMOUNT > 0"},
		{"infix", NewItem(TypeInt, "ADD", param, NewItem(TypeInt, "MUL", param, param)), "parameter:int + (parameter:int * parameter:int)"},
		{"bare EQ", NewItem(TypeBool, "EQ", param), "EQ(parameter:int)"},
		{
			"transfer",
			NewItem(TypeOperation, "TRANSFER_TOKENS",
				LiteralItem(TypeUnit, "Unit"),
				amount,
				NewItem(NewType("contract", TypeUnit), "IMPLICIT_ACCOUNT", sender)),
			"TRANSFER_TO(CONTRACT(SENDER), AMOUNT, Unit)",
		},
		{"fail", FailItem(LiteralItem(TypeString, "nope")), `FAIL("nope")`},
		{"default", NewItem(TypeBytes, "PACK", param), "PACK(parameter:int)"},
		{"nullary", NewItem(NewType("list", TypeInt), "NIL"), "NIL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.String())
		})
	}
}

func TestItem_Reduce(t *testing.T) {
	one := LiteralItem(TypeInt, "1")
	pair := Composite(NewType("pair", TypeInt, TypeInt), nil, one, Placeholder(TypeInt))

	car := NewItem(TypeInt, "CAR", pair)
	assert.Same(t, one, car.Reduce())

	left := Composite(NewType("or", TypeInt, TypeNat), "Left", one)
	proj := NewItem(TypeInt, "IF_LEFT.0", left)
	assert.Same(t, one, proj.Reduce())

	wrong := NewItem(TypeNat, "IF_LEFT.1", left)
	assert.Same(t, wrong, wrong.Reduce(), "right projection of a Left must not collapse")

	nested := NewItem(TypeInt, "ADD", car, Placeholder(TypeInt, "x"))
	reduced := nested.Reduce()
	assert.NotSame(t, nested, reduced)
	assert.Equal(t, "1 + x:int", reduced.String())
	assert.Equal(t, "CAR((1, int)) + x:int", nested.String(), "reduce must not mutate the receiver")
}

func TestItem_Sub(t *testing.T) {
	a, b := Placeholder(TypeInt, "a"), Placeholder(TypeInt, "b")
	p := Composite(NewType("pair", TypeInt, TypeInt), nil, a, b)
	wrapped := NewItem(TypeInt, "CDR", p)

	assert.Same(t, b, wrapped.Sub(0, 1))
	assert.Nil(t, wrapped.Sub(0, 2))
	assert.Same(t, wrapped, wrapped.Sub())
}
