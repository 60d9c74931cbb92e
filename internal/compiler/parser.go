package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// node mirrors one Micheline JSON object. Exactly one of Prim, Int, String
// or Bytes is expected to be set.
type node struct {
	Prim   string   `mapstructure:"prim"`
	Args   []any    `mapstructure:"args"`
	Annots []string `mapstructure:"annots"`
	Int    *string  `mapstructure:"int"`
	String *string  `mapstructure:"string"`
	Bytes  *string  `mapstructure:"bytes"`
}

// Parser converts Micheline JSON into contracts and instruction trees.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseContract accepts either a bare script (the array of parameter,
// storage and code sections) or an envelope object carrying it under
// "script" or "code", optionally alongside a "name".
func (p *Parser) ParseContract(data []byte) (*domain.Contract, error) {
	raw, err := decode(data)
	if err != nil {
		return nil, err
	}
	return p.contractFrom(raw)
}

// ParseCode decodes a bare instruction sequence.
func (p *Parser) ParseCode(data []byte) ([]domain.Instruction, error) {
	raw, err := decode(data)
	if err != nil {
		return nil, err
	}
	in, err := toInstruction(raw)
	if err != nil {
		return nil, err
	}
	if in.IsGroup() {
		return in.Body, nil
	}
	return []domain.Instruction{in}, nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode micheline: %w", err)
	}
	return raw, nil
}

func (p *Parser) contractFrom(raw any) (*domain.Contract, error) {
	switch v := raw.(type) {
	case []any:
		return sections(v)
	case map[string]any:
		name, _ := v["name"].(string)
		for _, key := range []string{"script", "code"} {
			inner, ok := v[key]
			if !ok {
				continue
			}
			c, err := p.contractFrom(inner)
			if err != nil {
				return nil, err
			}
			if name != "" {
				c.Name = name
			}
			return c, nil
		}
		return nil, fmt.Errorf("contract object has neither script nor code")
	}
	return nil, fmt.Errorf("unexpected contract shape %T", raw)
}

func sections(raw []any) (*domain.Contract, error) {
	c := &domain.Contract{}
	for _, item := range raw {
		var n node
		if err := mapstructure.Decode(item, &n); err != nil {
			return nil, fmt.Errorf("failed to decode section: %w", err)
		}
		if len(n.Args) != 1 {
			return nil, fmt.Errorf("section %q expects one argument, got %d", n.Prim, len(n.Args))
		}
		switch n.Prim {
		case "parameter", "storage":
			e, err := toExpr(n.Args[0])
			if err != nil {
				return nil, err
			}
			t, err := domain.TypeOf(e)
			if err != nil {
				return nil, fmt.Errorf("invalid %s type: %w", n.Prim, err)
			}
			if n.Prim == "parameter" {
				c.Parameter = t
			} else {
				c.Storage = t
			}
		case "code":
			in, err := toInstruction(n.Args[0])
			if err != nil {
				return nil, err
			}
			c.Code = in.Body
			if !in.IsGroup() {
				c.Code = []domain.Instruction{in}
			}
		default:
			return nil, fmt.Errorf("unknown section %q", n.Prim)
		}
	}
	switch {
	case c.Parameter == nil:
		return nil, fmt.Errorf("contract missing parameter section")
	case c.Storage == nil:
		return nil, fmt.Errorf("contract missing storage section")
	case c.Code == nil:
		return nil, fmt.Errorf("contract missing code section")
	}
	return c, nil
}

func toInstruction(raw any) (domain.Instruction, error) {
	if seq, ok := raw.([]any); ok {
		body := make([]domain.Instruction, 0, len(seq))
		for _, r := range seq {
			in, err := toInstruction(r)
			if err != nil {
				return domain.Instruction{}, err
			}
			body = append(body, in)
		}
		return domain.Group(body...), nil
	}

	var n node
	if err := mapstructure.Decode(raw, &n); err != nil {
		return domain.Instruction{}, fmt.Errorf("failed to decode instruction: %w", err)
	}
	if n.Prim == "" {
		return domain.Instruction{}, fmt.Errorf("instruction missing prim: %v", raw)
	}

	in := domain.Instruction{Prim: n.Prim, Annots: n.Annots}
	for _, a := range n.Args {
		// PUSH carries data; a sequence there is a literal, not code.
		if seq, ok := a.([]any); ok && n.Prim != "PUSH" {
			code, err := toInstruction(seq)
			if err != nil {
				return domain.Instruction{}, fmt.Errorf("%s: %w", n.Prim, err)
			}
			in.Args = append(in.Args, domain.CodeArg(code.Body...))
			continue
		}
		e, err := toExpr(a)
		if err != nil {
			return domain.Instruction{}, fmt.Errorf("%s: %w", n.Prim, err)
		}
		in.Args = append(in.Args, domain.LiteralArg(e))
	}
	return in, nil
}

func toExpr(raw any) (domain.Expr, error) {
	if seq, ok := raw.([]any); ok {
		items := make([]domain.Expr, 0, len(seq))
		for _, r := range seq {
			e, err := toExpr(r)
			if err != nil {
				return domain.Expr{}, err
			}
			items = append(items, e)
		}
		return domain.SeqExpr(items...), nil
	}

	var n node
	if err := mapstructure.Decode(raw, &n); err != nil {
		return domain.Expr{}, fmt.Errorf("failed to decode expression: %w", err)
	}
	switch {
	case n.Int != nil:
		return domain.Expr{Kind: domain.ExprInt, Text: *n.Int}, nil
	case n.String != nil:
		return domain.StringExpr(*n.String), nil
	case n.Bytes != nil:
		return domain.BytesExpr(*n.Bytes), nil
	case n.Prim == "":
		return domain.Expr{}, fmt.Errorf("expression has no prim: %v", raw)
	}

	e := domain.Expr{Kind: domain.ExprPrim, Prim: n.Prim, Annots: n.Annots}
	for _, a := range n.Args {
		sub, err := toExpr(a)
		if err != nil {
			return domain.Expr{}, err
		}
		e.Args = append(e.Args, sub)
	}
	return e, nil
}
