// Package parser reorders one nesting level of lexed tokens into execution
// order with a two-stack shunting-yard pass. Nested blocks are reordered by
// a fresh parser and re-wrapped in their original variant.
package parser

import (
	"github.com/funvibe/stak/internal/token"
)

// Binding powers. Assignment is lowest, member access highest.
const (
	LOWEST    = iota
	CALL      // name: deferred call
	OR        // or
	AND       // and
	EQUALS    // == !=
	COMPARE   // < >
	SUM       // + -
	PRODUCT   // * / %
	PREFIX    // -x not x !x
	ACCESS    // a.b
)

var precedences = map[token.Op]int{
	token.OP_ASSIGN: LOWEST,
	token.OP_IF:     LOWEST,
	token.OP_FOR:    LOWEST,
	token.OP_OR:     OR,
	token.OP_AND:    AND,
	token.OP_EQ:     EQUALS,
	token.OP_NE:     EQUALS,
	token.OP_LT:     COMPARE,
	token.OP_GT:     COMPARE,
	token.OP_ADD:    SUM,
	token.OP_SUB:    SUM,
	token.OP_MUL:    PRODUCT,
	token.OP_DIV:    PRODUCT,
	token.OP_MOD:    PRODUCT,
	token.OP_NEG:    PREFIX,
	token.OP_NOT:    PREFIX,
	token.OP_ACCESS: ACCESS,
}

// prefixOps never pop anything when pushed.
var prefixOps = map[token.Op]bool{
	token.OP_IF:  true,
	token.OP_FOR: true,
	token.OP_NEG: true,
	token.OP_NOT: true,
}

// stackWords run where they stand.
var stackWords = map[token.Op]bool{
	token.OP_BREAK:    true,
	token.OP_CONTINUE: true,
	token.OP_DUP:      true,
	token.OP_BIND:     true,
}

func rightAssoc(op token.Op) bool {
	return op == token.OP_ASSIGN || op == token.OP_NEG || op == token.OP_NOT
}

type Parser struct {
	out []token.Token
	ops []token.Token
}

func New() *Parser {
	return &Parser{}
}

// Parse reorders toks. The parser can be reused.
func (p *Parser) Parse(toks []token.Token) []token.Token {
	p.out = make([]token.Token, 0, len(toks))
	p.ops = p.ops[:0]
	for _, t := range toks {
		p.next(t)
	}
	for len(p.ops) > 0 {
		t := p.pop()
		if token.IsOp(t, token.OP_LPAREN) {
			continue
		}
		p.out = append(p.out, t)
	}
	return p.out
}

// Parse is a convenience wrapper around a fresh Parser.
func Parse(toks []token.Token) []token.Token {
	return New().Parse(toks)
}

func (p *Parser) next(t token.Token) {
	switch v := t.(type) {
	case *token.Identifier:
		p.out = append(p.out, v)
		if top := p.top(); top != nil && token.IsOp(top, token.OP_ACCESS) {
			p.out = append(p.out, p.pop())
		}

	case *token.Block:
		nb := v.Rewrap(Parse(v.Body), parseOptional(v.Setup))
		if nb.Type == token.LAMBDA_BLOCK {
			p.ops = append(p.ops, nb)
			return
		}
		// A block ends the expression in front of it (if a > b { ... }).
		p.flushAbove(OR)
		p.out = append(p.out, nb)

	case *token.Builtin:
		if v.Deferred {
			p.ops = append(p.ops, v)
			return
		}
		p.out = append(p.out, v)

	case *token.Call:
		if v.Deferred {
			p.ops = append(p.ops, v)
			return
		}
		p.out = append(p.out, v)

	case *token.TempCall:
		p.ops = append(p.ops, v)

	case *token.Operator:
		p.operator(v)

	default:
		p.out = append(p.out, t)
	}
}

func parseOptional(toks []token.Token) []token.Token {
	if toks == nil {
		return nil
	}
	return Parse(toks)
}

func (p *Parser) operator(o *token.Operator) {
	switch {
	case stackWords[o.Op]:
		p.out = append(p.out, o)

	case o.Op == token.OP_LPAREN:
		p.ops = append(p.ops, o)

	case o.Op == token.OP_RPAREN:
		for len(p.ops) > 0 && !token.IsOp(p.top(), token.OP_LPAREN) {
			p.out = append(p.out, p.pop())
		}
		if len(p.ops) > 0 {
			p.pop()
		}
		if top := p.top(); top != nil && isCallLike(top) {
			p.out = append(p.out, p.pop())
		}

	case o.Op == token.OP_SEPARATOR || o.Op == token.OP_COMMA:
		p.flushAbove(LOWEST)

	case prefixOps[o.Op]:
		p.ops = append(p.ops, o)

	default:
		prec := precedences[o.Op]
		for len(p.ops) > 0 {
			top := p.top()
			if token.IsOp(top, token.OP_LPAREN) {
				break
			}
			tp := precedence(top)
			if tp > prec || (tp == prec && !rightAssoc(o.Op)) {
				p.out = append(p.out, p.pop())
				continue
			}
			break
		}
		p.ops = append(p.ops, o)
	}
}

// flushAbove moves pending operators of at least min precedence to the
// output, stopping at the innermost open parenthesis.
func (p *Parser) flushAbove(min int) {
	for len(p.ops) > 0 {
		top := p.top()
		if token.IsOp(top, token.OP_LPAREN) || precedence(top) < min {
			return
		}
		p.out = append(p.out, p.pop())
	}
}

func precedence(t token.Token) int {
	if o, ok := t.(*token.Operator); ok {
		return precedences[o.Op]
	}
	return CALL
}

func isCallLike(t token.Token) bool {
	switch v := t.(type) {
	case *token.Builtin:
		return v.Deferred
	case *token.Call:
		return v.Deferred
	case *token.TempCall:
		return true
	case *token.Block:
		return v.Type == token.LAMBDA_BLOCK
	}
	return false
}

func (p *Parser) top() token.Token {
	if len(p.ops) == 0 {
		return nil
	}
	return p.ops[len(p.ops)-1]
}

func (p *Parser) pop() token.Token {
	t := p.ops[len(p.ops)-1]
	p.ops = p.ops[:len(p.ops)-1]
	return t
}
