package token

import (
	"math/big"
	"testing"
)

func TestWrap128(t *testing.T) {
	one := big.NewInt(1)
	max := new(big.Int).Sub(new(big.Int).Lsh(one, 127), one)
	min := new(big.Int).Neg(new(big.Int).Lsh(one, 127))

	overflow := new(big.Int).Add(max, one)
	if got := Wrap128(overflow); got.Cmp(min) != 0 {
		t.Errorf("max+1 wrapped to %s, want %s", got, min)
	}
	underflow := new(big.Int).Sub(min, one)
	if got := Wrap128(underflow); got.Cmp(max) != 0 {
		t.Errorf("min-1 wrapped to %s, want %s", got, max)
	}
	if got := Wrap128(big.NewInt(-42)); got.Int64() != -42 {
		t.Errorf("in-range value changed: %s", got)
	}
}

func TestEqual(t *testing.T) {
	body := []Token{NewInt(1), NewInt(2), NewOp(OP_ADD, 0)}
	tests := []struct {
		name string
		a, b Token
		want bool
	}{
		{"ints", NewInt(3), &Integer{Pos: 7, Value: big.NewInt(3)}, true},
		{"int vs float", NewInt(1), &Float{Value: 1}, false},
		{"strings", &String{Value: "a"}, &String{Value: "a"}, true},
		{"chars", &Char{Value: 'a'}, &Char{Value: 'b'}, false},
		{"lists", NewList([]Token{NewInt(1), &String{Value: "x"}}), NewList([]Token{NewInt(1), &String{Value: "x"}}), true},
		{"list length", NewList([]Token{NewInt(1)}), NewList(nil), false},
		{"blocks", NewBlock(LITERAL_BLOCK, body), NewBlock(LITERAL_BLOCK, body), true},
		{"block variants", NewBlock(LITERAL_BLOCK, body), NewBlock(PROCEDURE_BLOCK, body), false},
		{"function params", &Block{Type: FUNCTION_BLOCK, Params: []string{"a"}}, &Block{Type: FUNCTION_BLOCK, Params: []string{"b"}}, false},
		{"identifiers", &Identifier{Name: "x"}, &Identifier{Name: "x"}, true},
		{"bools", &Bool{Value: true}, &Bool{Value: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a.Inspect(), tt.b.Inspect(), got, tt.want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{&Float{Value: 3.5}, "3.5"},
		{&Float{Value: 2}, "2.0"},
		{&String{Value: "hi"}, `"hi"`},
		{NewList([]Token{NewInt(1), NewInt(2)}), "[1 2]"},
		{&Block{Type: FUNCTION_BLOCK, Params: []string{"a", "b"}, Body: []Token{&Identifier{Name: "a"}}}, "[a b]: { a }"},
		{&Call{Module: "m", Name: "f"}, "m::f"},
	}
	for _, tt := range tests {
		if got := tt.tok.Inspect(); got != tt.want {
			t.Errorf("Inspect() = %q, want %q", got, tt.want)
		}
	}
}

func TestStringify(t *testing.T) {
	if got := Stringify(&Char{Value: 'a'}); got != "a" {
		t.Errorf("char stringified to %q", got)
	}
	if got := Stringify(&String{Value: "abc"}); got != "abc" {
		t.Errorf("string stringified to %q", got)
	}
	if got := Stringify(NewInt(123)); got != "123" {
		t.Errorf("integer stringified to %q", got)
	}
}
