package token

import "math/big"

// Equal is structural equality over the whole union. Different variants are
// never equal, so Integer 1 and Float 1.0 compare unequal. Source lines are
// ignored.
func Equal(a, b Token) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Integer:
		return x.Value.Cmp(b.(*Integer).Value) == 0
	case *Float:
		return x.Value == b.(*Float).Value
	case *String:
		return x.Value == b.(*String).Value
	case *Char:
		return x.Value == b.(*Char).Value
	case *Symbol:
		return x.Value == b.(*Symbol).Value
	case *Bool:
		return x.Value == b.(*Bool).Value
	case *Identifier:
		return x.Name == b.(*Identifier).Name
	case *Block:
		y := b.(*Block)
		if x.Type != y.Type || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if x.Params[i] != y.Params[i] {
				return false
			}
		}
		return equalSeq(x.Body, y.Body) && equalSeq(x.Setup, y.Setup)
	case *List:
		return equalSeq(x.Elems, b.(*List).Elems)
	case *Reg:
		y := b.(*Reg)
		if x.Entry != y.Entry || len(x.Code) != len(y.Code) {
			return false
		}
		for i := range x.Code {
			if x.Code[i] != y.Code[i] {
				return false
			}
		}
		return true
	case *Builtin:
		return x.Index == b.(*Builtin).Index
	case *Call:
		y := b.(*Call)
		return x.Module == y.Module && x.Name == y.Name
	case *TempCall, *Store:
		return true
	case *Operator:
		return x.Op == b.(*Operator).Op
	}
	return false
}

func equalSeq(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Stringify renders a value the way `+` concatenation and print see it:
// strings and chars unquoted, everything else as Inspect.
func Stringify(t Token) string {
	switch v := t.(type) {
	case *String:
		return v.Value
	case *Char:
		return string(v.Value)
	}
	return t.Inspect()
}

// Truthy is only defined for Bool; ok is false for every other value.
func Truthy(t Token) (value bool, ok bool) {
	b, isBool := t.(*Bool)
	if !isBool {
		return false, false
	}
	return b.Value, true
}

// AsInt64 converts an Integer that fits into int64.
func AsInt64(t Token) (int64, bool) {
	i, ok := t.(*Integer)
	if !ok || !i.Value.IsInt64() {
		return 0, false
	}
	return i.Value.Int64(), true
}

// Clone returns a shallow copy of a List's elements so callers can build a
// new List without aliasing the original.
func Clone(elems []Token) []Token {
	out := make([]Token, len(elems))
	copy(out, elems)
	return out
}

// BigOf returns the integer value of t, or nil.
func BigOf(t Token) *big.Int {
	if i, ok := t.(*Integer); ok {
		return i.Value
	}
	return nil
}

// AsFloat converts an Integer or Float to float64.
func AsFloat(t Token) (float64, bool) {
	switch v := t.(type) {
	case *Float:
		return v.Value, true
	case *Integer:
		f, _ := new(big.Float).SetInt(v.Value).Float64()
		return f, true
	}
	return 0, false
}
