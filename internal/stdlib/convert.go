package stdlib

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/token"
)

func registerConversions(reg *evaluator.Registry) {
	reg.Register("str", func(e *evaluator.Evaluator) {
		if v, ok := e.Pop("str"); ok {
			e.Push(&token.String{Value: token.Stringify(v)})
		}
	})

	reg.Register("int", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("int")
		if !ok {
			return
		}
		n, err := toInt(v)
		if err != nil {
			e.Logf("int: %v", err)
			return
		}
		e.Push(n)
	})

	reg.Register("float", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("float")
		if !ok {
			return
		}
		f, err := toFloat(v)
		if err != nil {
			e.Logf("float: %v", err)
			return
		}
		e.Push(f)
	})

	reg.Register("type", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("type")
		if !ok {
			return
		}
		name := v.Kind().String()
		if b, isBlock := v.(*token.Block); isBlock {
			name = b.Type.String()
		}
		e.Push(&token.String{Value: name})
	})
}

func toInt(v token.Token) (token.Token, error) {
	switch x := v.(type) {
	case *token.Integer:
		return x, nil
	case *token.Float:
		if math.IsNaN(x.Value) || math.IsInf(x.Value, 0) {
			return nil, fmt.Errorf("cannot convert %s to Integer", x.Inspect())
		}
		n, _ := big.NewFloat(math.Trunc(x.Value)).Int(nil)
		return token.NewBigInt(n), nil
	case *token.String:
		n, ok := new(big.Int).SetString(strings.TrimSpace(x.Value), 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", x.Value)
		}
		return token.NewBigInt(n), nil
	case *token.Char:
		return token.NewInt(int64(x.Value)), nil
	case *token.Bool:
		if x.Value {
			return token.NewInt(1), nil
		}
		return token.NewInt(0), nil
	}
	return nil, fmt.Errorf("cannot convert %s to Integer", v.Kind())
}

func toFloat(v token.Token) (token.Token, error) {
	switch x := v.(type) {
	case *token.Float:
		return x, nil
	case *token.Integer:
		f, _ := token.AsFloat(x)
		return &token.Float{Value: f}, nil
	case *token.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(x.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", x.Value)
		}
		return &token.Float{Value: f}, nil
	}
	return nil, fmt.Errorf("cannot convert %s to Float", v.Kind())
}

// ToGo converts a value to plain Go data: int64 (or a decimal string when it
// does not fit), float64, string, bool and []interface{}. Blocks and names
// are rendered with Inspect.
func ToGo(v token.Token) interface{} {
	switch x := v.(type) {
	case *token.Integer:
		if x.Value.IsInt64() {
			return x.Value.Int64()
		}
		return x.Value.String()
	case *token.Float:
		return x.Value
	case *token.String:
		return x.Value
	case *token.Char:
		return string(x.Value)
	case *token.Bool:
		return x.Value
	case *token.List:
		out := make([]interface{}, len(x.Elems))
		for i, el := range x.Elems {
			out[i] = ToGo(el)
		}
		return out
	case nil:
		return nil
	}
	return v.Inspect()
}

// FromGo converts Go data to a value. Maps become Literal blocks that bind
// each key, so fields are read with `.`; nil becomes false.
func FromGo(v interface{}) (token.Token, error) {
	switch x := v.(type) {
	case token.Token:
		return x, nil
	case nil:
		return &token.Bool{Value: false}, nil
	case bool:
		return &token.Bool{Value: x}, nil
	case int:
		return token.NewInt(int64(x)), nil
	case int32:
		return token.NewInt(int64(x)), nil
	case int64:
		return token.NewInt(x), nil
	case uint:
		return token.NewBigInt(new(big.Int).SetUint64(uint64(x))), nil
	case uint64:
		return token.NewBigInt(new(big.Int).SetUint64(x)), nil
	case *big.Int:
		return token.NewBigInt(new(big.Int).Set(x)), nil
	case float32:
		return &token.Float{Value: float64(x)}, nil
	case float64:
		return &token.Float{Value: x}, nil
	case string:
		return &token.String{Value: x}, nil
	case []string:
		elems := make([]token.Token, len(x))
		for i, s := range x {
			elems[i] = &token.String{Value: s}
		}
		return token.NewList(elems), nil
	case []interface{}:
		elems := make([]token.Token, len(x))
		for i, item := range x {
			el, err := FromGo(item)
			if err != nil {
				return nil, err
			}
			elems[i] = el
		}
		return token.NewList(elems), nil
	case map[string]interface{}:
		return fieldsBlock(x)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, val := range x {
			m[fmt.Sprintf("%v", k)] = val
		}
		return fieldsBlock(m)
	}
	return nil, fmt.Errorf("unsupported Go value of type %T", v)
}

func fieldsBlock(m map[string]interface{}) (token.Token, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	frame := make(map[string]token.Token, len(m))
	for _, k := range keys {
		v, err := FromGo(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		frame[k] = v
	}
	return token.NewBlock(token.LITERAL_BLOCK, evaluator.Snapshot(frame)), nil
}
