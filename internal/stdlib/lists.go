package stdlib

import (
	"unicode/utf8"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/token"
)

func registerLists(reg *evaluator.Registry) {
	reg.Register("len", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("len")
		if !ok {
			return
		}
		switch x := v.(type) {
		case *token.List:
			e.Push(token.NewInt(int64(len(x.Elems))))
		case *token.String:
			e.Push(token.NewInt(int64(utf8.RuneCountInString(x.Value))))
		case *token.Block:
			e.Push(token.NewInt(int64(len(x.Body))))
		default:
			e.Logf("len expects a List, String or Block, got %s", v.Kind())
		}
	})

	reg.Register("get", func(e *evaluator.Evaluator) {
		idx, ok := e.PopInt("get")
		if !ok {
			return
		}
		v, ok := e.Pop("get")
		if !ok {
			return
		}
		switch x := v.(type) {
		case *token.List:
			i, ok := index(e, idx, len(x.Elems))
			if ok {
				e.Push(x.Elems[i])
			}
		case *token.String:
			runes := []rune(x.Value)
			i, ok := index(e, idx, len(runes))
			if ok {
				e.Push(&token.Char{Value: runes[i]})
			}
		default:
			e.Logf("get expects a List or String, got %s", v.Kind())
		}
	})

	reg.Register("push", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("push")
		if !ok {
			return
		}
		l, ok := e.PopList("push")
		if !ok {
			return
		}
		e.Push(token.NewList(append(token.Clone(l.Elems), v)))
	})

	reg.Register("first", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("first")
		if !ok {
			return
		}
		switch x := v.(type) {
		case *token.List:
			if len(x.Elems) == 0 {
				e.Logf("first of an empty List")
				return
			}
			e.Push(x.Elems[0])
		case *token.String:
			r, size := utf8.DecodeRuneInString(x.Value)
			if size == 0 {
				e.Logf("first of an empty String")
				return
			}
			e.Push(&token.Char{Value: r})
		default:
			e.Logf("first expects a List or String, got %s", v.Kind())
		}
	})

	reg.Register("rest", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("rest")
		if !ok {
			return
		}
		switch x := v.(type) {
		case *token.List:
			if len(x.Elems) == 0 {
				e.Push(token.NewList(nil))
				return
			}
			e.Push(token.NewList(token.Clone(x.Elems[1:])))
		case *token.String:
			_, size := utf8.DecodeRuneInString(x.Value)
			e.Push(&token.String{Value: x.Value[size:]})
		default:
			e.Logf("rest expects a List or String, got %s", v.Kind())
		}
	})

	reg.Register("range", func(e *evaluator.Evaluator) {
		n, ok := e.PopInt("range")
		if !ok {
			return
		}
		if n < 0 {
			e.Logf("range expects a non-negative count, got %d", n)
			return
		}
		elems := make([]token.Token, n)
		for i := range elems {
			elems[i] = token.NewInt(int64(i))
		}
		e.Push(token.NewList(elems))
	})

	reg.Register("reverse", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("reverse")
		if !ok {
			return
		}
		switch x := v.(type) {
		case *token.List:
			out := make([]token.Token, len(x.Elems))
			for i, el := range x.Elems {
				out[len(out)-1-i] = el
			}
			e.Push(token.NewList(out))
		case *token.String:
			runes := []rune(x.Value)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			e.Push(&token.String{Value: string(runes)})
		default:
			e.Logf("reverse expects a List or String, got %s", v.Kind())
		}
	})
}

// index maps a possibly negative index onto [0, n).
func index(e *evaluator.Evaluator, idx int64, n int) (int, bool) {
	i := idx
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		e.Logf("index %d out of range for length %d", idx, n)
		return 0, false
	}
	return int(i), true
}
