package evaluator

import (
	"github.com/funvibe/stak/internal/token"
)

func (e *Evaluator) Push(v token.Token) {
	e.State.Push(v)
}

// Pop takes one resolved operand for the operation named what, logging
// "not enough arguments" on an empty stack.
func (e *Evaluator) Pop(what string) (token.Token, bool) {
	if e.State.Len() == 0 {
		e.State.Logf("not enough arguments for %s", what)
		return nil, false
	}
	return e.State.GetFromHeapOrPop()
}

// PopRaw takes one operand without resolving identifiers.
func (e *Evaluator) PopRaw(what string) (token.Token, bool) {
	v, ok := e.State.Pop()
	if !ok {
		e.State.Logf("not enough arguments for %s", what)
	}
	return v, ok
}

// Pop2 takes the right operand first, then the left.
func (e *Evaluator) Pop2(what string) (left, right token.Token, ok bool) {
	right, ok = e.Pop(what)
	if !ok {
		return nil, nil, false
	}
	left, ok = e.Pop(what)
	if !ok {
		return nil, nil, false
	}
	return left, right, true
}

func (e *Evaluator) PopInt(what string) (int64, bool) {
	v, ok := e.Pop(what)
	if !ok {
		return 0, false
	}
	n, ok := token.AsInt64(v)
	if !ok {
		e.State.Logf("%s expects an Integer, got %s", what, v.Kind())
	}
	return n, ok
}

func (e *Evaluator) PopString(what string) (string, bool) {
	v, ok := e.Pop(what)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case *token.String:
		return s.Value, true
	case *token.Char:
		return string(s.Value), true
	}
	e.State.Logf("%s expects a String, got %s", what, v.Kind())
	return "", false
}

func (e *Evaluator) PopList(what string) (*token.List, bool) {
	v, ok := e.Pop(what)
	if !ok {
		return nil, false
	}
	l, isList := v.(*token.List)
	if !isList {
		e.State.Logf("%s expects a List, got %s", what, v.Kind())
	}
	return l, isList
}

func (e *Evaluator) PopBlock(what string) (*token.Block, bool) {
	v, ok := e.Pop(what)
	if !ok {
		return nil, false
	}
	b, isBlock := v.(*token.Block)
	if !isBlock {
		e.State.Logf("%s expects a Block, got %s", what, v.Kind())
	}
	return b, isBlock
}

// Logf records a recoverable diagnostic.
func (e *Evaluator) Logf(format string, args ...interface{}) {
	e.State.Logf(format, args...)
}
