package stdlib

import (
	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/token"
)

// Stack words shuffle values in place and never resolve names.
func registerStack(reg *evaluator.Registry) {
	reg.Register("drop", func(e *evaluator.Evaluator) {
		e.PopRaw("drop")
	})

	reg.Register("dup", func(e *evaluator.Evaluator) {
		v, ok := e.State.Peek()
		if !ok {
			e.Logf("not enough arguments for dup")
			return
		}
		e.Push(v)
	})

	reg.Register("swap", func(e *evaluator.Evaluator) {
		if !need(e, "swap", 2) {
			return
		}
		a, _ := e.State.At(0)
		b, _ := e.State.At(1)
		e.State.Set(0, b)
		e.State.Set(1, a)
	})

	reg.Register("over", func(e *evaluator.Evaluator) {
		if !need(e, "over", 2) {
			return
		}
		v, _ := e.State.At(1)
		e.Push(v)
	})

	// a b c -> b c a
	reg.Register("rot", func(e *evaluator.Evaluator) {
		if !need(e, "rot", 3) {
			return
		}
		a, _ := e.State.At(2)
		b, _ := e.State.At(1)
		c, _ := e.State.At(0)
		e.State.Set(2, b)
		e.State.Set(1, c)
		e.State.Set(0, a)
	})

	// clear only drops what the current call pushed.
	reg.Register("clear", func(e *evaluator.Evaluator) {
		e.State.Truncate(e.State.Base())
	})

	reg.Register("depth", func(e *evaluator.Evaluator) {
		e.Push(token.NewInt(int64(e.State.Len())))
	})
}

func need(e *evaluator.Evaluator, what string, n int) bool {
	if e.State.Len() < n {
		e.Logf("not enough arguments for %s", what)
		return false
	}
	return true
}
