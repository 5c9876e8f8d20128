package state

import (
	"strings"
	"testing"

	"github.com/funvibe/stak/internal/token"
)

func TestGetFromHeapOrPop(t *testing.T) {
	s := New()
	s.Insert("x", token.NewInt(5))

	s.Push(&token.Identifier{Name: "x"})
	v, ok := s.GetFromHeapOrPop()
	if !ok {
		t.Fatal("expected x to resolve")
	}
	if !token.Equal(v, token.NewInt(5)) {
		t.Errorf("got %s, want 5", v.Inspect())
	}

	s.Push(&token.String{Value: "plain"})
	v, ok = s.GetFromHeapOrPop()
	if !ok || v.(*token.String).Value != "plain" {
		t.Errorf("non-identifier should pass through, got %v", v)
	}

	s.Push(&token.Identifier{Name: "missing"})
	if _, ok := s.GetFromHeapOrPop(); ok {
		t.Error("unknown identifier should not resolve")
	}
	if len(s.Errors) != 1 || !strings.Contains(s.Errors[0].Message, "unknown identifier missing") {
		t.Errorf("unexpected diagnostics: %v", s.Errors)
	}

	if _, ok := s.GetFromHeapOrPop(); ok {
		t.Error("pop on empty stack should fail")
	}
}

func TestFlatScoping(t *testing.T) {
	s := New()
	s.Insert("outer", token.NewInt(1))
	s.PushFrame()
	if _, ok := s.GetFromHeap("outer"); ok {
		t.Error("lookup must not consult frames below the top")
	}
	if s.Below()["outer"] == nil {
		t.Error("Below should expose the caller frame")
	}
	s.PopFrame()
	if _, ok := s.GetFromHeap("outer"); !ok {
		t.Error("binding lost after popping inner frame")
	}
	if s.PopFrame() != nil || s.Depth() != 1 {
		t.Error("global frame must never be popped")
	}
}

func TestDiscardInsert(t *testing.T) {
	s := New()
	s.Insert(token.Discard, token.NewInt(1))
	if _, ok := s.GetFromHeap(token.Discard); ok {
		t.Error("discard name must never be bound")
	}
}

func TestFrameBase(t *testing.T) {
	s := New()
	s.Push(token.NewInt(1))
	s.Push(token.NewInt(2))
	s.PushFrame()
	if s.Base() != 2 {
		t.Fatalf("base = %d, want 2", s.Base())
	}
	s.Pop()
	s.Pop()
	s.Push(token.NewInt(3))
	if s.Base() != 0 {
		t.Errorf("base = %d, want 0 after consuming caller values", s.Base())
	}
	s.PopFrame()
	if s.Base() != 0 {
		t.Errorf("caller base = %d, want 0", s.Base())
	}
}

func TestCallerValuesResolveInCallerFrame(t *testing.T) {
	s := New()
	s.Insert("x", token.NewInt(4))
	s.Push(&token.Identifier{Name: "x"})
	s.PushFrame()
	s.Insert("x", token.NewInt(99))
	s.Push(&token.Identifier{Name: "x"})

	v, _ := s.GetFromHeapOrPop()
	if !token.Equal(v, token.NewInt(99)) {
		t.Errorf("callee value = %s, want 99", v.Inspect())
	}
	v, _ = s.GetFromHeapOrPop()
	if !token.Equal(v, token.NewInt(4)) {
		t.Errorf("caller value = %s, want 4", v.Inspect())
	}
}

func TestResolveTop(t *testing.T) {
	s := New()
	s.Insert("n", token.NewInt(3))
	s.Push(&token.Identifier{Name: "n"})
	s.Push(token.NewInt(0))
	if !s.ResolveTop(2) {
		t.Fatal("expected every name to resolve")
	}
	if !token.Equal(s.Stack[0], token.NewInt(3)) {
		t.Errorf("n not resolved: %s", s.Stack[0].Inspect())
	}
	s.Push(&token.Identifier{Name: "ghost"})
	if s.ResolveTop(1) {
		t.Error("unbound name should fail")
	}
}

func TestClearLoop(t *testing.T) {
	s := New()
	s.ExitLoop = true
	s.ContinueLoop = true
	s.ClearLoop()
	if s.ExitLoop || s.ContinueLoop {
		t.Errorf("flags survived: exit=%v continue=%v", s.ExitLoop, s.ContinueLoop)
	}
}

func TestResolveFrom(t *testing.T) {
	s := New()
	s.Insert("a", token.NewInt(9))
	s.Push(&token.Identifier{Name: "a"})
	s.Push(&token.Identifier{Name: "unbound"})
	s.ResolveFrom(0)
	if !token.Equal(s.Stack[0], token.NewInt(9)) {
		t.Errorf("a not resolved: %s", s.Stack[0].Inspect())
	}
	if _, ok := s.Stack[1].(*token.Identifier); !ok {
		t.Error("unbound identifier should stay an identifier")
	}
}

func TestWindowAccess(t *testing.T) {
	s := New()
	s.Push(token.NewInt(1))
	s.Push(token.NewInt(2))
	if v, _ := s.At(0); !token.Equal(v, token.NewInt(2)) {
		t.Errorf("At(0) = %s", v.Inspect())
	}
	if !s.Set(1, token.NewInt(7)) {
		t.Fatal("Set(1) failed")
	}
	if !token.Equal(s.Stack[0], token.NewInt(7)) {
		t.Errorf("Set wrote the wrong slot")
	}
	if _, ok := s.At(2); ok {
		t.Error("out of range offset should fail")
	}
}
