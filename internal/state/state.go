// Package state owns the mutable runtime of one interpreter instance: the
// operand stack, the stack of flat call frames, the temp slot, loop-control
// flags and the diagnostic log.
package state

import (
	"fmt"
	"log/slog"

	"github.com/funvibe/stak/internal/token"
)

// Frame holds one call's bindings. Frames do not chain: lookups only ever
// consult the top frame.
type Frame map[string]token.Token

// Diagnostic is a recoverable runtime error.
type Diagnostic struct {
	Message string
	Line    int
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

type State struct {
	Stack  []token.Token
	Frames []Frame
	Temp   token.Token
	Errors []Diagnostic

	ExitLoop     bool
	ContinueLoop bool

	// Line is the source line of the token being evaluated; diagnostics are
	// stamped with it.
	Line int

	Logger *slog.Logger

	// bases[i] is the lowest stack height frame i has touched. Values below
	// a frame's base were pushed by its callers.
	bases []int
}

// New returns a state with the global frame already pushed.
func New() *State {
	s := &State{Logger: slog.Default()}
	s.PushFrame()
	return s
}

// Logf appends a diagnostic. Execution continues.
func (s *State) Logf(format string, args ...interface{}) {
	d := Diagnostic{Message: fmt.Sprintf(format, args...), Line: s.Line}
	s.Errors = append(s.Errors, d)
	if s.Logger != nil {
		s.Logger.Debug("runtime diagnostic", "line", d.Line, "message", d.Message)
	}
}

// TakeErrors returns the diagnostics logged so far and clears the log.
func (s *State) TakeErrors() []Diagnostic {
	errs := s.Errors
	s.Errors = nil
	return errs
}

func (s *State) Push(v token.Token) {
	s.Stack = append(s.Stack, v)
}

func (s *State) Pop() (token.Token, bool) {
	n := len(s.Stack)
	if n == 0 {
		return nil, false
	}
	v := s.Stack[n-1]
	s.Stack[n-1] = nil
	s.Stack = s.Stack[:n-1]
	s.lower(n - 1)
	return v, true
}

func (s *State) Peek() (token.Token, bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	return s.Stack[len(s.Stack)-1], true
}

func (s *State) Len() int { return len(s.Stack) }

// Truncate drops everything above height n.
func (s *State) Truncate(n int) {
	if n < 0 || n >= len(s.Stack) {
		return
	}
	for i := n; i < len(s.Stack); i++ {
		s.Stack[i] = nil
	}
	s.Stack = s.Stack[:n]
	s.lower(n)
}

func (s *State) lower(h int) {
	top := len(s.bases) - 1
	if top >= 0 && h < s.bases[top] {
		s.bases[top] = h
	}
}

// Base is the lowest stack height the top frame has reached. Everything at
// or above it was pushed while the frame was on top.
func (s *State) Base() int {
	return s.bases[len(s.bases)-1]
}

func (s *State) PushFrame() {
	s.Frames = append(s.Frames, make(Frame))
	s.bases = append(s.bases, len(s.Stack))
}

func (s *State) PopFrame() Frame {
	n := len(s.Frames)
	if n <= 1 {
		// The global frame is never popped.
		return nil
	}
	f := s.Frames[n-1]
	base := s.bases[n-1]
	s.Frames[n-1] = nil
	s.Frames = s.Frames[:n-1]
	s.bases = s.bases[:n-1]
	s.lower(base)
	return f
}

func (s *State) Top() Frame { return s.Frames[len(s.Frames)-1] }

// Below returns the frame under the top one, or nil at global level.
func (s *State) Below() Frame {
	if len(s.Frames) < 2 {
		return nil
	}
	return s.Frames[len(s.Frames)-2]
}

func (s *State) Depth() int { return len(s.Frames) }

// Insert binds name in the top frame. Binding the discard name is a no-op.
func (s *State) Insert(name string, v token.Token) {
	if name == token.Discard {
		return
	}
	s.Top()[name] = v
}

func (s *State) Remove(name string) {
	delete(s.Top(), name)
}

// GetFromHeap looks name up in the top frame without touching the stack.
func (s *State) GetFromHeap(name string) (token.Token, bool) {
	v, ok := s.Top()[name]
	return v, ok
}

// GetFromHeapOrPop pops the operand stack and resolves an Identifier. The
// name is looked up in the frame that was on top when the value was pushed,
// which is the top frame for everything a block pushes itself. An unknown
// identifier is logged and yields nothing; every other value is returned
// unchanged.
func (s *State) GetFromHeapOrPop() (token.Token, bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	frame := s.owner(len(s.Stack) - 1)
	v, _ := s.Pop()
	return s.resolveIn(frame, v)
}

// Resolve maps an Identifier to its binding in the top frame.
func (s *State) Resolve(v token.Token) (token.Token, bool) {
	return s.resolveIn(s.Top(), v)
}

func (s *State) resolveIn(f Frame, v token.Token) (token.Token, bool) {
	id, isIdent := v.(*token.Identifier)
	if !isIdent {
		return v, true
	}
	bound, ok := f[id.Name]
	if !ok {
		s.Logf("unknown identifier %s", id.Name)
		return nil, false
	}
	return bound, true
}

// owner returns the frame that was on top when stack height h was filled.
func (s *State) owner(h int) Frame {
	for i := len(s.Frames) - 1; i > 0; i-- {
		if h >= s.bases[i] {
			return s.Frames[i]
		}
	}
	return s.Frames[0]
}

// ResolveTop resolves Identifiers in the top n stack slots in place, each
// against its owning frame. It reports false if a name is unbound.
func (s *State) ResolveTop(n int) bool {
	ok := true
	for i := len(s.Stack) - n; i < len(s.Stack); i++ {
		if i < 0 {
			continue
		}
		if _, isIdent := s.Stack[i].(*token.Identifier); !isIdent {
			continue
		}
		v, bound := s.resolveIn(s.owner(i), s.Stack[i])
		if !bound {
			ok = false
			continue
		}
		s.Stack[i] = v
	}
	return ok
}

// ResolveFrom replaces Identifiers at stack heights >= from with their
// bindings in the top frame. Unbound names are left as they are.
func (s *State) ResolveFrom(from int) {
	if from < 0 {
		from = 0
	}
	top := s.Top()
	for i := from; i < len(s.Stack); i++ {
		if id, ok := s.Stack[i].(*token.Identifier); ok {
			if v, bound := top[id.Name]; bound {
				s.Stack[i] = v
			}
		}
	}
}

// At returns the value offset slots below the stack top (0 is the top).
func (s *State) At(offset int) (token.Token, bool) {
	i := len(s.Stack) - 1 - offset
	if offset < 0 || i < 0 {
		return nil, false
	}
	return s.Stack[i], true
}

// Set replaces the value offset slots below the stack top.
func (s *State) Set(offset int, v token.Token) bool {
	i := len(s.Stack) - 1 - offset
	if offset < 0 || i < 0 {
		return false
	}
	s.Stack[i] = v
	return true
}

// ClearLoop drops a pending break or continue.
func (s *State) ClearLoop() {
	s.ExitLoop = false
	s.ContinueLoop = false
}
