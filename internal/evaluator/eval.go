package evaluator

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/funvibe/stak/internal/state"
	"github.com/funvibe/stak/internal/token"
)

// Loader turns a source file into an execution-ordered token stream. It is
// supplied by whoever owns the lexer and parser, so the evaluator never
// imports them.
type Loader interface {
	Load(path string) ([]token.Token, error)
}

// cancelCheckInterval is how many tokens run between context checks.
const cancelCheckInterval = 256

type Evaluator struct {
	// Context for cancellation
	Context context.Context

	State    *state.State
	Builtins *Registry
	Loader   Loader

	Out io.Writer
	In  *bufio.Reader

	Logger *slog.Logger

	// BaseDir for relative file paths in import/load
	BaseDir string

	halted   bool
	exitCode int
	steps    int
	depth    int
	loops    int
}

func New(st *state.State, builtins *Registry) *Evaluator {
	if builtins == nil {
		builtins = NewRegistry()
	}
	return &Evaluator{
		Context:  context.Background(),
		State:    st,
		Builtins: builtins,
		Out:      os.Stdout,
		In:       bufio.NewReader(os.Stdin),
		Logger:   st.Logger,
		BaseDir:  ".",
	}
}

// Exit stops evaluation as soon as the current token finishes.
func (e *Evaluator) Exit(code int) {
	e.halted = true
	e.exitCode = code
}

// Halted reports whether exit was called or the context was cancelled, and
// the requested exit code.
func (e *Evaluator) Halted() (bool, int) {
	return e.halted, e.exitCode
}

func (e *Evaluator) stopped() bool {
	if e.halted {
		return true
	}
	e.steps++
	if e.steps%cancelCheckInterval == 0 && e.Context.Err() != nil {
		e.State.Logf("evaluation stopped: %v", e.Context.Err())
		e.Exit(1)
	}
	return e.halted
}

// Run evaluates toks in order. It returns early once break or continue is
// pending so the enclosing loop can react after any single token.
func (e *Evaluator) Run(toks []token.Token) {
	for _, t := range toks {
		if e.stopped() {
			return
		}
		e.Eval(t)
		if e.State.ExitLoop || e.State.ContinueLoop {
			return
		}
	}
}

// Eval dispatches a single token.
func (e *Evaluator) Eval(t token.Token) {
	if line := t.Line(); line > 0 {
		e.State.Line = line
	}
	switch v := t.(type) {
	case *token.Operator:
		e.operator(v)
	case *token.Builtin:
		e.callBuiltin(v)
	case *token.Call:
		e.callNamed(v)
	case *token.TempCall:
		e.callTemp()
	case *token.Store:
		if val, ok := e.Pop("store"); ok {
			e.State.Temp = val
		}
	case *token.Block:
		switch v.Type {
		case token.LAMBDA_BLOCK:
			e.runIsolated(v.Body)
		case token.LIST_BLOCK:
			e.buildList(v)
		default:
			e.State.Push(v)
		}
	default:
		e.State.Push(t)
	}
}
