// Package stak embeds the stak interpreter in Go programs.
package stak

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/interp"
	"github.com/funvibe/stak/internal/pipeline"
	"github.com/funvibe/stak/internal/token"
)

// Options configures a VM. The zero value writes to stdout and reads stdin.
type Options = interp.Options

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ExitError reports that a script called exit. The VM evaluates nothing
// further afterwards.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("script exited with code %d", e.Code)
}

// RuntimeError collects the recoverable errors a run logged.
type RuntimeError struct {
	Messages []string
}

func (e *RuntimeError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// VM wraps one interpreter instance.
type VM struct {
	it         *interp.Interpreter
	marshaller *Marshaller
}

// New creates a VM with default options.
func New() (*VM, error) {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) (*VM, error) {
	it, err := interp.New(opts)
	if err != nil {
		return nil, err
	}
	return &VM{it: it, marshaller: NewMarshaller()}, nil
}

// Bind registers a Go function as a builtin word. Arguments are popped from
// the stack, last parameter on top. A trailing error result is logged as a
// runtime error instead of being pushed. Bind before evaluating code that
// uses the name.
func (v *VM) Bind(name string, fn interface{}) error {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return fmt.Errorf("bind %s: expected a function, got %T", name, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return fmt.Errorf("bind %s: variadic functions are not supported", name)
	}
	v.it.Register(name, func(e *evaluator.Evaluator) {
		v.hostCall(e, name, fv)
	})
	return nil
}

func (v *VM) hostCall(e *evaluator.Evaluator, name string, fn reflect.Value) {
	ft := fn.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := len(args) - 1; i >= 0; i-- {
		arg, ok := e.Pop(name)
		if !ok {
			return
		}
		val, err := v.marshaller.FromValue(arg, ft.In(i))
		if err != nil {
			e.Logf("%s: argument %d: %v", name, i+1, err)
			return
		}
		if val == nil {
			args[i] = reflect.Zero(ft.In(i))
		} else {
			args[i] = reflect.ValueOf(val)
		}
	}

	results := fn.Call(args)
	if n := len(results); n > 0 && ft.Out(n-1) == errorType {
		if err, _ := results[n-1].Interface().(error); err != nil {
			e.Logf("%s: %v", name, err)
			return
		}
		results = results[:n-1]
	}
	for _, res := range results {
		val, err := v.marshaller.ToValue(res.Interface())
		if err != nil {
			e.Logf("%s: result: %v", name, err)
			return
		}
		e.Push(val)
	}
}

// Set binds a global variable.
func (v *VM) Set(name string, val interface{}) error {
	tok, err := v.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	v.globals()[name] = tok
	return nil
}

// Get reads a global variable.
func (v *VM) Get(name string) (interface{}, error) {
	tok, ok := v.globals()[name]
	if !ok {
		return nil, fmt.Errorf("variable '%s' not found", name)
	}
	return v.marshaller.FromValue(tok, nil)
}

func (v *VM) globals() map[string]token.Token {
	return v.it.State.Frames[0]
}

// Call invokes a global by name with args pushed in order and returns what
// it left on the stack.
func (v *VM) Call(name string, args ...interface{}) (interface{}, error) {
	fn, ok := v.globals()[name]
	if !ok {
		return nil, fmt.Errorf("function '%s' not found", name)
	}
	height := v.it.State.Len()
	for i, arg := range args {
		tok, err := v.marshaller.ToValue(arg)
		if err != nil {
			v.it.State.Truncate(height)
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		v.it.State.Push(tok)
	}
	v.it.Eval.Invoke(fn, name)
	v.it.State.ClearLoop()
	if err := v.runErr(nil); err != nil {
		v.it.State.Truncate(height)
		return nil, err
	}
	return v.collect(height)
}

// Eval runs code and returns the values it left on the stack: nil for none,
// the value itself for one, a []interface{} for more.
func (v *VM) Eval(code string) (interface{}, error) {
	height := v.it.State.Len()
	ctx := v.it.RunString(code, "<eval>")
	if err := v.runErr(ctx); err != nil {
		v.it.State.Truncate(height)
		return nil, err
	}
	return v.collect(height)
}

// LoadFile runs a source file. Relative imports resolve against its
// directory. Values it leaves on the stack are discarded.
func (v *VM) LoadFile(path string) error {
	height := v.it.State.Len()
	defer v.it.State.Truncate(height)
	ctx, err := v.it.RunFile(path)
	if err != nil {
		return err
	}
	return v.runErr(ctx)
}

func (v *VM) runErr(ctx *pipeline.PipelineContext) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("compilation failed: %w", err)
		}
	}
	var msgs []string
	if ctx != nil {
		for _, d := range ctx.Diagnostics {
			msgs = append(msgs, d.String())
		}
	}
	for _, d := range v.it.State.TakeErrors() {
		msgs = append(msgs, d.String())
	}
	var err error
	if len(msgs) > 0 {
		err = &RuntimeError{Messages: msgs}
	}
	if halted, code := v.it.Eval.Halted(); halted {
		err = errors.Join(&ExitError{Code: code}, err)
	}
	return err
}

func (v *VM) collect(height int) (interface{}, error) {
	st := v.it.State
	if st.Len() <= height {
		return nil, nil
	}
	st.ResolveFrom(height)
	vals := make([]interface{}, 0, st.Len()-height)
	for _, tok := range st.Stack[height:] {
		val, err := v.marshaller.FromValue(tok, nil)
		if err != nil {
			st.Truncate(height)
			return nil, err
		}
		vals = append(vals, val)
	}
	st.Truncate(height)
	if len(vals) == 1 {
		return vals[0], nil
	}
	return vals, nil
}
