package evaluator

import (
	"sort"

	"github.com/funvibe/stak/internal/regvm"
	"github.com/funvibe/stak/internal/token"
)

func (e *Evaluator) callBuiltin(b *token.Builtin) {
	fn, _, ok := e.Builtins.Get(b.Index)
	if !ok {
		e.Logf("unknown builtin %s", b.Name)
		return
	}
	fn(e)
}

func (e *Evaluator) callNamed(c *token.Call) {
	if c.Module != "" {
		e.callModule(c)
		return
	}
	v, ok := e.State.GetFromHeap(c.Name)
	if !ok {
		e.Logf("unknown identifier %s", c.Name)
		return
	}
	e.Invoke(v, c.Name)
}

func (e *Evaluator) callTemp() {
	v := e.State.Temp
	e.State.Temp = nil
	if v == nil {
		e.Logf("nothing stored to call")
		return
	}
	e.Invoke(v, "")
}

// callModule runs the module block bound to c.Module in a scratch frame and
// invokes the binding c.Name it leaves behind.
func (e *Evaluator) callModule(c *token.Call) {
	mod, ok := e.State.GetFromHeap(c.Module)
	if !ok {
		e.Logf("unknown module %s", c.Module)
		return
	}
	b, isBlock := mod.(*token.Block)
	if !isBlock {
		e.Logf("%s is not a module, got %s", c.Module, mod.Kind())
		return
	}
	fields, ok := e.fields(b)
	if !ok {
		return
	}
	fn, ok := fields[c.Name]
	if !ok {
		e.Logf("module %s has no %s", c.Module, c.Name)
		return
	}
	e.Invoke(fn, "")
}

// Invoke calls v by its calling convention. name is the binding v was
// fetched from; an Auto block is rebound under it.
func (e *Evaluator) Invoke(v token.Token, name string) {
	if !e.enter() {
		return
	}
	defer e.leave()
	switch b := v.(type) {
	case *token.Block:
		switch b.Type {
		case token.LITERAL_BLOCK, token.LAMBDA_BLOCK:
			e.runIsolated(b.Body)
		case token.PROCEDURE_BLOCK:
			e.Run(b.Body)
		case token.FUNCTION_BLOCK:
			e.callFunction(b, name)
		case token.AUTO_BLOCK:
			e.callAuto(b, name)
		case token.LIST_BLOCK:
			e.buildList(b)
		}
	case *token.Reg:
		e.runReg(b)
	case *token.Builtin:
		e.callBuiltin(b)
	default:
		e.Logf("%s is not callable", v.Kind())
	}
}

// MaxDepth bounds how deeply calls may nest.
const MaxDepth = 4096

// enter counts one more nested call. Exceeding MaxDepth halts evaluation.
func (e *Evaluator) enter() bool {
	if e.depth >= MaxDepth {
		e.Logf("call depth exceeded %d", MaxDepth)
		e.Exit(1)
		return false
	}
	e.depth++
	return true
}

func (e *Evaluator) leave() { e.depth-- }

// runIsolated evaluates body in a fresh frame on the shared stack and copies
// back whatever it left: names it pushed are resolved against its frame
// before the frame goes away.
func (e *Evaluator) runIsolated(body []token.Token) {
	st := e.State
	st.PushFrame()
	e.Run(body)
	st.ResolveFrom(st.Base())
	st.PopFrame()
}

func (e *Evaluator) callFunction(b *token.Block, name string) {
	st := e.State
	if name == "" {
		name = "function"
	}
	args := make([]token.Token, len(b.Params))
	for i := len(args) - 1; i >= 0; i-- {
		v, ok := e.Pop(name)
		if !ok {
			return
		}
		args[i] = v
	}
	st.PushFrame()
	for i, p := range b.Params {
		st.Insert(p, args[i])
	}
	e.Run(b.Body)
	st.ResolveFrom(st.Base())
	st.PopFrame()
}

// callAuto runs setup then logic in a fresh frame, snapshots every binding
// left in it into a new setup and rebinds name in the caller's frame to the
// resulting Auto block.
func (e *Evaluator) callAuto(b *token.Block, name string) {
	st := e.State
	st.PushFrame()
	e.Run(b.Setup)
	e.Run(b.Body)
	st.ResolveFrom(st.Base())
	if name != "" && name != token.Discard {
		if caller := st.Below(); caller != nil {
			caller[name] = b.Rewrap(b.Body, Snapshot(st.Top()))
		}
	}
	st.PopFrame()
}

// Snapshot serializes a frame into `name value =` triples, in name order.
func Snapshot(f map[string]token.Token) []token.Token {
	names := make([]string, 0, len(f))
	for name, v := range f {
		if _, isIdent := v.(*token.Identifier); isIdent {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]token.Token, 0, 3*len(names))
	for _, name := range names {
		out = append(out,
			&token.Identifier{Name: name},
			f[name],
			token.NewOp(token.OP_ASSIGN, 0),
		)
	}
	return out
}

// fields evaluates an object-like block in a scratch frame and returns the
// frame. Values it pushes are discarded.
func (e *Evaluator) fields(b *token.Block) (map[string]token.Token, bool) {
	st := e.State
	var args []token.Token
	if b.Type == token.FUNCTION_BLOCK {
		args = make([]token.Token, len(b.Params))
		for i := len(args) - 1; i >= 0; i-- {
			v, ok := e.Pop("access")
			if !ok {
				return nil, false
			}
			args[i] = v
		}
	}
	if !e.enter() {
		return nil, false
	}
	defer e.leave()
	height := st.Len()
	st.PushFrame()
	for i, p := range b.Params {
		if i < len(args) {
			st.Insert(p, args[i])
		}
	}
	switch b.Type {
	case token.AUTO_BLOCK:
		e.Run(b.Setup)
	default:
		e.Run(b.Body)
	}
	frame := st.PopFrame()
	st.Truncate(height)
	st.ClearLoop()
	return frame, true
}

// buildList evaluates a list literal in the current frame and collects what
// it pushed. Identifiers are kept as names.
func (e *Evaluator) buildList(b *token.Block) {
	st := e.State
	height := st.Len()
	e.Run(b.Body)
	if height > st.Len() {
		height = st.Len()
	}
	elems := token.Clone(st.Stack[height:])
	st.Truncate(height)
	st.Push(&token.List{Pos: b.Pos, Elems: elems})
}

// runReg resolves the named registers in the window and runs the program on
// the live operand stack.
func (e *Evaluator) runReg(r *token.Reg) {
	if e.State.Len() < len(r.Regs) {
		e.Logf("register program needs %d values, stack has %d", len(r.Regs), e.State.Len())
		return
	}
	if !e.State.ResolveTop(len(r.Regs)) {
		return
	}
	if err := regvm.Exec(e.Context, r, e.State, e.Out); err != nil {
		e.Logf("%v", err)
	}
}
