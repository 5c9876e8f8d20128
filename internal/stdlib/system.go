package stdlib

import (
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/token"
	"github.com/funvibe/stak/internal/utils"
)

func registerSystem(reg *evaluator.Registry) {
	reg.Register("include", include)

	// Files currently being imported; a file that imports itself, directly
	// or not, is refused.
	active := make(map[string]bool)

	reg.Register("import", func(e *evaluator.Evaluator) {
		path, toks, ok := loadFile(e, "import")
		if !ok {
			return
		}
		if active[path] {
			e.Logf("import: %s is already being imported", path)
			return
		}
		active[path] = true
		defer delete(active, path)

		base := e.BaseDir
		e.BaseDir = filepath.Dir(path)
		e.Run(toks)
		e.BaseDir = base
	})

	reg.Register("load", func(e *evaluator.Evaluator) {
		_, toks, ok := loadFile(e, "load")
		if !ok {
			return
		}
		e.Push(token.NewBlock(token.LITERAL_BLOCK, toks))
	})

	reg.Register("sleep", func(e *evaluator.Evaluator) {
		ms, ok := e.PopInt("sleep")
		if !ok {
			return
		}
		t := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer t.Stop()
		select {
		case <-t.C:
		case <-e.Context.Done():
		}
	})

	reg.Register("rand", func(e *evaluator.Evaluator) {
		n, ok := e.PopInt("rand")
		if !ok {
			return
		}
		if n <= 0 {
			e.Logf("rand expects a positive bound, got %d", n)
			return
		}
		e.Push(token.NewInt(rand.Int64N(n)))
	})

	reg.Register("now", func(e *evaluator.Evaluator) {
		e.Push(token.NewInt(time.Now().UnixMilli()))
	})

	reg.Register("exit", func(e *evaluator.Evaluator) {
		code, ok := e.PopInt("exit")
		if !ok {
			return
		}
		e.Exit(int(code))
	})
}

// include copies bindings from the caller's frame into the current one. It
// takes a name, a String or a List of either.
func include(e *evaluator.Evaluator) {
	v, ok := e.PopRaw("include")
	if !ok {
		return
	}
	var names []token.Token
	if l, isList := v.(*token.List); isList {
		names = l.Elems
	} else {
		names = []token.Token{v}
	}
	below := e.State.Below()
	if below == nil {
		e.Logf("include: no enclosing frame")
		return
	}
	for _, n := range names {
		var name string
		switch x := n.(type) {
		case *token.Identifier:
			name = x.Name
		case *token.String:
			name = x.Value
		default:
			e.Logf("include expects names, got %s", n.Kind())
			continue
		}
		val, found := below[name]
		if !found {
			e.Logf("include: unknown identifier %s", name)
			continue
		}
		e.State.Insert(name, val)
	}
}

// loadFile pops a path and runs it through the loader. Failing to read or
// lex the file halts the program with status 1.
func loadFile(e *evaluator.Evaluator, what string) (string, []token.Token, bool) {
	path, ok := e.PopString(what)
	if !ok {
		return "", nil, false
	}
	if e.Loader == nil {
		e.Logf("%s: no loader configured", what)
		return "", nil, false
	}
	path = utils.ResolveSourcePath(e.BaseDir, path)
	toks, err := e.Loader.Load(path)
	if err != nil {
		e.Logf("%s: %v", what, err)
		e.Exit(1)
		return "", nil, false
	}
	return path, toks, true
}
