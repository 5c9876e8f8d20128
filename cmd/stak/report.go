package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/stak/internal/interp"
	"github.com/funvibe/stak/internal/lexer"
	"github.com/funvibe/stak/internal/pipeline"
	"github.com/funvibe/stak/internal/regvm"
	"github.com/funvibe/stak/internal/token"
)

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

type reporter struct {
	w     io.Writer
	color bool
}

func (r *reporter) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorReset
}

// fatal prints a lexer error with the offending source line, or any other
// error on one line.
func (r *reporter) fatal(path string, err error) {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		fmt.Fprintf(r.w, "%s:%d: %s %s\n", path, lexErr.Line, r.paint(colorRed, "error:"), lexErr.Message)
		if lexErr.Source != "" {
			fmt.Fprintf(r.w, "%5d | %s\n", lexErr.Line, lexErr.Source)
		}
		return
	}
	fmt.Fprintf(r.w, "%s %v\n", r.paint(colorRed, "error:"), err)
}

func (r *reporter) diagnostics(ctx *pipeline.PipelineContext) {
	for _, d := range ctx.Diagnostics {
		fmt.Fprintf(r.w, "%s:%d: %s %s\n", ctx.FilePath, d.Line, r.paint(colorYellow, "warning:"), d.Message)
	}
}

// finish reports a pipeline result and decides the exit code. ok is false
// when the program must not continue.
func finish(it *interp.Interpreter, ctx *pipeline.PipelineContext, rep *reporter) (int, bool) {
	if err := ctx.Err(); err != nil {
		rep.fatal(ctx.FilePath, err)
		return 1, false
	}
	rep.diagnostics(ctx)
	if halted, code := it.Eval.Halted(); halted {
		return code, false
	}
	return 0, true
}

func disassembleFile(it *interp.Interpreter, path string, out io.Writer, rep *reporter) int {
	data, err := os.ReadFile(path)
	if err != nil {
		rep.fatal(path, err)
		return 1
	}
	src, err := it.Decode(data)
	if err != nil {
		rep.fatal(path, err)
		return 1
	}
	ctx := it.Compile(src, path)
	if err := ctx.Err(); err != nil {
		rep.fatal(path, err)
		return 1
	}
	n := 0
	walkRegs(ctx.Program, func(name string, r *token.Reg) {
		if n > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, regvm.Disassemble(r, name))
		n++
	})
	if n == 0 {
		fmt.Fprintf(rep.w, "%s: no register programs\n", path)
	}
	return 0
}

// walkRegs visits every register program in execution order. A program
// assigned with `name = reg [...]` is reported under that name.
func walkRegs(toks []token.Token, visit func(name string, r *token.Reg)) {
	for i, t := range toks {
		switch v := t.(type) {
		case *token.Reg:
			name := fmt.Sprintf("reg@%d", v.Line())
			if i > 0 {
				if id, ok := toks[i-1].(*token.Identifier); ok {
					name = id.Name
				}
			}
			visit(name, v)
		case *token.Block:
			walkRegs(v.Setup, visit)
			walkRegs(v.Body, visit)
		}
	}
}
