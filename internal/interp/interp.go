// Package interp wires the lexer, parser, evaluator and built-in catalog
// into one interpreter instance.
package interp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/lexer"
	"github.com/funvibe/stak/internal/parser"
	"github.com/funvibe/stak/internal/pipeline"
	"github.com/funvibe/stak/internal/state"
	"github.com/funvibe/stak/internal/stdlib"
	"github.com/funvibe/stak/internal/token"
	"github.com/funvibe/stak/internal/utils"
)

// maxNesting bounds comptime blocks and loaders nested inside each other.
const maxNesting = 32

type Options struct {
	Context context.Context
	Logger  *slog.Logger
	Out     io.Writer
	In      io.Reader

	// Encoding is the IANA name source files are decoded from. Empty means
	// UTF-8.
	Encoding string

	// BaseDir resolves relative import paths. Defaults to ".".
	BaseDir string
}

// Interpreter owns one state, one builtin registry and one evaluator. A
// child interpreter gets a copy of the registry, so builtins registered on
// either side afterwards stay private.
type Interpreter struct {
	ID       uuid.UUID
	Logger   *slog.Logger
	State    *state.State
	Eval     *evaluator.Evaluator
	Builtins *evaluator.Registry

	opts    Options
	enc     encoding.Encoding
	repl    *lexer.Lexer
	nesting int
}

func New(opts Options) (*Interpreter, error) {
	reg := evaluator.NewRegistry()
	stdlib.Register(reg)
	return newWithRegistry(opts, reg, 0)
}

func newWithRegistry(opts Options, reg *evaluator.Registry, nesting int) (*Interpreter, error) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	logger := opts.Logger.With("interp", id.String())

	st := state.New()
	st.Logger = logger

	ev := evaluator.New(st, reg)
	ev.Context = opts.Context
	ev.Out = opts.Out
	ev.In = bufio.NewReader(opts.In)
	ev.Logger = logger
	ev.BaseDir = opts.BaseDir

	it := &Interpreter{
		ID:       id,
		Logger:   logger,
		State:    st,
		Eval:     ev,
		Builtins: reg,
		opts:     opts,
		enc:      enc,
		nesting:  nesting,
	}
	ev.Loader = it
	logger.Debug("interpreter created", "nesting", nesting)
	return it, nil
}

// Register adds a builtin. Source lexed afterwards sees it as a word.
func (it *Interpreter) Register(name string, fn evaluator.Callback) {
	it.Builtins.Register(name, fn)
}

// LookupEncoding resolves an IANA charset name. UTF-8 yields nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}

// Decode converts raw file contents to UTF-8.
func (it *Interpreter) Decode(data []byte) (string, error) {
	if it.enc == nil {
		return string(data), nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), it.enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", it.opts.Encoding, err)
	}
	return string(out), nil
}

func (it *Interpreter) lexProcessor() *lexer.LexerProcessor {
	return &lexer.LexerProcessor{Builtins: it.Builtins, Comptime: it.comptime}
}

// RunString lexes, parses and evaluates src on this interpreter's state.
func (it *Interpreter) RunString(src, path string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(src, path, it.Logger)
	return pipeline.New(
		it.lexProcessor(),
		&parser.ParserProcessor{},
		&evaluator.EvaluatorProcessor{Eval: it.Eval},
	).Run(ctx)
}

// RunFile reads, decodes and runs a source file. A file that cannot be read
// is returned as an error rather than a pipeline failure.
func (it *Interpreter) RunFile(path string) (*pipeline.PipelineContext, error) {
	src, err := it.readSource(path)
	if err != nil {
		return nil, err
	}
	return it.RunString(src, path), nil
}

func (it *Interpreter) readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return it.Decode(data)
}

// Compile lexes and parses src without evaluating it.
func (it *Interpreter) Compile(src, path string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(src, path, it.Logger)
	return pipeline.New(it.lexProcessor(), &parser.ParserProcessor{}).Run(ctx)
}

// Load implements evaluator.Loader: a child interpreter lexes and parses the
// file with a copy of this registry, so builtin indices line up.
func (it *Interpreter) Load(path string) ([]token.Token, error) {
	child, err := it.child(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	src, err := child.readSource(path)
	if err != nil {
		return nil, err
	}
	ctx := child.Compile(src, path)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	it.Logger.Debug("loaded", "module", utils.ModuleName(path), "file", path, "child", child.ID.String(), "tokens", len(ctx.Program))
	return ctx.Program, nil
}

// comptime evaluates a block's raw tokens in a fresh child interpreter and
// splices whatever it leaves on its stack back into the token stream.
func (it *Interpreter) comptime(body []token.Token, line int) ([]token.Token, error) {
	child, err := it.child(it.Eval.BaseDir)
	if err != nil {
		return nil, err
	}
	child.Eval.Run(parser.Parse(body))
	if errs := child.State.TakeErrors(); len(errs) > 0 {
		return nil, fmt.Errorf("%s", errs[0].Message)
	}
	if halted, code := child.Eval.Halted(); halted {
		return nil, fmt.Errorf("exit(%d) during compile-time evaluation", code)
	}
	child.State.ResolveFrom(0)
	out := make([]token.Token, 0, child.State.Len())
	for _, v := range child.State.Stack {
		if id, isIdent := v.(*token.Identifier); isIdent {
			return nil, fmt.Errorf("unknown identifier %s", id.Name)
		}
		out = append(out, v)
	}
	it.Logger.Debug("comptime", "line", line, "values", len(out))
	return out, nil
}

func (it *Interpreter) child(baseDir string) (*Interpreter, error) {
	if it.nesting >= maxNesting {
		return nil, fmt.Errorf("nesting deeper than %d", maxNesting)
	}
	opts := it.opts
	opts.Logger = it.Logger
	opts.BaseDir = baseDir
	return newWithRegistry(opts, it.Builtins.Clone(), it.nesting+1)
}

// Insert feeds one REPL line. pending is true while a construct is still
// open; otherwise the accumulated input has been run and ctx holds the result.
func (it *Interpreter) Insert(line string) (ctx *pipeline.PipelineContext, pending bool) {
	if it.repl == nil {
		it.repl = lexer.New(it.Builtins)
		it.repl.SetComptime(it.comptime)
	}
	ctx = pipeline.NewPipelineContext(line, "<repl>", it.Logger)
	if err := it.repl.Insert(line + "\n"); err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx, false
	}
	if it.repl.Pending() {
		return nil, true
	}
	toks, err := it.repl.Finish()
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx, false
	}
	ctx.Tokens = toks
	return pipeline.New(
		&parser.ParserProcessor{},
		&evaluator.EvaluatorProcessor{Eval: it.Eval},
	).Run(ctx), false
}

// CancelInput drops a half-entered REPL construct.
func (it *Interpreter) CancelInput() {
	if it.repl != nil {
		it.repl.Reset()
	}
}

// Stack returns the operand stack with names resolved where possible.
func (it *Interpreter) Stack() []token.Token {
	out := make([]token.Token, len(it.State.Stack))
	for i, v := range it.State.Stack {
		if id, isIdent := v.(*token.Identifier); isIdent {
			if bound, ok := it.State.GetFromHeap(id.Name); ok {
				v = bound
			}
		}
		out[i] = v
	}
	return out
}
