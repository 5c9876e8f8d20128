package pipeline

import (
	"log/slog"

	"github.com/funvibe/stak/internal/state"
	"github.com/funvibe/stak/internal/token"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one source text through lexing, parsing and
// evaluation.
type PipelineContext struct {
	Source   string
	FilePath string

	// Tokens is the lexer output, Program the parser's reordering of it.
	Tokens  []token.Token
	Program []token.Token

	// Errors are fatal. Diagnostics are the recoverable runtime errors the
	// evaluator logged.
	Errors      []error
	Diagnostics []state.Diagnostic

	Logger *slog.Logger
}

func NewPipelineContext(source, filePath string, logger *slog.Logger) *PipelineContext {
	if logger == nil {
		logger = slog.Default()
	}
	if filePath == "" {
		filePath = "<stdin>"
	}
	return &PipelineContext{Source: source, FilePath: filePath, Logger: logger}
}

// Failed reports whether a stage hit a fatal error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}

// Err returns the first fatal error, or nil.
func (ctx *PipelineContext) Err() error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	return ctx.Errors[0]
}
