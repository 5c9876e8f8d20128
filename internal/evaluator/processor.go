package evaluator

import (
	"path/filepath"
	"strings"

	"github.com/funvibe/stak/internal/pipeline"
)

// EvaluatorProcessor runs the parsed program on an existing evaluator, so
// bindings survive from one source text to the next.
type EvaluatorProcessor struct {
	Eval *Evaluator
}

func (ep *EvaluatorProcessor) String() string { return "evaluator" }

func (ep *EvaluatorProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ep.Eval == nil {
		return ctx
	}
	e := ep.Eval
	// Pseudo paths such as <stdin> or <repl> keep the configured directory.
	if ctx.FilePath != "" && !strings.HasPrefix(ctx.FilePath, "<") {
		e.BaseDir = filepath.Dir(ctx.FilePath)
	}
	e.Run(ctx.Program)
	e.State.ClearLoop()
	ctx.Diagnostics = append(ctx.Diagnostics, e.State.TakeErrors()...)
	ctx.Logger.Debug("evaluated",
		"file", ctx.FilePath,
		"stack", e.State.Len(),
		"diagnostics", len(ctx.Diagnostics),
	)
	return ctx
}
