package parser

import (
	"github.com/funvibe/stak/internal/pipeline"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) String() string { return "parser" }

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	ctx.Program = Parse(ctx.Tokens)
	ctx.Logger.Debug("parsed", "file", ctx.FilePath, "tokens", len(ctx.Program))
	return ctx
}
