package lexer

import (
	"github.com/funvibe/stak/internal/pipeline"
)

type LexerProcessor struct {
	Builtins Builtins
	Comptime Comptime
}

func (lp *LexerProcessor) String() string { return "lexer" }

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	toks, err := Tokenize(ctx.Source, lp.Builtins, lp.Comptime)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		ctx.Logger.Debug("lexing failed", "file", ctx.FilePath, "error", err)
		return ctx
	}
	ctx.Tokens = toks
	ctx.Logger.Debug("lexed", "file", ctx.FilePath, "tokens", len(toks))
	return ctx
}
