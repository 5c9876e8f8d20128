package pipeline

import (
	"fmt"
	"time"
)

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the stages in order. A stage that sees a failed context
// passes it through untouched, so the first fatal error is what comes back.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		start := time.Now()
		ctx = processor.Process(ctx)
		if ctx.Logger != nil {
			ctx.Logger.Debug("stage done",
				"stage", stageName(processor),
				"file", ctx.FilePath,
				"elapsed", time.Since(start),
				"failed", ctx.Failed())
		}
	}
	return ctx
}

func stageName(p Processor) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
