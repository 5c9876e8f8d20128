package stdlib

import (
	"fmt"
	"io"
	"strings"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/token"
)

func registerIO(reg *evaluator.Registry) {
	reg.Register("print", func(e *evaluator.Evaluator) {
		if v, ok := e.Pop("print"); ok {
			fmt.Fprint(e.Out, token.Stringify(v))
		}
	})

	reg.Register("println", func(e *evaluator.Evaluator) {
		if v, ok := e.Pop("println"); ok {
			fmt.Fprintln(e.Out, token.Stringify(v))
		}
	})

	reg.Register("readline", func(e *evaluator.Evaluator) {
		if e.In == nil {
			e.Logf("readline: no input")
			return
		}
		line, err := e.In.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			e.Logf("readline: %v", err)
			return
		}
		e.Push(&token.String{Value: strings.TrimRight(line, "\r\n")})
	})
}
