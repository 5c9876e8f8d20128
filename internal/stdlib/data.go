package stdlib

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/token"
)

func registerData(reg *evaluator.Registry) {
	reg.Register("toyaml", func(e *evaluator.Evaluator) {
		v, ok := e.Pop("toyaml")
		if !ok {
			return
		}
		out, err := yaml.Marshal(ToGo(v))
		if err != nil {
			e.Logf("toyaml: %v", err)
			return
		}
		e.Push(&token.String{Value: strings.TrimSuffix(string(out), "\n")})
	})

	reg.Register("fromyaml", func(e *evaluator.Evaluator) {
		src, ok := e.PopString("fromyaml")
		if !ok {
			return
		}
		var data interface{}
		if err := yaml.Unmarshal([]byte(src), &data); err != nil {
			e.Logf("fromyaml: YAML parse error: %v", err)
			return
		}
		v, err := FromGo(data)
		if err != nil {
			e.Logf("fromyaml: %v", err)
			return
		}
		e.Push(v)
	})

	reg.Register("uuid", func(e *evaluator.Evaluator) {
		e.Push(&token.String{Value: uuid.NewString()})
	})

	// tty reports whether output goes to a terminal.
	reg.Register("tty", func(e *evaluator.Evaluator) {
		f, isFile := e.Out.(*os.File)
		isTTY := isFile && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
		e.Push(&token.Bool{Value: isTTY})
	})
}
