package stdlib

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/token"
)

const (
	fmtFlags = "#+- 0"
	// %s and %v print any value the way print does.
	fmtVerbs = "sv" + "bdoOxX" + "eEfFgG" + "cqUt"
)

// FormatVerbs returns the verbs of tmpl in order, skipping "%%". Flags, width
// and precision are allowed between % and the verb.
func FormatVerbs(tmpl string) ([]rune, error) {
	var verbs []rune
	r := []rune(tmpl)
	for i := 0; i < len(r); i++ {
		if r[i] != '%' {
			continue
		}
		j := i + 1
		if j < len(r) && r[j] == '%' {
			i = j
			continue
		}
		for j < len(r) && strings.ContainsRune(fmtFlags, r[j]) {
			j++
		}
		for j < len(r) && r[j] >= '0' && r[j] <= '9' {
			j++
		}
		if j < len(r) && r[j] == '.' {
			j++
			for j < len(r) && r[j] >= '0' && r[j] <= '9' {
				j++
			}
		}
		if j >= len(r) {
			return nil, fmt.Errorf("unterminated format verb")
		}
		if !strings.ContainsRune(fmtVerbs, r[j]) {
			return nil, fmt.Errorf("invalid format verb %%%c", r[j])
		}
		verbs = append(verbs, r[j])
		i = j
	}
	return verbs, nil
}

// formatArg maps v to the Go value verb renders. Integers stay arbitrary
// precision, including under float verbs.
func formatArg(verb rune, v token.Token) (interface{}, error) {
	if verb == 's' || verb == 'v' {
		return token.Stringify(v), nil
	}
	switch x := v.(type) {
	case *token.Integer:
		switch verb {
		case 'b', 'd', 'o', 'O', 'x', 'X':
			return x.Value, nil
		case 'e', 'E', 'f', 'F', 'g', 'G':
			return new(big.Float).SetInt(x.Value), nil
		}
	case *token.Float:
		if strings.ContainsRune("eEfFgG", verb) {
			return x.Value, nil
		}
	case *token.String:
		if strings.ContainsRune("qxX", verb) {
			return x.Value, nil
		}
	case *token.Char:
		if strings.ContainsRune("cqU", verb) {
			return x.Value, nil
		}
	case *token.Bool:
		if verb == 't' {
			return x.Value, nil
		}
	}
	return nil, fmt.Errorf("%%%c cannot format %s", verb, v.Kind())
}

func registerFormat(reg *evaluator.Registry) {
	// format("%s has %d", [name n]) fills verbs from the list in order.
	reg.Register("format", func(e *evaluator.Evaluator) {
		args, ok := e.PopList("format")
		if !ok {
			return
		}
		tmpl, ok := e.PopString("format")
		if !ok {
			return
		}
		verbs, err := FormatVerbs(tmpl)
		if err != nil {
			e.Logf("format: %v", err)
			return
		}
		if len(verbs) != len(args.Elems) {
			e.Logf("format: %d verbs but %d arguments", len(verbs), len(args.Elems))
			return
		}
		vals := make([]interface{}, len(args.Elems))
		for i, a := range args.Elems {
			if _, isIdent := a.(*token.Identifier); isIdent {
				v, bound := e.State.Resolve(a)
				if !bound {
					return
				}
				a = v
			}
			if vals[i], err = formatArg(verbs[i], a); err != nil {
				e.Logf("format: argument %d: %v", i+1, err)
				return
			}
		}
		e.Push(&token.String{Value: fmt.Sprintf(tmpl, vals...)})
	})
}
