package parser_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/funvibe/stak/internal/lexer"
	"github.com/funvibe/stak/internal/parser"
	"github.com/funvibe/stak/internal/token"
)

type names map[string]int

func (n names) Lookup(name string) (int, bool) {
	idx, ok := n[name]
	return idx, ok
}

func reorder(t *testing.T, src string) string {
	t.Helper()
	toks, err := lexer.Tokenize(src, names{"print": 0}, nil)
	if err != nil {
		t.Fatalf("lex %q: %v", src, err)
	}
	return inspect(parser.Parse(toks))
}

func inspect(toks []token.Token) string {
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = tok.Inspect()
	}
	return strings.Join(parts, " ")
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"precedence", "1 + 2 * 3", "1 2 3 * +"},
		{"parentheses", "(1 + 2) * 3", "1 2 + 3 *"},
		{"left associative", "a - b - c", "a b - c -"},
		{"assignment", "a = 1 + 2", "a 1 2 + ="},
		{"chained assignment", "x = y = 1", "x y 1 = ="},
		{"statements", "a = 5; b = a", "a 5 = b a ="},
		{"negate binds tighter", "-a * b", "a neg b *"},
		{"double negate", "- - a", "a neg neg"},
		{"logic", "not a and b or c", "a not b and c or"},
		{"comparison", "a == b and c < d", "a b == c d < and"},
		{"not equal", "a != b", "a b !="},
		{"access", "obj.field + 1", "obj field . 1 +"},
		{"nested access", "a.b.c", "a b . c ."},
		{"builtin call", "print(1, 2 + 3)", "1 2 3 + print"},
		{"user call", "f(x) + 1", "x f() 1 +"},
		{"colon call", "f: 1 2\ng", "1 2 f() g"},
		{"colon call in assignment", "x = f: 1 + 2", "x 1 2 + f() ="},
		{"chained call", "f(1)(2)", "1 f() <store> 2 <temp>()"},
		{"lambda", "{ a }(1)", "1 { a }()"},
		{"if", "if a > b { c }", "a b > { c } if"},
		{"if else", "if a { 1 } else { 2 }", "a { 1 } { 2 } if"},
		{"separate statements", "if a { 1 }\n{ 2 }", "a { 1 } if { 2 }"},
		{"for", "for x in [1 2] { print(x) }", "x [1 2] { x print } for"},
		{"nested block", "f = { 1 + 2 * 3 }", "f { 1 2 3 * + } ="},
		{"list body", "[1 + 2, 3]", "[1 2 + 3]"},
		{"stack words", "1 >> +", "1 >> +"},
		{"break", "if x == 2 { break }", "x 2 == { break } if"},
		{"function", "add = [a b]: { a + b }", "add [a b]: { a b + } ="},
		{"auto", "c = auto { n = 0 } { n = n + 1 }", "c auto { n 0 = } { n n 1 + = } ="},
		{"module call", "m::f(1 + 1)", "1 1 + m::f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reorder(t, tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParserReuse(t *testing.T) {
	p := parser.New()
	one, _ := lexer.Tokenize("1 + 2", nil, nil)
	two, _ := lexer.Tokenize("3 * (4 - 5)", nil, nil)
	if got := inspect(p.Parse(one)); got != "1 2 +" {
		t.Errorf("first parse = %q", got)
	}
	if got := inspect(p.Parse(two)); got != "3 4 5 - *" {
		t.Errorf("second parse = %q", got)
	}
}

// Reordering never loses or invents operands.
func TestOperandCountProperty(t *testing.T) {
	ops := []string{"+", "-", "*", "/", "%", "==", "<", ">", "and", "or"}

	properties := gopter.NewProperties(nil)
	properties.Property("every literal survives reordering", prop.ForAll(
		func(nums []int, picks []int) bool {
			if len(nums) == 0 || len(picks) == 0 {
				return true
			}
			var sb strings.Builder
			for i, n := range nums {
				if i > 0 {
					sb.WriteString(" " + ops[picks[i%len(picks)]%len(ops)] + " ")
				}
				sb.WriteString(strings.Repeat("(", i%2))
				sb.WriteString(strconv.Itoa(n))
				sb.WriteString(strings.Repeat(")", i%2))
			}
			toks, err := lexer.Tokenize(sb.String(), nil, nil)
			if err != nil {
				return false
			}
			out := parser.Parse(toks)
			literals, operators := 0, 0
			for _, tok := range out {
				switch tok.(type) {
				case *token.Integer:
					literals++
				case *token.Operator:
					operators++
				}
			}
			return literals == len(nums) && operators == len(nums)-1
		},
		gen.SliceOfN(6, gen.IntRange(0, 999)),
		gen.SliceOfN(6, gen.IntRange(0, 100)),
	))
	properties.TestingRun(t)
}
