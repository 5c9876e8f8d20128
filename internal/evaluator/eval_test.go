package evaluator_test

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/funvibe/stak/internal/evaluator"
	"github.com/funvibe/stak/internal/lexer"
	"github.com/funvibe/stak/internal/parser"
	"github.com/funvibe/stak/internal/state"
	"github.com/funvibe/stak/internal/token"
)

func newEvaluator(ctx context.Context) (*evaluator.Evaluator, *evaluator.Registry, *bytes.Buffer) {
	reg := evaluator.NewRegistry()
	reg.Register("print", func(e *evaluator.Evaluator) {
		if v, ok := e.Pop("print"); ok {
			fmt.Fprintln(e.Out, token.Stringify(v))
		}
	})
	ev := evaluator.New(state.New(), reg)
	ev.Context = ctx
	var out bytes.Buffer
	ev.Out = &out
	return ev, reg, &out
}

func run(t *testing.T, src string) (*evaluator.Evaluator, *bytes.Buffer) {
	t.Helper()
	ev, reg, out := newEvaluator(context.Background())
	toks, err := lexer.Tokenize(src, reg, nil)
	if err != nil {
		t.Fatalf("lex %q: %v", src, err)
	}
	ev.Run(parser.Parse(toks))
	return ev, out
}

func stack(ev *evaluator.Evaluator) string {
	parts := make([]string, len(ev.State.Stack))
	for i, v := range ev.State.Stack {
		parts[i] = v.Inspect()
	}
	return strings.Join(parts, " ")
}

func errs(ev *evaluator.Evaluator) string {
	parts := make([]string, len(ev.State.Errors))
	for i, d := range ev.State.Errors {
		parts[i] = d.Message
	}
	return strings.Join(parts, "; ")
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"precedence", "1 + 2 * 3", "6"},
		{"true division", "7 / 2", "3.5"},
		{"division of floats", "1.5 / 0.5", "3.0"},
		{"floored modulo", "(-1) % 3", "2"},
		{"negative divisor", "7 % -3", "-2"},
		{"string concat", `"abc" + 123`, `"abc123"`},
		{"integer then string", `1 + "x"`, `"1x"`},
		{"char concat", "'a' + 'b'", `"ab"`},
		{"float promotion", "1 + 0.5", "1.5"},
		{"list concat", "[1 2] + [3]", "[1 2 3]"},
		{"negate", "-(2 + 3)", "-5"},
		{"comparison", "1 < 2.5", "true"},
		{"structural equality", "[1 [2]] == [1 [2]]", "true"},
		{"variant inequality", "1 == 1.0", "false"},
		{"logic", "not (true and false) or false", "true"},
		{"dup", "3 >> *", "9"},
		{"wraps at 128 bits", "170141183460469231731687303715884105727 + 1", "-170141183460469231731687303715884105728"},
		{"list keeps names", "[a b]", "[a b]"},
		{"function", "add = [a b]: { a + b }\nadd(2, 3)", "5"},
		{"function with variables", "x = 10\nadd = [a b]: { a + b }\nadd(x, 1)", "11"},
		{"literal block reads caller values", "x = 4\nf = { [n] -> n * n }\nf(x)", "16"},
		{"lambda", "{ 2 * 3 }()", "6"},
		{"lambda with argument", "{ [a] -> a + 1 }(41)", "42"},
		{"block copies back", "f = { v = 9; v }\nf()", "9"},
		{"chained call", "mk = { { 10 } }\nmk()()", "10"},
		{"access", "point = { x = 3; y = 4 }\npoint.y", "4"},
		{"module call", "m = { sq = [v]: { v * v } }\nm::sq(5)", "25"},
		{"colon call", "sq = [v]: { v * v }\nsq: 6", "36"},
		{"if", "x = 5\nif x > 3 { 1 }", "1"},
		{"if false", "if 1 > 3 { 1 }", ""},
		{"if else", "if 1 > 3 { 1 } else { 2 }", "2"},
		{"for over integer", "s = 0\nfor i in 4 { s = s + i }\ns", "6"},
		{"for over block", "n = 0\nfor t in { 1 2 3 } { n = n + t }\nn", "6"},
		{"bind", "1 2 [a b] ->\nb - a", "1"},
		{"register program", "p = reg [\n[r0]\nmain:\n set r0 0\nloop:\n addi r0 1 r0\n jnqi r0 5 loop\n end\n]\n0 p()", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, _ := run(t, tt.input)
			if got := stack(ev); got != tt.want {
				t.Errorf("stack = %q, want %q (errors: %s)", got, tt.want, errs(ev))
			}
			if len(ev.State.Errors) > 0 {
				t.Errorf("unexpected diagnostics: %s", errs(ev))
			}
		})
	}
}

func TestAutoCounter(t *testing.T) {
	ev, _ := run(t, "c = auto { n = 0 } { n = n + 1; n }\nc()\nc()")
	if got := stack(ev); got != "1 2" {
		t.Fatalf("stack = %q, want %q (errors: %s)", got, "1 2", errs(ev))
	}
	c, _ := ev.State.GetFromHeap("c")
	if b := c.(*token.Block); b.Type != token.AUTO_BLOCK {
		t.Errorf("c was rebound to a %s block", b.Type)
	}
	if _, leaked := ev.State.GetFromHeap("n"); leaked {
		t.Error("closure state leaked into the caller frame")
	}
}

func TestLoopBreak(t *testing.T) {
	ev, out := run(t, "for x in [1 2 3] { print(x); if x == 2 { break } }")
	if out.String() != "1\n2\n" {
		t.Errorf("touched %q, want 1 and 2", out.String())
	}
	if ev.State.ExitLoop || ev.State.ContinueLoop {
		t.Error("loop flags left set")
	}
	if _, ok := ev.State.GetFromHeap("x"); ok {
		t.Error("loop variable still bound")
	}
}

func TestBreakInsideCalledBlock(t *testing.T) {
	ev, out := run(t, "g = { break }\nfor i in 5 { print(i); g() }\nprint(9)")
	if out.String() != "0\n9\n" {
		t.Errorf("output = %q", out.String())
	}
	if len(ev.State.Errors) != 0 {
		t.Errorf("errors = %q", errs(ev))
	}
}

func TestBreakOutsideLoopKeepsRunning(t *testing.T) {
	ev, out := run(t, "f = { break }\nf()\ny = 2\nprint(y)")
	if out.String() != "2\n" {
		t.Errorf("output = %q", out.String())
	}
	if ev.State.ExitLoop {
		t.Error("break flag set outside a loop")
	}
}

func TestLoopContinue(t *testing.T) {
	_, out := run(t, `for c in "abc" { if c == 'b' { continue }; print(c) }`)
	if out.String() != "a\nc\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestMoveSemantics(t *testing.T) {
	ev, _ := run(t, "a = 5; b = a")
	if _, ok := ev.State.GetFromHeap("a"); ok {
		t.Error("a should have been moved")
	}
	if b, _ := ev.State.GetFromHeap("b"); !token.Equal(b, token.NewInt(5)) {
		t.Errorf("b = %v, want 5", b)
	}

	ev, _ = run(t, "a = 5; b = a; print(a)")
	if !strings.Contains(errs(ev), "unknown identifier a") {
		t.Errorf("expected unknown identifier diagnostic, got %q", errs(ev))
	}
}

func TestDiscardTarget(t *testing.T) {
	ev, _ := run(t, "_ = 5\na = 1\n_ = a")
	if _, ok := ev.State.GetFromHeap(token.Discard); ok {
		t.Error("_ must never be bound")
	}
	if _, ok := ev.State.GetFromHeap("a"); !ok {
		t.Error("discarding a name must not move it")
	}
}

func TestProcedureSharesFrame(t *testing.T) {
	ev, _ := run(t, "p = proc { y = 7 }\np()")
	if y, _ := ev.State.GetFromHeap("y"); !token.Equal(y, token.NewInt(7)) {
		t.Errorf("y = %v, want 7", y)
	}
	ev, _ = run(t, "f = { y = 7 }\nf()")
	if _, ok := ev.State.GetFromHeap("y"); ok {
		t.Error("literal block leaked a binding")
	}
}

func TestRecoverableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"division by zero", "1 / 0", "division by zero"},
		{"modulo by zero", "1 % 0", "modulo by zero"},
		{"modulo of floats", "1.5 % 2", "unsupported operand types for %"},
		{"type mismatch", "1 + true", "unsupported operand types for +: Integer and Bool"},
		{"arity", "1 +", "not enough arguments for +"},
		{"break outside loop", "break", "break outside loop"},
		{"continue outside loop", "f = { continue }\nf()", "continue outside loop"},
		{"unknown call", "nope()", "unknown identifier nope"},
		{"not callable", "x = 1\nx()", "Integer is not callable"},
		{"bad condition", "if 1 { 2 }", "if expects a Bool condition"},
		{"missing field", "o = { a = 1 }\no.b", "no field b"},
		{"register fault", "p = reg [\n[r0]\nmain:\n idiv r0 r0 r0\n end\n]\n0 p()", "division by zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, _ := run(t, tt.input)
			if !strings.Contains(errs(ev), tt.want) {
				t.Errorf("errors %q do not mention %q", errs(ev), tt.want)
			}
		})
	}
}

func TestDiagnosticsCarryLines(t *testing.T) {
	ev, _ := run(t, "a = 1\n\na + true")
	if len(ev.State.Errors) != 1 || ev.State.Errors[0].Line != 3 {
		t.Errorf("diagnostics = %v", ev.State.Errors)
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev, reg, _ := newEvaluator(ctx)
	toks, _ := lexer.Tokenize("for _ in true { }", reg, nil)
	ev.Run(parser.Parse(toks))
	if halted, code := ev.Halted(); !halted || code != 1 {
		t.Errorf("halted=%v code=%d", halted, code)
	}
}

func TestSnapshot(t *testing.T) {
	setup := evaluator.Snapshot(map[string]token.Token{
		"b": token.NewInt(2),
		"a": &token.String{Value: "x"},
	})
	if got := fmt.Sprint(len(setup)); got != "6" {
		t.Fatalf("snapshot length = %s", got)
	}
	var parts []string
	for _, tok := range setup {
		parts = append(parts, tok.Inspect())
	}
	if got := strings.Join(parts, " "); got != `a "x" = b 2 =` {
		t.Errorf("snapshot = %q", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := evaluator.NewRegistry()
	first := reg.Register("a", func(*evaluator.Evaluator) {})
	reg.Register("b", func(*evaluator.Evaluator) {})
	if again := reg.Register("a", func(*evaluator.Evaluator) {}); again != first {
		t.Errorf("re-registering moved index %d to %d", first, again)
	}
	clone := reg.Clone()
	clone.Register("c", func(*evaluator.Evaluator) {})
	if _, ok := reg.Lookup("c"); ok {
		t.Error("clone shares its table with the original")
	}
	if idx, ok := clone.Lookup("b"); !ok || idx != 1 {
		t.Errorf("clone lost index of b: %d %v", idx, ok)
	}
}

func TestArithmeticProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("floored modulo has the divisor's sign", prop.ForAll(
		func(x, y int64) bool {
			if y == 0 {
				return true
			}
			m := evaluator.FloorMod(big.NewInt(x), big.NewInt(y))
			if m.Sign() != 0 && (m.Sign() < 0) != (y < 0) {
				return false
			}
			abs := new(big.Int).Abs(big.NewInt(y))
			return new(big.Int).Abs(m).Cmp(abs) < 0
		},
		gen.Int64(), gen.Int64(),
	))

	properties.Property("integer addition commutes", prop.ForAll(
		func(x, y int64) bool {
			a, _ := evaluator.Binary(token.OP_ADD, token.NewInt(x), token.NewInt(y))
			b, _ := evaluator.Binary(token.OP_ADD, token.NewInt(y), token.NewInt(x))
			return token.Equal(a, b)
		},
		gen.Int64(), gen.Int64(),
	))

	properties.Property("division always yields a Float", prop.ForAll(
		func(x int64, y int64) bool {
			if y == 0 {
				return true
			}
			v, err := evaluator.Binary(token.OP_DIV, token.NewInt(x), token.NewInt(y))
			_, isFloat := v.(*token.Float)
			return err == nil && isFloat
		},
		gen.Int64(), gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestRunawayRecursionHalts(t *testing.T) {
	ev, _ := run(t, "p = proc { p() }\np()")
	if halted, _ := ev.Halted(); !halted {
		t.Fatal("recursion did not halt")
	}
	if !strings.Contains(errs(ev), "call depth exceeded") {
		t.Errorf("errors = %q", errs(ev))
	}
}
