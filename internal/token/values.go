package token

import (
	"math/big"
	"strconv"
	"strings"
)

var (
	int128Mod = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// FitsInt128 reports whether v is representable as a signed 128-bit integer.
func FitsInt128(v *big.Int) bool {
	return v.Cmp(minInt128) >= 0 && v.Cmp(maxInt128) <= 0
}

// Wrap128 reduces v to signed 128-bit two's complement range.
func Wrap128(v *big.Int) *big.Int {
	if FitsInt128(v) {
		return v
	}
	r := new(big.Int).Mod(v, int128Mod)
	if r.Cmp(maxInt128) > 0 {
		r.Sub(r, int128Mod)
	}
	return r
}

type Integer struct {
	Pos
	Value *big.Int
}

func NewInt(v int64) *Integer { return &Integer{Value: big.NewInt(v)} }

// NewBigInt takes ownership of v.
func NewBigInt(v *big.Int) *Integer { return &Integer{Value: Wrap128(v)} }

func (i *Integer) Kind() Kind      { return INTEGER }
func (i *Integer) Inspect() string { return i.Value.String() }

type Float struct {
	Pos
	Value float64
}

func (f *Float) Kind() Kind { return FLOAT }
func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

type String struct {
	Pos
	Value string
}

func (s *String) Kind() Kind      { return STRING }
func (s *String) Inspect() string { return strconv.Quote(s.Value) }

type Char struct {
	Pos
	Value rune
}

func (c *Char) Kind() Kind      { return CHAR }
func (c *Char) Inspect() string { return strconv.QuoteRune(c.Value) }

// Symbol is a single unclassified character. It only lives between the
// lexer's character scan and classification.
type Symbol struct {
	Pos
	Value rune
}

func (s *Symbol) Kind() Kind      { return SYMBOL }
func (s *Symbol) Inspect() string { return string(s.Value) }

type Bool struct {
	Pos
	Value bool
}

func (b *Bool) Kind() Kind { return BOOL }
func (b *Bool) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// Identifier is a name reference, resolved lazily by whichever operation
// consumes it.
type Identifier struct {
	Pos
	Name string
}

func (i *Identifier) Kind() Kind      { return IDENT }
func (i *Identifier) Inspect() string { return i.Name }

// Discard is the assignment target that binds nothing.
const Discard = "_"

type BlockKind uint8

const (
	LITERAL_BLOCK BlockKind = iota
	LAMBDA_BLOCK
	PROCEDURE_BLOCK
	FUNCTION_BLOCK
	AUTO_BLOCK
	LIST_BLOCK
)

func (k BlockKind) String() string {
	switch k {
	case LITERAL_BLOCK:
		return "Literal"
	case LAMBDA_BLOCK:
		return "Lambda"
	case PROCEDURE_BLOCK:
		return "Procedure"
	case FUNCTION_BLOCK:
		return "Function"
	case AUTO_BLOCK:
		return "Auto"
	case LIST_BLOCK:
		return "List"
	}
	return "Block?"
}

// Block is an instruction sequence tagged by calling convention. Blocks are
// shared by reference and never mutated after the parser produced them;
// closures build new Block values instead.
type Block struct {
	Pos
	Type   BlockKind
	Body   []Token
	Params []string // FUNCTION_BLOCK only
	Setup  []Token  // AUTO_BLOCK only
}

func NewBlock(kind BlockKind, body []Token) *Block {
	return &Block{Type: kind, Body: body}
}

func (b *Block) Kind() Kind { return BLOCK }

// Rewrap returns a copy of b with a replacement body and setup, keeping the
// variant, parameters and position.
func (b *Block) Rewrap(body, setup []Token) *Block {
	return &Block{Pos: b.Pos, Type: b.Type, Body: body, Params: b.Params, Setup: setup}
}

func (b *Block) Inspect() string {
	body := "{ " + joinTokens(b.Body) + " }"
	switch b.Type {
	case LAMBDA_BLOCK:
		return body + "()"
	case PROCEDURE_BLOCK:
		return "proc " + body
	case FUNCTION_BLOCK:
		return "[" + strings.Join(b.Params, " ") + "]: " + body
	case AUTO_BLOCK:
		return "auto { " + joinTokens(b.Setup) + " } " + body
	case LIST_BLOCK:
		return "[" + joinTokens(b.Body) + "]"
	}
	return body
}

// List is a materialized, immutable sequence of values.
type List struct {
	Pos
	Elems []Token
}

func NewList(elems []Token) *List { return &List{Elems: elems} }

func (l *List) Kind() Kind      { return LIST }
func (l *List) Inspect() string { return "[" + joinTokens(l.Elems) + "]" }

// Reg is an assembled register program and its entry offset.
type Reg struct {
	Pos
	Code   []int
	Entry  int
	Regs   []string
	Labels map[string]int
}

func (r *Reg) Kind() Kind { return REG }
func (r *Reg) Inspect() string {
	return "reg<entry=" + strconv.Itoa(r.Entry) + " len=" + strconv.Itoa(len(r.Code)) + ">"
}

// Builtin references a registered callback by index. A Deferred builtin was
// written as name( or name: and waits on the parser's operator stack for its
// arguments; otherwise it is a postfix word.
type Builtin struct {
	Pos
	Index    int
	Name     string
	Deferred bool
}

func (b *Builtin) Kind() Kind      { return BUILTIN }
func (b *Builtin) Inspect() string { return b.Name }

// Call is a user-block call resolved against the current frame when it runs.
// Module is set for module-qualified calls (m::name).
type Call struct {
	Pos
	Module   string
	Name     string
	Deferred bool
}

func (c *Call) Kind() Kind { return CALL }
func (c *Call) Inspect() string {
	if c.Module != "" {
		return c.Module + "::" + c.Name
	}
	return c.Name + "()"
}

// TempCall invokes whatever the preceding Store put in the temp slot.
type TempCall struct{ Pos }

func (t *TempCall) Kind() Kind      { return TEMP_CALL }
func (t *TempCall) Inspect() string { return "<temp>()" }

// Store moves the top of the operand stack into the temp slot.
type Store struct{ Pos }

func (s *Store) Kind() Kind      { return STORE }
func (s *Store) Inspect() string { return "<store>" }

type Operator struct {
	Pos
	Op Op
}

func NewOp(op Op, line int) *Operator { return &Operator{Pos: Pos(line), Op: op} }

func (o *Operator) Kind() Kind      { return OPERATOR }
func (o *Operator) Inspect() string { return o.Op.String() }

// IsOp reports whether t is the operator op.
func IsOp(t Token, op Op) bool {
	o, ok := t.(*Operator)
	return ok && o.Op == op
}

func joinTokens(ts []Token) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Inspect()
	}
	return strings.Join(parts, " ")
}
