// Package lexer turns source text into nested token sequences. Each open `{`
// or `[` starts a fresh sequence that is wrapped into a Block when it closes,
// so the lexer's output is already a tree of unparsed instruction lists.
//
// The lexer is resumable: Insert can be called repeatedly with more text (the
// REPL feeds it line by line) and Pending reports whether a construct is still
// open. Finish checks for unterminated constructs and hands out the outermost
// sequence.
package lexer

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/funvibe/stak/internal/regvm"
	"github.com/funvibe/stak/internal/token"
)

// Builtins maps registered callback names to their index.
type Builtins interface {
	Lookup(name string) (int, bool)
}

// Comptime evaluates the raw body of a `comptime { ... }` block and returns
// the values it left on its operand stack.
type Comptime func(body []token.Token, line int) ([]token.Token, error)

// Error is a fatal lexing error. Source holds the offending line when known.
type Error struct {
	Line    int
	Message string
	Source  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type mode uint8

const (
	modeCode mode = iota
	modeString
	modeChar
	modeComment
	modeReg
)

type bracket struct {
	ch   rune
	line int
}

type level struct {
	toks      []token.Token
	line      int
	awaitAuto *token.Block // auto block still waiting for its logic body
}

func (lv *level) last() token.Token {
	if len(lv.toks) == 0 {
		return nil
	}
	return lv.toks[len(lv.toks)-1]
}

func (lv *level) beforeLast() token.Token {
	if len(lv.toks) < 2 {
		return nil
	}
	return lv.toks[len(lv.toks)-2]
}

func (lv *level) lastOp() (token.Op, bool) {
	o, ok := lv.last().(*token.Operator)
	if !ok {
		return 0, false
	}
	return o.Op, true
}

func (lv *level) drop() token.Token {
	t := lv.last()
	lv.toks = lv.toks[:len(lv.toks)-1]
	return t
}

func (lv *level) replace(t token.Token) {
	lv.toks[len(lv.toks)-1] = t
}

type Lexer struct {
	builtins Builtins
	comptime Comptime

	line  int
	mode  mode
	prev  rune // previous rune seen in code mode
	buf   []rune
	bline int // line the buffer started on

	levels   []*level
	brackets []bracket

	// string and char literals
	lit     []rune
	litLine int
	escape  bool

	// raw register program text
	reg        strings.Builder
	regDepth   int
	regLine    int
	regComment bool

	// module-qualified call in progress (m::)
	module   string
	colonTok token.Token

	// source kept for diagnostics
	lines []string
	cur   strings.Builder
}

func New(builtins Builtins) *Lexer {
	l := &Lexer{builtins: builtins, line: 1}
	l.reset()
	return l
}

// SetComptime installs the hook used for `comptime` blocks.
func (l *Lexer) SetComptime(fn Comptime) {
	l.comptime = fn
}

// Line returns the line the next character will be read on.
func (l *Lexer) Line() int {
	return l.line
}

func (l *Lexer) reset() {
	l.mode = modeCode
	l.prev = 0
	l.buf = l.buf[:0]
	l.levels = []*level{{line: l.line}}
	l.brackets = nil
	l.lit = nil
	l.escape = false
	l.reg.Reset()
	l.regDepth = 0
	l.regComment = false
	l.module = ""
	l.colonTok = nil
}

// Reset drops everything that has not been handed out by Finish. Line
// numbering continues.
func (l *Lexer) Reset() {
	l.reset()
}

// Pending reports whether more input is needed to close an open construct.
func (l *Lexer) Pending() bool {
	if l.mode == modeString || l.mode == modeChar || l.mode == modeReg {
		return true
	}
	if len(l.brackets) > 0 || l.module != "" {
		return true
	}
	top := l.top()
	if top.awaitAuto != nil {
		return true
	}
	if op, ok := top.lastOp(); ok && op.IsMarker() {
		return true
	}
	return false
}

// Insert feeds more source text. A returned error is fatal and leaves the
// lexer reset.
func (l *Lexer) Insert(src string) error {
	for _, r := range src {
		if err := l.step(r); err != nil {
			l.reset()
			return err
		}
		if r == '\n' {
			l.lines = append(l.lines, l.cur.String())
			l.cur.Reset()
			l.line++
		} else {
			l.cur.WriteRune(r)
		}
	}
	return nil
}

// Finish closes the input, reports anything left unterminated and returns
// the outermost token sequence. The lexer is ready for new input afterwards.
func (l *Lexer) Finish() ([]token.Token, error) {
	err := l.finish()
	if err != nil {
		l.reset()
		return nil, err
	}
	toks := l.levels[0].toks
	l.reset()
	return toks, nil
}

func (l *Lexer) finish() error {
	switch l.mode {
	case modeString:
		return l.errorf(l.litLine, "unterminated string")
	case modeChar:
		return l.errorf(l.litLine, "unterminated char")
	case modeReg:
		return l.errorf(l.regLine, "unterminated register program")
	case modeComment:
		l.mode = modeCode
	}
	if err := l.flush(); err != nil {
		return err
	}
	if n := len(l.brackets); n > 0 {
		b := l.brackets[n-1]
		return l.errorf(b.line, "unmatched '%c'", b.ch)
	}
	if l.module != "" {
		return l.errorf(l.line, "expected a name after %s::", l.module)
	}
	return l.unfinished(l.top())
}

// unfinished reports an auto or marker left without its block when lv ends.
func (l *Lexer) unfinished(lv *level) error {
	if lv.awaitAuto != nil {
		return l.errorf(lv.awaitAuto.Line(), "auto needs a logic block")
	}
	if op, ok := lv.lastOp(); ok && op.IsMarker() {
		return l.errorf(lv.last().Line(), "expected a block after %q", op.String())
	}
	return nil
}

// Tokenize lexes a complete source text.
func Tokenize(src string, builtins Builtins, comptime Comptime) ([]token.Token, error) {
	l := New(builtins)
	l.SetComptime(comptime)
	if err := l.Insert(src); err != nil {
		return nil, err
	}
	return l.Finish()
}

func (l *Lexer) errorf(line int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...), Source: l.sourceLine(line)}
}

func (l *Lexer) sourceLine(line int) string {
	i := line - 1
	switch {
	case i >= 0 && i < len(l.lines):
		return l.lines[i]
	case i == len(l.lines):
		return l.cur.String()
	}
	return ""
}

func (l *Lexer) top() *level {
	return l.levels[len(l.levels)-1]
}

func (l *Lexer) step(r rune) error {
	switch l.mode {
	case modeString, modeChar:
		return l.stepLiteral(r)
	case modeComment:
		if r == '\n' {
			l.mode = modeCode
			return l.separator()
		}
		return nil
	case modeReg:
		return l.stepReg(r)
	}

	defer func() { l.prev = r }()

	if isWordRune(r) || (r == '.' && len(l.buf) > 0 && unicode.IsDigit(l.buf[0])) {
		if len(l.buf) == 0 {
			l.bline = l.line
		}
		l.buf = append(l.buf, r)
		return nil
	}

	// Calls bind to the word directly before them.
	switch r {
	case '(':
		if len(l.buf) > 0 && !isKeyword(string(l.buf)) && !unicode.IsDigit(l.buf[0]) {
			return l.openCall()
		}
	case ':':
		if len(l.buf) > 0 && !isKeyword(string(l.buf)) && !unicode.IsDigit(l.buf[0]) {
			return l.colonCall()
		}
	}

	if err := l.flush(); err != nil {
		return err
	}
	if l.module != "" && !unicode.IsSpace(r) {
		return l.errorf(l.line, "expected a name after %s::", l.module)
	}
	return l.symbol(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) stepLiteral(r rune) error {
	if l.escape {
		l.lit = append(l.lit, r)
		l.escape = false
		return nil
	}
	quote := '"'
	if l.mode == modeChar {
		quote = '\''
	}
	switch r {
	case '\\':
		l.escape = true
		return nil
	case quote:
	default:
		l.lit = append(l.lit, r)
		return nil
	}

	pos := token.Pos(l.litLine)
	if l.mode == modeString {
		l.mode = modeCode
		return l.emit(&token.String{Pos: pos, Value: string(l.lit)})
	}
	l.mode = modeCode
	if len(l.lit) != 1 {
		return l.errorf(l.litLine, "char literal must hold exactly one character, got %d", len(l.lit))
	}
	return l.emit(&token.Char{Pos: pos, Value: l.lit[0]})
}

func (l *Lexer) stepReg(r rune) error {
	if l.regComment {
		if r == '\n' {
			l.regComment = false
		}
		l.reg.WriteRune(r)
		return nil
	}
	switch r {
	case '#':
		l.regComment = true
	case '[':
		l.regDepth++
	case ']':
		l.regDepth--
		if l.regDepth == 0 {
			l.mode = modeCode
			l.prev = ']'
			prog, err := regvm.Assemble(l.reg.String(), l.regLine)
			l.reg.Reset()
			if err != nil {
				if asm, ok := err.(*regvm.AsmError); ok {
					return l.errorf(asm.Line, "register program: %s", asm.Msg)
				}
				return l.errorf(l.regLine, "register program: %v", err)
			}
			return l.emit(prog)
		}
	}
	l.reg.WriteRune(r)
	return nil
}

// flush classifies the pending word.
func (l *Lexer) flush() error {
	if len(l.buf) == 0 {
		return nil
	}
	first, word := l.buf[0], string(l.buf)
	l.buf = l.buf[:0]
	pos := token.Pos(l.bline)

	if l.module != "" {
		mod := l.module
		l.module = ""
		return l.emit(&token.Call{Pos: pos, Module: mod, Name: word})
	}

	if unicode.IsDigit(first) {
		t, err := parseNumber(word, l.bline)
		if err != nil {
			return l.errorf(l.bline, "malformed number %q", word)
		}
		return l.emit(t)
	}

	if t, ok := keyword(word, l.bline); ok {
		if t == nil {
			return nil
		}
		return l.emit(t)
	}

	if idx, ok := l.lookup(word); ok {
		return l.emit(&token.Builtin{Pos: pos, Index: idx, Name: word})
	}
	return l.emit(&token.Identifier{Pos: pos, Name: word})
}

func (l *Lexer) lookup(name string) (int, bool) {
	if l.builtins == nil {
		return 0, false
	}
	return l.builtins.Lookup(name)
}

// IsNumber reports whether s is an optionally signed run of digits with at
// most one decimal point.
func IsNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func parseNumber(s string, line int) (token.Token, error) {
	if !IsNumber(s) {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return &token.Float{Pos: token.Pos(line), Value: f}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	n := token.NewBigInt(v)
	n.Pos = token.Pos(line)
	return n, nil
}

var keywordOps = map[string]token.Op{
	"and":      token.OP_AND,
	"or":       token.OP_OR,
	"not":      token.OP_NOT,
	"if":       token.OP_IF,
	"for":      token.OP_FOR,
	"break":    token.OP_BREAK,
	"continue": token.OP_CONTINUE,
	"auto":     token.OP_MARK_AUTO,
	"proc":     token.OP_MARK_PROC,
	"comptime": token.OP_MARK_COMPTIME,
	"reg":      token.OP_MARK_REG,
}

// noise words read well but emit nothing.
var noiseWords = map[string]bool{"in": true, "else": true}

func isKeyword(word string) bool {
	_, op := keywordOps[word]
	return op || noiseWords[word] || word == "true" || word == "false"
}

// keyword returns the token for a reserved word. A nil token with ok set
// means the word is noise.
func keyword(word string, line int) (token.Token, bool) {
	switch word {
	case "true", "false":
		return &token.Bool{Pos: token.Pos(line), Value: word == "true"}, true
	}
	if noiseWords[word] {
		return nil, true
	}
	if op, ok := keywordOps[word]; ok {
		return token.NewOp(op, line), true
	}
	return nil, false
}
