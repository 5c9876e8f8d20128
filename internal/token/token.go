// Package token defines the closed set of values and syntactic tokens shared by
// the lexer, the parser and the evaluator. A program is a []Token in execution
// order, and the runtime values on the operand stack are the same types.
package token

import "fmt"

type Kind uint8

const (
	INTEGER Kind = iota
	FLOAT
	STRING
	CHAR
	SYMBOL
	BOOL
	IDENT
	BLOCK
	LIST
	REG
	BUILTIN
	CALL
	TEMP_CALL
	STORE
	OPERATOR
)

var kindNames = [...]string{
	INTEGER:   "Integer",
	FLOAT:     "Float",
	STRING:    "String",
	CHAR:      "Char",
	SYMBOL:    "Symbol",
	BOOL:      "Bool",
	IDENT:     "Identifier",
	BLOCK:     "Block",
	LIST:      "List",
	REG:       "Reg",
	BUILTIN:   "Builtin",
	CALL:      "Call",
	TEMP_CALL: "TempCall",
	STORE:     "Store",
	OPERATOR:  "Operator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Token is implemented by every value and every syntactic token.
type Token interface {
	Kind() Kind
	Inspect() string
	Line() int
}

// Pos records the source line a token was lexed on. Values created at run
// time carry line 0.
type Pos int

func (p Pos) Line() int { return int(p) }

// Op enumerates operators, structural tokens and lexer markers.
type Op uint8

const (
	OP_ASSIGN Op = iota
	OP_EQ
	OP_NE
	OP_LT
	OP_GT
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NEG
	OP_NOT
	OP_AND
	OP_OR
	OP_ACCESS
	OP_IF
	OP_FOR
	OP_BREAK
	OP_CONTINUE
	OP_DUP
	OP_BIND

	// Structural tokens consumed by the parser
	OP_SEPARATOR
	OP_COMMA
	OP_LPAREN
	OP_RPAREN

	// Lexer-only markers; never reach the parser
	OP_MARK_AUTO
	OP_MARK_PROC
	OP_MARK_COMPTIME
	OP_MARK_REG
	OP_FUNC_COLON
)

var opSymbols = [...]string{
	OP_ASSIGN:        "=",
	OP_EQ:            "==",
	OP_NE:            "!=",
	OP_LT:            "<",
	OP_GT:            ">",
	OP_ADD:           "+",
	OP_SUB:           "-",
	OP_MUL:           "*",
	OP_DIV:           "/",
	OP_MOD:           "%",
	OP_NEG:           "neg",
	OP_NOT:           "not",
	OP_AND:           "and",
	OP_OR:            "or",
	OP_ACCESS:        ".",
	OP_IF:            "if",
	OP_FOR:           "for",
	OP_BREAK:         "break",
	OP_CONTINUE:      "continue",
	OP_DUP:           ">>",
	OP_BIND:          "->",
	OP_SEPARATOR:     ";",
	OP_COMMA:         ",",
	OP_LPAREN:        "(",
	OP_RPAREN:        ")",
	OP_MARK_AUTO:     "auto",
	OP_MARK_PROC:     "proc",
	OP_MARK_COMPTIME: "comptime",
	OP_MARK_REG:      "reg",
	OP_FUNC_COLON:    ":",
}

func (o Op) String() string {
	if int(o) < len(opSymbols) {
		return opSymbols[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// IsMarker reports whether o only exists between the lexer's scan and the
// block it introduces.
func (o Op) IsMarker() bool {
	return o >= OP_MARK_AUTO
}
