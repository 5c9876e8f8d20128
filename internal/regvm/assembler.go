package regvm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/stak/internal/token"
)

// EntryLabel names the label execution starts at.
const EntryLabel = "main"

// AsmError is a fatal assembly error.
type AsmError struct {
	Line int
	Msg  string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type patchSite struct {
	at    int // index in code holding the operand
	start int // address of the instruction
	label string
	rel   bool
	line  int
}

type assembler struct {
	code    []int
	regs    map[string]int
	names   []string
	labels  map[string]int
	patches []patchSite

	// current instruction being filled
	op      Opcode
	start   int
	pending string
	opLine  int
}

type word struct {
	text string
	line int
}

// Assemble compiles the text between `reg [` and its closing `]`. line is the
// source line the text starts on, used for error positions.
func Assemble(src string, line int) (*token.Reg, error) {
	a := &assembler{regs: make(map[string]int), labels: make(map[string]int)}

	words, err := a.scan(src, line)
	if err != nil {
		return nil, err
	}
	for _, w := range words {
		if err := a.feed(w); err != nil {
			return nil, err
		}
	}
	if a.pending != "" {
		return nil, &AsmError{Line: a.opLine, Msg: fmt.Sprintf("%s expects %d operands", a.op, len(a.pending))}
	}

	// Second pass: patch forward references now that every label is known.
	for _, p := range a.patches {
		addr, ok := a.labels[p.label]
		if !ok {
			return nil, &AsmError{Line: p.line, Msg: fmt.Sprintf("unresolved label %q", p.label)}
		}
		if p.rel {
			addr -= p.start
		}
		a.code[p.at] = addr
	}

	entry, ok := a.labels[EntryLabel]
	if !ok {
		return nil, &AsmError{Line: line, Msg: "register program has no main label"}
	}
	return &token.Reg{Pos: token.Pos(line), Code: a.code, Entry: entry, Regs: a.names, Labels: a.labels}, nil
}

// scan strips comments, reads the optional register-name list and splits the
// rest into words.
func (a *assembler) scan(src string, line int) ([]word, error) {
	var words []word
	inRegs := false
	seenCode := false
	for i, text := range strings.Split(src, "\n") {
		ln := line + i
		if idx := strings.IndexByte(text, '#'); idx >= 0 {
			text = text[:idx]
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\r' || r == ',' || r == ';'
		})
		for _, f := range fields {
			for f != "" {
				switch {
				case !seenCode && !inRegs && strings.HasPrefix(f, "["):
					inRegs = true
					f = f[1:]
					continue
				case inRegs:
					name, rest, closed := strings.Cut(f, "]")
					if name != "" {
						if _, dup := a.regs[name]; dup {
							return nil, &AsmError{Line: ln, Msg: fmt.Sprintf("duplicate register %q", name)}
						}
						a.regs[name] = len(a.names)
						a.names = append(a.names, name)
					}
					if closed {
						inRegs = false
						seenCode = true
					}
					f = rest
					continue
				}
				seenCode = true
				words = append(words, word{text: f, line: ln})
				f = ""
			}
		}
	}
	if inRegs {
		return nil, &AsmError{Line: line, Msg: "unterminated register list"}
	}
	return words, nil
}

func (a *assembler) feed(w word) error {
	if a.pending == "" {
		if label, ok := strings.CutSuffix(w.text, ":"); ok && label != "" {
			if _, dup := a.labels[label]; dup {
				return &AsmError{Line: w.line, Msg: fmt.Sprintf("duplicate label %q", label)}
			}
			a.labels[label] = len(a.code)
			return nil
		}
		op, ok := mnemonics[w.text]
		if !ok {
			return &AsmError{Line: w.line, Msg: fmt.Sprintf("unknown mnemonic %q", w.text)}
		}
		a.op, a.start, a.opLine = op, len(a.code), w.line
		a.pending = opTable[op].shape
		a.code = append(a.code, int(op))
		return nil
	}

	kind := a.pending[0]
	a.pending = a.pending[1:]
	a.code = append(a.code, a.operand(w, kind))
	return nil
}

// operand resolves a literal integer or a register name; anything else is a
// label reference patched after the pass.
func (a *assembler) operand(w word, kind byte) int {
	if n, err := strconv.Atoi(w.text); err == nil {
		return n
	}
	if idx, ok := a.regs[w.text]; ok && kind != operandTarget {
		return idx
	}
	a.patches = append(a.patches, patchSite{
		at:    len(a.code),
		start: a.start,
		label: w.text,
		rel:   kind == operandTarget && opTable[a.op].relative,
		line:  w.line,
	})
	return 0
}
