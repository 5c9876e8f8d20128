// Package regvm implements the embedded register sub-language: an assembler
// that turns a bracketed mnemonic list into a flat integer program, and an
// interpreter that runs such a program against a window of the host operand
// stack. Register operands are offsets from the current stack top.
package regvm

// Opcode is a single register-VM instruction.
type Opcode int

const (
	OP_END Opcode = iota // Halt

	// Integer arithmetic: a b dst
	OP_IADD
	OP_ISUB
	OP_IMUL
	OP_IDIV

	// Float arithmetic: a b dst (integers are promoted)
	OP_FADD
	OP_FSUB
	OP_FMUL
	OP_FDIV

	// Stack window manipulation
	OP_SWAP  // a b
	OP_COPY  // src dst
	OP_DCOPY // src1 src2 dst1 dst2

	// Absolute jumps
	OP_JMP // target
	OP_JEQ // a b target
	OP_JNQ // a b target
	OP_JGT // a b target

	// Relative jumps, offset from the instruction start
	OP_RJMP
	OP_RJEQ
	OP_RJNQ
	OP_RJGT

	OP_INC // a
	OP_DEC // a
	OP_SET // a imm
	OP_OUT // a

	// Immediate forms
	OP_ADDI // a imm dst
	OP_JEQI // a imm target
	OP_JNQI // a imm target
)

// Operand kinds in an opInfo shape string.
const (
	operandReg    = 'r'
	operandImm    = 'i'
	operandTarget = 't'
)

type opInfo struct {
	name     string
	shape    string
	relative bool
}

var opTable = map[Opcode]opInfo{
	OP_END:   {"end", "", false},
	OP_IADD:  {"iadd", "rrr", false},
	OP_ISUB:  {"isub", "rrr", false},
	OP_IMUL:  {"imul", "rrr", false},
	OP_IDIV:  {"idiv", "rrr", false},
	OP_FADD:  {"fadd", "rrr", false},
	OP_FSUB:  {"fsub", "rrr", false},
	OP_FMUL:  {"fmul", "rrr", false},
	OP_FDIV:  {"fdiv", "rrr", false},
	OP_SWAP:  {"swap", "rr", false},
	OP_COPY:  {"copy", "rr", false},
	OP_DCOPY: {"dcopy", "rrrr", false},
	OP_JMP:   {"jmp", "t", false},
	OP_JEQ:   {"jeq", "rrt", false},
	OP_JNQ:   {"jnq", "rrt", false},
	OP_JGT:   {"jgt", "rrt", false},
	OP_RJMP:  {"rjmp", "t", true},
	OP_RJEQ:  {"rjeq", "rrt", true},
	OP_RJNQ:  {"rjnq", "rrt", true},
	OP_RJGT:  {"rjgt", "rrt", true},
	OP_INC:   {"inc", "r", false},
	OP_DEC:   {"dec", "r", false},
	OP_SET:   {"set", "ri", false},
	OP_OUT:   {"out", "r", false},
	OP_ADDI:  {"addi", "rir", false},
	OP_JEQI:  {"jeqi", "rit", false},
	OP_JNQI:  {"jnqi", "rit", false},
}

var mnemonics = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opTable))
	for op, info := range opTable {
		m[info.name] = op
	}
	return m
}()

func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.name
	}
	return "???"
}

// Width is the number of ints the instruction occupies, opcode included.
func (op Opcode) Width() int {
	info, ok := opTable[op]
	if !ok {
		return 1
	}
	return 1 + len(info.shape)
}
