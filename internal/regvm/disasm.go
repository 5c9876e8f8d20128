package regvm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/stak/internal/token"
)

// Disassemble returns a human-readable listing of a register program
func Disassemble(r *token.Reg, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	if len(r.Regs) > 0 {
		sb.WriteString(fmt.Sprintf("regs: %s\n", strings.Join(r.Regs, " ")))
	}

	labelsAt := make(map[int][]string)
	for label, addr := range r.Labels {
		labelsAt[addr] = append(labelsAt[addr], label)
	}

	offset := 0
	for offset < len(r.Code) {
		if labels, ok := labelsAt[offset]; ok {
			sort.Strings(labels)
			for _, l := range labels {
				sb.WriteString(l + ":\n")
			}
		}
		offset = disassembleInstruction(&sb, r, offset)
	}

	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, r *token.Reg, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	op := Opcode(r.Code[offset])
	info, ok := opTable[op]
	if !ok {
		sb.WriteString(fmt.Sprintf("??? %d\n", r.Code[offset]))
		return offset + 1
	}

	sb.WriteString(fmt.Sprintf("%-6s", info.name))
	for i, kind := range []byte(info.shape) {
		at := offset + 1 + i
		if at >= len(r.Code) {
			sb.WriteString(" <truncated>")
			break
		}
		v := r.Code[at]
		switch kind {
		case operandReg:
			sb.WriteString(" " + regName(r, v))
		case operandTarget:
			if info.relative {
				sb.WriteString(fmt.Sprintf(" %+d (-> %04d)", v, offset+v))
			} else {
				sb.WriteString(fmt.Sprintf(" %04d", v))
			}
		default:
			sb.WriteString(fmt.Sprintf(" #%d", v))
		}
	}
	sb.WriteString("\n")
	return offset + op.Width()
}

func regName(r *token.Reg, off int) string {
	if off >= 0 && off < len(r.Regs) {
		return r.Regs[off]
	}
	return fmt.Sprintf("r%d", off)
}
