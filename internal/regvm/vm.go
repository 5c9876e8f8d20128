package regvm

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/funvibe/stak/internal/token"
)

// Window is the slice of the host operand stack a program runs on. Offset 0
// is the stack top.
type Window interface {
	At(offset int) (token.Token, bool)
	Set(offset int, v token.Token) bool
}

// Fault halts one program. The host logs it and carries on.
type Fault struct {
	IP  int
	Msg string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("register vm fault at %d: %s", f.IP, f.Msg)
}

// cancelCheckInterval is how many instructions run between context checks.
const cancelCheckInterval = 1024

type machine struct {
	code []int
	ip   int
	win  Window
	out  io.Writer
}

// Exec runs r from its entry offset until OP_END or a fault.
func Exec(ctx context.Context, r *token.Reg, win Window, out io.Writer) error {
	m := &machine{code: r.Code, ip: r.Entry, win: win, out: out}
	for steps := 0; ; steps++ {
		if steps%cancelCheckInterval == 0 && ctx.Err() != nil {
			return &Fault{IP: m.ip, Msg: ctx.Err().Error()}
		}
		done, err := m.step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (m *machine) fault(format string, args ...interface{}) *Fault {
	return &Fault{IP: m.ip, Msg: fmt.Sprintf(format, args...)}
}

// arg returns operand n of the instruction at ip.
func (m *machine) arg(n int) (int, error) {
	i := m.ip + 1 + n
	if i >= len(m.code) {
		return 0, m.fault("truncated instruction")
	}
	return m.code[i], nil
}

func (m *machine) args(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := m.arg(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *machine) reg(off int) (token.Token, error) {
	v, ok := m.win.At(off)
	if !ok {
		return nil, m.fault("register offset %d out of range", off)
	}
	return v, nil
}

func (m *machine) set(off int, v token.Token) error {
	if !m.win.Set(off, v) {
		return m.fault("register offset %d out of range", off)
	}
	return nil
}

func (m *machine) step() (bool, error) {
	if m.ip < 0 || m.ip >= len(m.code) {
		return false, m.fault("instruction pointer out of range")
	}
	op := Opcode(m.code[m.ip])
	info, known := opTable[op]
	if !known {
		return false, m.fault("unknown opcode %d", op)
	}
	a, err := m.args(len(info.shape))
	if err != nil {
		return false, err
	}
	next := m.ip + op.Width()

	switch op {
	case OP_END:
		return true, nil

	case OP_IADD, OP_ISUB, OP_IMUL, OP_IDIV:
		x, y, err := m.ints(a[0], a[1])
		if err != nil {
			return false, err
		}
		z, err := m.intArith(op, x, y)
		if err != nil {
			return false, err
		}
		if err := m.set(a[2], token.NewBigInt(z)); err != nil {
			return false, err
		}

	case OP_FADD, OP_FSUB, OP_FMUL, OP_FDIV:
		x, y, err := m.floats(a[0], a[1])
		if err != nil {
			return false, err
		}
		var z float64
		switch op {
		case OP_FADD:
			z = x + y
		case OP_FSUB:
			z = x - y
		case OP_FMUL:
			z = x * y
		case OP_FDIV:
			if y == 0 {
				return false, m.fault("division by zero")
			}
			z = x / y
		}
		if err := m.set(a[2], &token.Float{Value: z}); err != nil {
			return false, err
		}

	case OP_SWAP:
		x, err := m.reg(a[0])
		if err != nil {
			return false, err
		}
		y, err := m.reg(a[1])
		if err != nil {
			return false, err
		}
		m.win.Set(a[0], y)
		m.win.Set(a[1], x)

	case OP_COPY:
		x, err := m.reg(a[0])
		if err != nil {
			return false, err
		}
		if err := m.set(a[1], x); err != nil {
			return false, err
		}

	case OP_DCOPY:
		x, err := m.reg(a[0])
		if err != nil {
			return false, err
		}
		y, err := m.reg(a[1])
		if err != nil {
			return false, err
		}
		if err := m.set(a[2], x); err != nil {
			return false, err
		}
		if err := m.set(a[3], y); err != nil {
			return false, err
		}

	case OP_JMP:
		next = a[0]
	case OP_RJMP:
		next = m.ip + a[0]

	case OP_JEQ, OP_JNQ, OP_JGT, OP_RJEQ, OP_RJNQ, OP_RJGT:
		x, err := m.reg(a[0])
		if err != nil {
			return false, err
		}
		y, err := m.reg(a[1])
		if err != nil {
			return false, err
		}
		taken, err := m.compare(op, x, y)
		if err != nil {
			return false, err
		}
		if taken {
			next = a[2]
			if info.relative {
				next = m.ip + a[2]
			}
		}

	case OP_JEQI, OP_JNQI:
		x, err := m.reg(a[0])
		if err != nil {
			return false, err
		}
		taken, err := m.compare(op, x, token.NewInt(int64(a[1])))
		if err != nil {
			return false, err
		}
		if taken {
			next = a[2]
		}

	case OP_INC, OP_DEC:
		delta := int64(1)
		if op == OP_DEC {
			delta = -1
		}
		if err := m.addImm(a[0], delta, a[0]); err != nil {
			return false, err
		}

	case OP_SET:
		if err := m.set(a[0], token.NewInt(int64(a[1]))); err != nil {
			return false, err
		}

	case OP_ADDI:
		if err := m.addImm(a[0], int64(a[1]), a[2]); err != nil {
			return false, err
		}

	case OP_OUT:
		x, err := m.reg(a[0])
		if err != nil {
			return false, err
		}
		fmt.Fprintln(m.out, token.Stringify(x))
	}

	m.ip = next
	return false, nil
}

func (m *machine) ints(ra, rb int) (*big.Int, *big.Int, error) {
	x, err := m.reg(ra)
	if err != nil {
		return nil, nil, err
	}
	y, err := m.reg(rb)
	if err != nil {
		return nil, nil, err
	}
	xi, ok1 := x.(*token.Integer)
	yi, ok2 := y.(*token.Integer)
	if !ok1 || !ok2 {
		return nil, nil, m.fault("integer op on %s and %s", x.Kind(), y.Kind())
	}
	return xi.Value, yi.Value, nil
}

func (m *machine) intArith(op Opcode, x, y *big.Int) (*big.Int, error) {
	z := new(big.Int)
	switch op {
	case OP_IADD:
		z.Add(x, y)
	case OP_ISUB:
		z.Sub(x, y)
	case OP_IMUL:
		z.Mul(x, y)
	case OP_IDIV:
		if y.Sign() == 0 {
			return nil, m.fault("division by zero")
		}
		// Floored, matching the language's %.
		var r big.Int
		z.QuoRem(x, y, &r)
		if r.Sign() != 0 && (r.Sign() < 0) != (y.Sign() < 0) {
			z.Sub(z, big.NewInt(1))
		}
	}
	return z, nil
}

func (m *machine) floats(ra, rb int) (float64, float64, error) {
	x, err := m.reg(ra)
	if err != nil {
		return 0, 0, err
	}
	y, err := m.reg(rb)
	if err != nil {
		return 0, 0, err
	}
	xf, ok1 := asFloat(x)
	yf, ok2 := asFloat(y)
	if !ok1 || !ok2 {
		return 0, 0, m.fault("float op on %s and %s", x.Kind(), y.Kind())
	}
	return xf, yf, nil
}

func asFloat(t token.Token) (float64, bool) {
	return token.AsFloat(t)
}

func (m *machine) addImm(src int, imm int64, dst int) error {
	x, err := m.reg(src)
	if err != nil {
		return err
	}
	var v token.Token
	switch n := x.(type) {
	case *token.Integer:
		v = token.NewBigInt(new(big.Int).Add(n.Value, big.NewInt(imm)))
	case *token.Float:
		v = &token.Float{Value: n.Value + float64(imm)}
	default:
		return m.fault("arithmetic on %s", x.Kind())
	}
	return m.set(dst, v)
}

func (m *machine) compare(op Opcode, x, y token.Token) (bool, error) {
	c, numeric := numericCmp(x, y)
	switch op {
	case OP_JEQ, OP_RJEQ, OP_JEQI:
		if numeric {
			return c == 0, nil
		}
		return token.Equal(x, y), nil
	case OP_JNQ, OP_RJNQ, OP_JNQI:
		if numeric {
			return c != 0, nil
		}
		return !token.Equal(x, y), nil
	}
	if !numeric {
		return false, m.fault("cannot compare %s and %s", x.Kind(), y.Kind())
	}
	return c > 0, nil
}

func numericCmp(x, y token.Token) (int, bool) {
	xi, ok1 := x.(*token.Integer)
	yi, ok2 := y.(*token.Integer)
	if ok1 && ok2 {
		return xi.Value.Cmp(yi.Value), true
	}
	xf, ok1 := asFloat(x)
	yf, ok2 := asFloat(y)
	if !ok1 || !ok2 {
		return 0, false
	}
	switch {
	case xf < yf:
		return -1, true
	case xf > yf:
		return 1, true
	}
	return 0, true
}
