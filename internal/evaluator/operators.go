package evaluator

import (
	"fmt"
	"math/big"

	"github.com/funvibe/stak/internal/token"
)

func (e *Evaluator) operator(o *token.Operator) {
	st := e.State
	switch o.Op {
	case token.OP_ADD, token.OP_SUB, token.OP_MUL, token.OP_DIV, token.OP_MOD,
		token.OP_EQ, token.OP_NE, token.OP_LT, token.OP_GT, token.OP_AND, token.OP_OR:
		left, right, ok := e.Pop2(o.Op.String())
		if !ok {
			return
		}
		v, err := Binary(o.Op, left, right)
		if err != nil {
			e.Logf("%v", err)
			return
		}
		st.Push(v)

	case token.OP_NEG, token.OP_NOT:
		x, ok := e.Pop(o.Op.String())
		if !ok {
			return
		}
		v, err := Unary(o.Op, x)
		if err != nil {
			e.Logf("%v", err)
			return
		}
		st.Push(v)

	case token.OP_ASSIGN:
		e.assign()
	case token.OP_ACCESS:
		e.access()
	case token.OP_IF:
		e.branch()
	case token.OP_FOR:
		e.loop()
	case token.OP_BREAK:
		if e.loops == 0 {
			e.Logf("break outside loop")
			return
		}
		st.ExitLoop = true
	case token.OP_CONTINUE:
		if e.loops == 0 {
			e.Logf("continue outside loop")
			return
		}
		st.ContinueLoop = true
	case token.OP_DUP:
		if v, ok := st.Peek(); ok {
			st.Push(v)
		} else {
			e.Logf("not enough arguments for >>")
		}
	case token.OP_BIND:
		e.bind()
	case token.OP_SEPARATOR, token.OP_COMMA, token.OP_LPAREN, token.OP_RPAREN:
	default:
		e.Logf("unexpected %s", o.Op)
	}
}

// assign pops a value and a target name. An Identifier value moves its
// binding to the target instead of copying it.
func (e *Evaluator) assign() {
	st := e.State
	value, ok := e.PopRaw("=")
	if !ok {
		return
	}
	target, ok := e.PopRaw("=")
	if !ok {
		return
	}
	id, isIdent := target.(*token.Identifier)
	if !isIdent {
		e.Logf("cannot assign to %s", target.Inspect())
		return
	}
	if id.Name == token.Discard {
		return
	}
	if src, isIdent := value.(*token.Identifier); isIdent {
		v, bound := st.GetFromHeap(src.Name)
		if !bound {
			e.Logf("unknown identifier %s", src.Name)
			return
		}
		st.Remove(src.Name)
		st.Insert(id.Name, v)
		return
	}
	st.Insert(id.Name, value)
}

// bind pops a List of names and then one value per name, right to left, into
// the top frame.
func (e *Evaluator) bind() {
	st := e.State
	names, ok := e.PopList("->")
	if !ok {
		return
	}
	vals := make([]token.Token, len(names.Elems))
	for i := len(vals) - 1; i >= 0; i-- {
		v, ok := e.Pop("->")
		if !ok {
			return
		}
		vals[i] = v
	}
	for i, n := range names.Elems {
		id, isIdent := n.(*token.Identifier)
		if !isIdent {
			e.Logf("-> expects names, got %s", n.Inspect())
			continue
		}
		st.Insert(id.Name, vals[i])
	}
}

// access implements obj.field: obj's block runs in a scratch frame and field
// is read out of it.
func (e *Evaluator) access() {
	field, ok := e.PopRaw(".")
	if !ok {
		return
	}
	name, isIdent := field.(*token.Identifier)
	if !isIdent {
		e.Logf(". expects a field name, got %s", field.Inspect())
		return
	}
	obj, ok := e.Pop(".")
	if !ok {
		return
	}
	b, isBlock := obj.(*token.Block)
	if !isBlock {
		e.Logf("cannot access %s on %s", name.Name, obj.Kind())
		return
	}
	frame, ok := e.fields(b)
	if !ok {
		return
	}
	v, found := frame[name.Name]
	if !found {
		e.Logf("no field %s", name.Name)
		return
	}
	e.State.Push(v)
}

// branch pops a body and either a condition or an else body. The chosen body
// runs in the current frame.
func (e *Evaluator) branch() {
	body, ok := e.PopBlock("if")
	if !ok {
		return
	}
	next, ok := e.Pop("if")
	if !ok {
		return
	}
	var elseBody *token.Block
	cond := next
	if b, isBlock := next.(*token.Block); isBlock {
		elseBody, body = body, b
		if cond, ok = e.Pop("if"); !ok {
			return
		}
	}
	truth, isBool := token.Truthy(cond)
	if !isBool {
		e.Logf("if expects a Bool condition, got %s", cond.Kind())
		return
	}
	switch {
	case truth:
		e.Run(body.Body)
	case elseBody != nil:
		e.Run(elseBody.Body)
	}
}

// loop pops a body, an iterable and a binding name.
func (e *Evaluator) loop() {
	st := e.State
	body, ok := e.PopBlock("for")
	if !ok {
		return
	}
	iterable, ok := e.Pop("for")
	if !ok {
		return
	}
	target, ok := e.PopRaw("for")
	if !ok {
		return
	}
	id, isIdent := target.(*token.Identifier)
	if !isIdent {
		e.Logf("for expects a loop variable, got %s", target.Inspect())
		return
	}
	e.loops++
	defer func() { e.loops-- }()

	step := func(elem token.Token) bool {
		if id.Name != token.Discard {
			if _, isIdent := elem.(*token.Identifier); isIdent {
				v, ok := st.Resolve(elem)
				if !ok {
					return false
				}
				elem = v
			}
			st.Insert(id.Name, elem)
		}
		e.Run(body.Body)
		if st.ExitLoop || e.halted {
			return false
		}
		st.ContinueLoop = false
		return true
	}

	switch it := iterable.(type) {
	case *token.List:
		for _, v := range it.Elems {
			if !step(v) {
				break
			}
		}
	case *token.Block:
		for _, v := range it.Body {
			if !step(v) {
				break
			}
		}
	case *token.Bool:
		for it.Value && !e.stopped() {
			if !step(&token.Bool{Value: true}) {
				break
			}
		}
	case *token.Integer:
		n := new(big.Int).Set(it.Value)
		for i := new(big.Int); i.Cmp(n) < 0; i.Add(i, big.NewInt(1)) {
			if !step(token.NewBigInt(new(big.Int).Set(i))) {
				break
			}
		}
	case *token.String:
		for _, r := range it.Value {
			if !step(&token.Char{Value: r}) {
				break
			}
		}
	default:
		e.Logf("cannot iterate over %s", iterable.Kind())
	}

	if id.Name != token.Discard {
		st.Remove(id.Name)
	}
	st.ClearLoop()
}

// Binary applies a binary operator to already-resolved operands.
func Binary(op token.Op, a, b token.Token) (token.Token, error) {
	switch op {
	case token.OP_ADD:
		return add(a, b)
	case token.OP_SUB, token.OP_MUL:
		return numeric(op, a, b)
	case token.OP_DIV:
		x, ok1 := token.AsFloat(a)
		y, ok2 := token.AsFloat(b)
		if !ok1 || !ok2 {
			return nil, unsupported(op, a, b)
		}
		if y == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return &token.Float{Value: x / y}, nil
	case token.OP_MOD:
		x, y := token.BigOf(a), token.BigOf(b)
		if x == nil || y == nil {
			return nil, unsupported(op, a, b)
		}
		if y.Sign() == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return token.NewBigInt(FloorMod(x, y)), nil
	case token.OP_EQ:
		return &token.Bool{Value: token.Equal(a, b)}, nil
	case token.OP_NE:
		return &token.Bool{Value: !token.Equal(a, b)}, nil
	case token.OP_LT, token.OP_GT:
		c, ok := compare(a, b)
		if !ok {
			return nil, unsupported(op, a, b)
		}
		if op == token.OP_LT {
			return &token.Bool{Value: c < 0}, nil
		}
		return &token.Bool{Value: c > 0}, nil
	case token.OP_AND, token.OP_OR:
		x, ok1 := token.Truthy(a)
		y, ok2 := token.Truthy(b)
		if !ok1 || !ok2 {
			return nil, unsupported(op, a, b)
		}
		if op == token.OP_AND {
			return &token.Bool{Value: x && y}, nil
		}
		return &token.Bool{Value: x || y}, nil
	}
	return nil, fmt.Errorf("%s is not a binary operator", op)
}

// Unary applies negation or logical not.
func Unary(op token.Op, x token.Token) (token.Token, error) {
	switch op {
	case token.OP_NEG:
		switch v := x.(type) {
		case *token.Integer:
			return token.NewBigInt(new(big.Int).Neg(v.Value)), nil
		case *token.Float:
			return &token.Float{Value: -v.Value}, nil
		}
	case token.OP_NOT:
		if b, ok := token.Truthy(x); ok {
			return &token.Bool{Value: !b}, nil
		}
	}
	return nil, fmt.Errorf("unsupported operand type for %s: %s", op, x.Kind())
}

func unsupported(op token.Op, a, b token.Token) error {
	return fmt.Errorf("unsupported operand types for %s: %s and %s", op, a.Kind(), b.Kind())
}

func isText(t token.Token) bool {
	switch t.(type) {
	case *token.String, *token.Char:
		return true
	}
	return false
}

func add(a, b token.Token) (token.Token, error) {
	if x, ok := a.(*token.List); ok {
		if y, ok := b.(*token.List); ok {
			elems := append(token.Clone(x.Elems), y.Elems...)
			return token.NewList(elems), nil
		}
	}
	_, aInt := a.(*token.Integer)
	_, bInt := b.(*token.Integer)
	if (isText(a) || aInt) && (isText(b) || bInt) && (isText(a) || isText(b)) {
		return &token.String{Value: token.Stringify(a) + token.Stringify(b)}, nil
	}
	return numeric(token.OP_ADD, a, b)
}

// numeric applies + - * with Integer to Float promotion.
func numeric(op token.Op, a, b token.Token) (token.Token, error) {
	x, y := token.BigOf(a), token.BigOf(b)
	if x != nil && y != nil {
		z := new(big.Int)
		switch op {
		case token.OP_ADD:
			z.Add(x, y)
		case token.OP_SUB:
			z.Sub(x, y)
		case token.OP_MUL:
			z.Mul(x, y)
		}
		return token.NewBigInt(z), nil
	}
	fx, ok1 := token.AsFloat(a)
	fy, ok2 := token.AsFloat(b)
	if !ok1 || !ok2 {
		return nil, unsupported(op, a, b)
	}
	var z float64
	switch op {
	case token.OP_ADD:
		z = fx + fy
	case token.OP_SUB:
		z = fx - fy
	case token.OP_MUL:
		z = fx * fy
	}
	return &token.Float{Value: z}, nil
}

// FloorMod returns x mod y with the sign of y.
func FloorMod(x, y *big.Int) *big.Int {
	m := new(big.Int).Rem(x, y)
	if m.Sign() != 0 && (m.Sign() < 0) != (y.Sign() < 0) {
		m.Add(m, y)
	}
	return m
}

func compare(a, b token.Token) (int, bool) {
	x, y := token.BigOf(a), token.BigOf(b)
	if x != nil && y != nil {
		return x.Cmp(y), true
	}
	fx, ok1 := token.AsFloat(a)
	fy, ok2 := token.AsFloat(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	switch {
	case fx < fy:
		return -1, true
	case fx > fy:
		return 1, true
	}
	return 0, true
}
