package lexer

import (
	"github.com/funvibe/stak/internal/token"
)

// emit appends t to the innermost open sequence. A pending marker (auto,
// proc, comptime, reg, or a parameter list's colon) only accepts the block it
// introduces; separators in between are dropped.
func (l *Lexer) emit(t token.Token) error {
	lv := l.top()
	op, isOp := lv.lastOp()
	if lv.awaitAuto != nil || (isOp && op.IsMarker()) {
		if token.IsOp(t, token.OP_SEPARATOR) {
			return nil
		}
		if lv.awaitAuto != nil {
			return l.errorf(lv.awaitAuto.Line(), "auto needs a logic block")
		}
		return l.errorf(lv.last().Line(), "expected a block after %q", op.String())
	}
	lv.toks = append(lv.toks, t)
	return nil
}

func (l *Lexer) emitOp(op token.Op) error {
	return l.emit(token.NewOp(op, l.line))
}

func (l *Lexer) separator() error {
	lv := l.top()
	last := lv.last()
	if last == nil || token.IsOp(last, token.OP_SEPARATOR) {
		return nil
	}
	return l.emitOp(token.OP_SEPARATOR)
}

// isOperand reports whether t leaves a value behind, which makes a following
// `-` binary.
func isOperand(t token.Token) bool {
	switch v := t.(type) {
	case *token.Integer, *token.Float, *token.String, *token.Char, *token.Bool, *token.Identifier, *token.List:
		return true
	case *token.Block:
		return v.Type == token.LIST_BLOCK
	case *token.Builtin:
		return !v.Deferred
	case *token.Call:
		return !v.Deferred
	case *token.Operator:
		return v.Op == token.OP_RPAREN
	}
	return false
}

func isListBlock(t token.Token) bool {
	b, ok := t.(*token.Block)
	return ok && b.Type == token.LIST_BLOCK
}

func (l *Lexer) symbol(r rune) error {
	lv := l.top()
	switch r {
	case ' ', '\t', '\r':
		return nil
	case '\n', ';':
		return l.separator()
	case '#':
		l.mode = modeComment
		return nil
	case '"':
		l.mode, l.lit, l.litLine = modeString, l.lit[:0], l.line
		return nil
	case '\'':
		l.mode, l.lit, l.litLine = modeChar, l.lit[:0], l.line
		return nil

	case ',':
		return l.emitOp(token.OP_COMMA)

	case '(':
		l.brackets = append(l.brackets, bracket{'(', l.line})
		switch last := lv.last().(type) {
		case *token.Operator:
			if last.Op == token.OP_RPAREN {
				if err := l.emit(&token.Store{Pos: token.Pos(l.line)}); err != nil {
					return err
				}
				if err := l.emit(&token.TempCall{Pos: token.Pos(l.line)}); err != nil {
					return err
				}
			}
		case *token.Block:
			if last.Type == token.LITERAL_BLOCK && l.prev == '}' {
				lambda := *last
				lambda.Type = token.LAMBDA_BLOCK
				lv.replace(&lambda)
			}
		}
		return l.emitOp(token.OP_LPAREN)

	case ')':
		if err := l.closeBracket('(', ')'); err != nil {
			return err
		}
		return l.emitOp(token.OP_RPAREN)

	case '{':
		l.brackets = append(l.brackets, bracket{'{', l.line})
		l.levels = append(l.levels, &level{line: l.line})
		return nil

	case '}':
		if err := l.closeBracket('{', '}'); err != nil {
			return err
		}
		return l.closeBlock()

	case '[':
		if op, ok := lv.lastOp(); ok && op == token.OP_MARK_REG {
			lv.drop()
			l.mode, l.regDepth, l.regLine = modeReg, 1, l.line
			l.reg.Reset()
			return nil
		}
		l.brackets = append(l.brackets, bracket{'[', l.line})
		l.levels = append(l.levels, &level{line: l.line})
		return nil

	case ']':
		if err := l.closeBracket('[', ']'); err != nil {
			return err
		}
		inner := l.levels[len(l.levels)-1]
		if err := l.unfinished(inner); err != nil {
			return err
		}
		l.levels = l.levels[:len(l.levels)-1]
		return l.emit(&token.Block{Pos: token.Pos(inner.line), Type: token.LIST_BLOCK, Body: inner.toks})

	case ':':
		// Second colon of m::name turns the call just emitted into a module.
		if l.prev == ':' && l.colonTok != nil && lv.last() == l.colonTok {
			lv.drop()
			l.module = callName(l.colonTok)
			l.colonTok = nil
			return nil
		}
		if isListBlock(lv.last()) {
			return l.emitOp(token.OP_FUNC_COLON)
		}
		return l.errorf(l.line, "unexpected ':'")

	case '=':
		if op, ok := lv.lastOp(); ok {
			switch {
			case op == token.OP_ASSIGN && l.prev == '=':
				lv.replace(token.NewOp(token.OP_EQ, l.line))
				return nil
			case op == token.OP_NOT && l.prev == '!':
				lv.replace(token.NewOp(token.OP_NE, l.line))
				return nil
			}
		}
		return l.emitOp(token.OP_ASSIGN)

	case '>':
		if op, ok := lv.lastOp(); ok {
			switch {
			case op == token.OP_SUB && l.prev == '-':
				if !isListBlock(lv.beforeLast()) {
					return l.errorf(l.line, "'->' must follow a list")
				}
				lv.replace(token.NewOp(token.OP_BIND, l.line))
				return nil
			case op == token.OP_NEG && l.prev == '-':
				return l.errorf(l.line, "'->' must follow a list")
			case op == token.OP_GT && l.prev == '>':
				lv.replace(token.NewOp(token.OP_DUP, l.line))
				return nil
			}
		}
		return l.emitOp(token.OP_GT)

	case '-':
		if isOperand(lv.last()) {
			return l.emitOp(token.OP_SUB)
		}
		return l.emitOp(token.OP_NEG)

	case '<':
		return l.emitOp(token.OP_LT)
	case '+':
		return l.emitOp(token.OP_ADD)
	case '*':
		return l.emitOp(token.OP_MUL)
	case '/':
		return l.emitOp(token.OP_DIV)
	case '%':
		return l.emitOp(token.OP_MOD)
	case '!':
		return l.emitOp(token.OP_NOT)
	case '.':
		return l.emitOp(token.OP_ACCESS)
	}
	return l.errorf(l.line, "unexpected character %q", r)
}

func callName(t token.Token) string {
	switch c := t.(type) {
	case *token.Call:
		return c.Name
	case *token.Builtin:
		return c.Name
	}
	return ""
}

func (l *Lexer) closeBracket(open, close rune) error {
	n := len(l.brackets)
	if n == 0 {
		return l.errorf(l.line, "unmatched '%c'", close)
	}
	top := l.brackets[n-1]
	if top.ch != open {
		return l.errorf(top.line, "unmatched '%c'", top.ch)
	}
	l.brackets = l.brackets[:n-1]
	return nil
}

// callToken builds the token for name( or name:.
func (l *Lexer) callToken() token.Token {
	name := string(l.buf)
	l.buf = l.buf[:0]
	pos := token.Pos(l.bline)
	if l.module != "" {
		mod := l.module
		l.module = ""
		return &token.Call{Pos: pos, Module: mod, Name: name, Deferred: true}
	}
	if idx, ok := l.lookup(name); ok {
		return &token.Builtin{Pos: pos, Index: idx, Name: name, Deferred: true}
	}
	return &token.Call{Pos: pos, Name: name, Deferred: true}
}

func (l *Lexer) openCall() error {
	if err := l.emit(l.callToken()); err != nil {
		return err
	}
	l.brackets = append(l.brackets, bracket{'(', l.line})
	return l.emitOp(token.OP_LPAREN)
}

func (l *Lexer) colonCall() error {
	if l.module != "" {
		return l.errorf(l.line, "unexpected ':' after %s::", l.module)
	}
	t := l.callToken()
	if err := l.emit(t); err != nil {
		return err
	}
	l.colonTok = t
	return nil
}

// closeBlock wraps the innermost sequence according to the marker in front of
// its opening brace.
func (l *Lexer) closeBlock() error {
	inner := l.levels[len(l.levels)-1]
	if err := l.unfinished(inner); err != nil {
		return err
	}
	l.levels = l.levels[:len(l.levels)-1]
	parent := l.top()
	blk := &token.Block{Pos: token.Pos(inner.line), Type: token.LITERAL_BLOCK, Body: inner.toks}

	if auto := parent.awaitAuto; auto != nil {
		auto.Body = inner.toks
		parent.awaitAuto = nil
		return nil
	}

	op, _ := parent.lastOp()
	switch {
	case token.IsOp(parent.last(), token.OP_MARK_PROC):
		parent.drop()
		blk.Type = token.PROCEDURE_BLOCK

	case token.IsOp(parent.last(), token.OP_FUNC_COLON):
		parent.drop()
		list := parent.drop().(*token.Block)
		params, err := l.params(list)
		if err != nil {
			return err
		}
		blk.Type = token.FUNCTION_BLOCK
		blk.Params = params
		blk.Pos = list.Pos

	case token.IsOp(parent.last(), token.OP_MARK_AUTO):
		parent.drop()
		blk.Type = token.AUTO_BLOCK
		blk.Setup, blk.Body = inner.toks, nil
		parent.toks = append(parent.toks, blk)
		parent.awaitAuto = blk
		return nil

	case token.IsOp(parent.last(), token.OP_MARK_COMPTIME):
		parent.drop()
		if l.comptime == nil {
			return l.errorf(inner.line, "comptime evaluation is not available")
		}
		vals, err := l.comptime(inner.toks, inner.line)
		if err != nil {
			return l.errorf(inner.line, "comptime: %v", err)
		}
		for _, v := range vals {
			if err := l.emit(v); err != nil {
				return err
			}
		}
		return nil

	case op == token.OP_MARK_REG:
		return l.errorf(parent.last().Line(), "reg expects a bracketed program")
	}
	return l.emit(blk)
}

func (l *Lexer) params(list *token.Block) ([]string, error) {
	var names []string
	for _, t := range list.Body {
		switch v := t.(type) {
		case *token.Identifier:
			names = append(names, v.Name)
		case *token.Operator:
			if v.Op == token.OP_COMMA || v.Op == token.OP_SEPARATOR {
				continue
			}
			return nil, l.errorf(list.Line(), "function parameters must be names, got %s", t.Inspect())
		default:
			return nil, l.errorf(list.Line(), "function parameters must be names, got %s", t.Inspect())
		}
	}
	return names, nil
}
