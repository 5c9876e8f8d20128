package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/funvibe/stak/internal/config"
	"github.com/funvibe/stak/internal/history"
	"github.com/funvibe/stak/internal/interp"
	"github.com/funvibe/stak/internal/token"
)

// lineReader abstracts liner so piped input works without a terminal.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

type scanReader struct {
	sc *bufio.Scanner
}

func (s *scanReader) Prompt(string) (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (s *scanReader) AppendHistory(string) {}
func (s *scanReader) Close() error         { return nil }

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func repl(ctx context.Context, it *interp.Interpreter, cfg *config.Config, stdin io.Reader, stdout io.Writer, rep *reporter) int {
	var in lineReader
	interactive := isTerminal(stdin)
	if interactive {
		l := liner.NewLiner()
		l.SetCtrlCAborts(true)
		l.SetMultiLineMode(true)
		in = l
		fmt.Fprintln(stdout, "stak REPL. Ctrl-D exits.")
	} else {
		in = &scanReader{sc: bufio.NewScanner(stdin)}
	}
	defer in.Close()

	store := openHistory(ctx, it, cfg, in, interactive)
	if store != nil {
		defer store.Close()
	}

	prompt := config.Prompt
	for {
		if !interactive {
			prompt = ""
		}
		line, err := in.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			it.CancelInput()
			prompt = config.Prompt
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				rep.fatal("<repl>", err)
				return 1
			}
			return 0
		}

		if strings.TrimSpace(line) != "" {
			in.AppendHistory(line)
			if store != nil {
				if err := store.Add(ctx, line); err != nil {
					it.Logger.Warn("history write failed", "error", err)
				}
			}
		}

		res, pending := it.Insert(line)
		if pending {
			prompt = config.ContinuationPrompt
			continue
		}
		prompt = config.Prompt
		if err := res.Err(); err != nil {
			rep.fatal("<repl>", err)
			continue
		}
		rep.diagnostics(res)
		if halted, code := it.Eval.Halted(); halted {
			return code
		}
		if interactive {
			printStack(stdout, it.Stack())
		}
	}
}

func openHistory(ctx context.Context, it *interp.Interpreter, cfg *config.Config, in lineReader, interactive bool) *history.Store {
	if !interactive || !cfg.History.IsEnabled() {
		return nil
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		it.Logger.Warn("history disabled", "error", err)
		return nil
	}
	store, err := history.Open(path, cfg.History.Limit)
	if err != nil {
		it.Logger.Warn("history disabled", "error", err)
		return nil
	}
	lines, err := store.Recent(ctx, cfg.History.Limit)
	if err != nil {
		it.Logger.Warn("history read failed", "error", err)
	}
	for _, l := range lines {
		in.AppendHistory(l)
	}
	it.Logger.Debug("history opened", "path", path, "session", store.Session(), "lines", len(lines))
	return store
}

func printStack(w io.Writer, stack []token.Token) {
	if len(stack) == 0 {
		return
	}
	parts := make([]string, len(stack))
	for i, v := range stack {
		parts[i] = v.Inspect()
	}
	fmt.Fprintf(w, "=> %s\n", strings.Join(parts, " "))
}
