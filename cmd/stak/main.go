package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/funvibe/stak/internal/config"
	"github.com/funvibe/stak/internal/interp"
	"github.com/funvibe/stak/internal/logger"
)

const usage = `Usage: stak [flags] [file.stk]

Runs a program, or starts the REPL when no file is given.

Flags:
`

type cliOptions struct {
	logLevel  string
	color     string
	encoding  string
	eval      string
	timeout   time.Duration
	disasm    bool
	noHistory bool
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, []string, error) {
	fs := flag.NewFlagSet("stak", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	opts := &cliOptions{}
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&opts.color, "color", "", "colored diagnostics (auto, always, never)")
	fs.StringVar(&opts.encoding, "encoding", "", "source file encoding (IANA name)")
	fs.StringVar(&opts.eval, "e", "", "evaluate `code` instead of a file")
	fs.DurationVar(&opts.timeout, "timeout", 0, "stop the program after this long (0 = no limit)")
	fs.BoolVar(&opts.disasm, "disasm", false, "print the register programs in a file instead of running it")
	fs.BoolVar(&opts.noHistory, "no-history", false, "do not record REPL history")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if opts.timeout < 0 {
		return nil, nil, fmt.Errorf("timeout must be non-negative, got %s", opts.timeout)
	}
	return opts, fs.Args(), nil
}

// applyFlags lets command-line flags override stak.yaml.
func applyFlags(cfg *config.Config, opts *cliOptions) {
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.color != "" {
		cfg.Color = opts.color
	}
	if opts.encoding != "" {
		cfg.Encoding = opts.encoding
	}
	if opts.noHistory {
		disabled := false
		cfg.History.Enabled = &disabled
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, rest, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	cfg, err := config.Discover(".")
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	applyFlags(cfg, opts)

	log, err := logger.New(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	baseDir := "."
	if len(rest) > 0 {
		baseDir = filepath.Dir(rest[0])
	}
	it, err := interp.New(interp.Options{
		Context:  ctx,
		Logger:   log,
		Out:      stdout,
		In:       stdin,
		Encoding: cfg.Encoding,
		BaseDir:  baseDir,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	rep := &reporter{w: stderr, color: useColor(cfg.Color, stderr)}

	if opts.disasm {
		if len(rest) == 0 {
			fmt.Fprintln(stderr, "error: -disasm needs a file")
			return 2
		}
		return disassembleFile(it, rest[0], stdout, rep)
	}

	for _, p := range cfg.Prelude {
		if code, ok := runFile(it, p, rep); !ok {
			return code
		}
	}

	switch {
	case opts.eval != "":
		code, _ := finish(it, it.RunString(opts.eval, "<eval>"), rep)
		return code
	case len(rest) > 0:
		code, _ := runFile(it, rest[0], rep)
		return code
	}
	return repl(ctx, it, cfg, stdin, stdout, rep)
}

// runFile reports ok=false when the caller should stop with code.
func runFile(it *interp.Interpreter, path string, rep *reporter) (int, bool) {
	pctx, err := it.RunFile(path)
	if err != nil {
		rep.fatal(path, err)
		return 1, false
	}
	return finish(it, pctx, rep)
}
