package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	lox "github.com/xirelogy/go-lox"
	"github.com/xirelogy/go-lox/internal/config"
)

const appName = "lox"

// Exit codes follow sysexits(3).
const (
	exitOK      = 0
	exitUsage   = 64
	exitData    = 65
	exitRuntime = 70
	exitIO      = 74
	exitConfig  = 78
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	check      bool
	dumpAST    bool
	trace      bool
	logLevel   string
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [script]\n\nFlags:\n", appName)
		fs.PrintDefaults()
	}
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $"+config.EnvVar+")")
	fs.BoolVar(&opts.check, "check", false, "parse and resolve the script without running it")
	fs.BoolVar(&opts.dumpAST, "dump-ast", false, "print the parsed syntax tree and exit")
	fs.BoolVar(&opts.trace, "trace", false, "trace calls and statements to stderr")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(config.Locate(opts.configPath))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return exitConfig
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.trace {
		cfg.Trace = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return exitConfig
	}

	if fs.NArg() == 0 {
		if opts.check || opts.dumpAST {
			fmt.Fprintf(stderr, "%s: -check and -dump-ast need a script\n", appName)
			return exitUsage
		}
		return cmdRepl(cfg, stdout, stderr)
	}

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return exitIO
	}

	switch {
	case opts.dumpAST:
		out, err := lox.FormatAST(path, string(src))
		if err != nil {
			return report(stderr, err)
		}
		fmt.Fprint(stdout, out)
		return exitOK
	case opts.check:
		return report(stderr, lox.Check(path, string(src)))
	}

	session := newSession(cfg, stdout, stderr)
	return report(stderr, session.RunSource(path, string(src)))
}

func newSession(cfg *config.Config, stdout, stderr io.Writer) *lox.Session {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	opts := lox.Options{
		Output:       stdout,
		MaxCallDepth: cfg.MaxCallDepth,
		StepLimit:    cfg.StepLimit,
		Logger:       logger,
	}
	if cfg.Trace {
		opts.Trace = func(info lox.TraceInfo) {
			fmt.Fprintf(stderr, "[trace] %-6s %s line %d depth %d\n", info.Event, info.Function, info.Line, info.Depth)
		}
	}
	session := lox.NewSession()
	session.Configure(opts)
	return session
}

// report prints err and maps it to an exit code.
func report(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, err.Error())
	var ce *lox.CompileError
	var rte *lox.RuntimeError
	switch {
	case errors.As(err, &ce):
		return exitData
	case errors.As(err, &rte):
		return exitRuntime
	default:
		return exitIO
	}
}

// lineReader is the subset of liner.State the REPL needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func cmdRepl(cfg *config.Config, stdout, stderr io.Writer) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := cfg.REPL.HistoryFile
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		if _, ok := <-sigc; ok {
			ln.Close()
			os.Exit(130)
		}
	}()

	session := newSession(cfg, stdout, stderr)
	return repl(ln, session, cfg.REPL, stdout, stderr)
}

// repl reads until EOF or :quit. Errors are reported and the session continues.
func repl(ln lineReader, session *lox.Session, rc config.REPL, stdout, stderr io.Writer) int {
	for {
		code, ok := readByParseProbe(ln, rc.Prompt, rc.Continuation)
		if !ok {
			fmt.Fprintln(stdout)
			return exitOK
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return exitOK
			default:
				fmt.Fprintln(stdout, "unknown command. Type :quit to exit.")
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err := session.RunSource("repl", code); err != nil {
			fmt.Fprintln(stderr, err.Error())
		}
	}
}

// readByParseProbe keeps reading continuation lines while the buffered
// input only fails because it ended too early.
func readByParseProbe(ln lineReader, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if lox.IsIncomplete(lox.Check("repl", src)) {
			continue
		}
		return src, true
	}
}
