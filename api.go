package lox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/xirelogy/go-lox/internal/ast"
	_ "github.com/xirelogy/go-lox/internal/builtins"
	"github.com/xirelogy/go-lox/internal/interp"
	"github.com/xirelogy/go-lox/internal/lexer"
	"github.com/xirelogy/go-lox/internal/parser"
	"github.com/xirelogy/go-lox/internal/resolver"
	"github.com/xirelogy/go-lox/internal/token"
	"github.com/xirelogy/go-lox/internal/value"
)

// ErrBusy is returned when a session is used while another run is in flight.
var ErrBusy = errors.New("lox: session is busy")

// Phase names the static pass that reported an error.
type Phase string

const (
	PhaseParse   Phase = "parse"
	PhaseResolve Phase = "resolve"
)

// StaticError is a syntax or resolution error. Any static error prevents execution.
type StaticError struct {
	Phase   Phase
	Line    int
	Column  int
	Where   string
	Message string
}

func (e StaticError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// CompileError aggregates every static error found in one source.
type CompileError struct {
	Name       string
	Errors     []StaticError
	incomplete bool
}

func (e *CompileError) Error() string {
	lines := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		lines[i] = se.Error()
	}
	return strings.Join(lines, "\n")
}

// Incomplete reports whether the source merely ended too early.
func (e *CompileError) Incomplete() bool {
	return e.incomplete
}

// IsIncomplete reports whether err is a CompileError caused by truncated input.
func IsIncomplete(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Incomplete()
}

// FrameTrace describes a single frame in a runtime error, innermost first.
type FrameTrace struct {
	Function string
	Line     int
}

// RuntimeError is a source-aware execution error.
type RuntimeError struct {
	Message string
	Line    int
	Lexeme  string
	Stack   []FrameTrace
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Line <= 0 {
		return e.Message
	}
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Line)
}

// Unwrap exposes the underlying cause (if any) for errors.Is/As.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// TraceInfo captures execution steps for debug hooks.
type TraceInfo struct {
	Event    string
	Function string
	Line     int
	Depth    int
}

// TraceHook observes statement dispatch and calls.
type TraceHook func(TraceInfo)

func convertRuntimeError(err error) error {
	if err == nil {
		return nil
	}
	var rte *interp.RuntimeError
	if !errors.As(err, &rte) {
		return err
	}
	var stack []FrameTrace
	if len(rte.Stack) > 0 {
		stack = make([]FrameTrace, len(rte.Stack))
		for i, fr := range rte.Stack {
			stack[i] = FrameTrace{Function: fr.Function, Line: fr.Line}
		}
	}
	return &RuntimeError{
		Message: rte.Message,
		Line:    rte.Token.Pos.Line,
		Lexeme:  rte.Token.Lexeme,
		Stack:   stack,
		Cause:   rte.Cause,
	}
}

func convertStaticErrors(name string, parseErrs []parser.Error, resolveErrs []resolver.Error) error {
	if len(parseErrs) == 0 && len(resolveErrs) == 0 {
		return nil
	}
	ce := &CompileError{Name: name}
	for _, e := range parseErrs {
		ce.Errors = append(ce.Errors, StaticError{
			Phase:   PhaseParse,
			Line:    e.Token.Pos.Line,
			Column:  e.Token.Pos.Column,
			Where:   e.Where(),
			Message: e.Message,
		})
	}
	for _, e := range resolveErrs {
		ce.Errors = append(ce.Errors, StaticError{
			Phase:   PhaseResolve,
			Line:    e.Token.Pos.Line,
			Column:  e.Token.Pos.Column,
			Where:   e.Where(),
			Message: e.Message,
		})
	}
	ce.incomplete = len(resolveErrs) == 0 && parser.IsIncomplete(parseErrs)
	return ce
}

// Options bundles session settings, typically loaded from a config file.
type Options struct {
	Output       io.Writer
	MaxCallDepth int
	StepLimit    int
	Logger       *slog.Logger
	Trace        TraceHook
}

// Session owns one interpreter and its persistent global scope.
// Later runs see the globals defined by earlier ones.
type Session struct {
	core   *interp.Interpreter
	logger *slog.Logger
	mu     sync.Mutex
	busy   bool
}

// NewSession constructs a session whose globals hold the native functions.
func NewSession() *Session {
	return &Session{
		core:   interp.New(),
		logger: slog.New(slog.DiscardHandler),
	}
}

// Configure applies every non-zero field of opts.
func (s *Session) Configure(opts Options) {
	if opts.Output != nil {
		s.SetOutput(opts.Output)
	}
	if opts.MaxCallDepth > 0 {
		s.SetMaxCallDepth(opts.MaxCallDepth)
	}
	if opts.StepLimit > 0 {
		s.SetStepLimit(opts.StepLimit)
	}
	if opts.Logger != nil {
		s.SetLogger(opts.Logger)
	}
	if opts.Trace != nil {
		s.SetTraceHook(opts.Trace)
	}
}

// SetOutput redirects print statements (stdout by default).
func (s *Session) SetOutput(w io.Writer) {
	s.core.SetOutput(w)
}

// SetMaxCallDepth caps nested calls; deeper recursion fails with "Stack overflow.".
func (s *Session) SetMaxCallDepth(depth int) {
	s.core.SetMaxCallDepth(depth)
}

// SetStepLimit caps the number of statements a single run may execute (0 for unlimited).
func (s *Session) SetStepLimit(limit int) {
	s.core.SetStepLimit(limit)
}

// SetLogger enables structured debug logging of runs and calls.
func (s *Session) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	s.logger = l
	s.core.SetLogger(l)
}

// SetTraceHook attaches a debug hook that observes statements and calls.
func (s *Session) SetTraceHook(h TraceHook) {
	if h == nil {
		s.core.SetTraceHook(nil)
		return
	}
	s.core.SetTraceHook(func(info interp.TraceInfo) {
		h(TraceInfo{
			Event:    info.Event,
			Function: info.Function,
			Line:     info.Line,
			Depth:    info.Depth,
		})
	})
}

// SetGlobalFunction binds a host function to a global name.
func (s *Session) SetGlobalFunction(name string, fn *NativeFunction) error {
	if name == "" {
		return errors.New("empty function name")
	}
	if fn == nil || fn.Handler == nil {
		return errors.New("nil function")
	}
	if fn.Arity < 0 {
		return fmt.Errorf("function %s has negative arity", name)
	}
	if token.LookupIdent(name) != token.Ident {
		return fmt.Errorf("function name %q is a reserved word", name)
	}
	s.core.Globals().Define(name, value.FromCallable(fn.native(name)))
	return nil
}

// HasFunction reports whether a global function exists with the given name.
func (s *Session) HasFunction(name string) bool {
	v, err := s.core.Globals().GetAt(0, name)
	return err == nil && v.Kind == value.KindCallable
}

// Global returns the value of a global variable.
func (s *Session) Global(name string) (Value, bool) {
	v, err := s.core.Globals().GetAt(0, name)
	if err != nil {
		return Value{}, false
	}
	return Value{v: v}, true
}

type compiled struct {
	prog  *ast.Program
	table resolver.Table
}

func compile(name, src string) (*compiled, error) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, convertStaticErrors(name, errs, nil)
	}
	table, errs := resolver.Resolve(prog)
	if len(errs) > 0 {
		return nil, convertStaticErrors(name, nil, errs)
	}
	return &compiled{prog: prog, table: table}, nil
}

// Check parses and resolves src without executing it.
func Check(name, src string) error {
	_, err := compile(name, src)
	return err
}

// FormatAST parses src and renders one prefix-form line per statement.
func FormatAST(name, src string) (string, error) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return "", convertStaticErrors(name, errs, nil)
	}
	var b strings.Builder
	if err := ast.NewPrinter(&b).PrintProgram(prog); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Check parses and resolves src without executing it.
func (s *Session) Check(name, src string) error {
	return Check(name, src)
}

// RunFile reads and runs a script from a filesystem path.
func (s *Session) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lox: read %s: %w", path, err)
	}
	return s.RunSource(path, string(data))
}

// RunSource parses, resolves and executes src against the session globals.
// Static errors are returned as *CompileError, execution errors as *RuntimeError.
func (s *Session) RunSource(name, src string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()
	return s.run(name, src)
}

func (s *Session) run(name, src string) error {
	c, err := compile(name, src)
	if err != nil {
		s.logger.Debug("static errors", "source", name, "error", err)
		return err
	}
	s.logger.Debug("run", "source", name, "statements", len(c.prog.Statements), "resolved", len(c.table))
	s.core.Resolve(c.table)
	return convertRuntimeError(s.core.Interpret(c.prog))
}

// RunFuture represents an in-flight run.
type RunFuture struct {
	ch <-chan error
}

// Await waits for completion or context cancellation.
func (f RunFuture) Await(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-f.ch:
		return err
	}
}

// RunAsync executes src on a separate goroutine. A session runs one
// program at a time; overlapping calls fail with ErrBusy.
func (s *Session) RunAsync(ctx context.Context, name, src string) RunFuture {
	ch := make(chan error, 1)
	if err := s.acquire(); err != nil {
		ch <- err
		close(ch)
		return RunFuture{ch: ch}
	}
	go func() {
		defer close(ch)
		defer s.release()
		select {
		case <-ctx.Done():
			ch <- ctx.Err()
			return
		default:
		}
		ch <- s.run(name, src)
	}()
	return RunFuture{ch: ch}
}

// CallFuture represents an in-flight call.
type CallFuture struct {
	ch <-chan CallResult
}

// CallResult is the outcome of a call.
type CallResult struct {
	Value Value
	Err   error
}

// Await waits for completion or context cancellation.
func (f CallFuture) Await(ctx context.Context) (Value, error) {
	select {
	case <-ctx.Done():
		return Value{}, ctx.Err()
	case res := <-f.ch:
		return res.Value, res.Err
	}
}

// Call invokes a global function by name and waits for the result.
func (s *Session) Call(ctx context.Context, name string, args ...Value) (Value, error) {
	return s.CallAsync(ctx, name, args).Await(ctx)
}

// CallAsync resolves a global function by name and invokes it on a separate goroutine.
func (s *Session) CallAsync(ctx context.Context, name string, args []Value) CallFuture {
	ch := make(chan CallResult, 1)
	if err := s.acquire(); err != nil {
		ch <- CallResult{Err: err}
		close(ch)
		return CallFuture{ch: ch}
	}
	go func() {
		defer close(ch)
		defer s.release()
		select {
		case <-ctx.Done():
			ch <- CallResult{Err: ctx.Err()}
			return
		default:
		}
		callee, err := s.core.Globals().GetAt(0, name)
		if err != nil {
			ch <- CallResult{Err: fmt.Errorf("lox: global %s not found", name)}
			return
		}
		argVals := make([]value.Value, len(args))
		for i, a := range args {
			argVals[i] = a.v
		}
		s.logger.Debug("host call", "function", name, "args", len(args))
		res, err := s.core.Call(callee, argVals)
		if err != nil {
			ch <- CallResult{Err: convertRuntimeError(err)}
			return
		}
		ch <- CallResult{Value: Value{v: res}}
	}()
	return CallFuture{ch: ch}
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
