package lox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewSession()
	s.SetOutput(&out)
	return s, &out
}

func TestAPIRunSource(t *testing.T) {
	s, out := newTestSession(t)
	err := s.RunSource("inline", `
fun fact(n) { if (n <= 1) return 1; return n * fact(n - 1); }
print fact(10);
print 5 / 2;
print "n=" + 10;
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "3628800\n2.5\nn=10\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestAPIGlobalsPersistBetweenRuns(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.RunSource("first", `var count = 0; fun bump() { count = count + 1; return count; }`); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := s.RunSource("second", `bump(); print bump();`); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if out.String() != "2\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	v, ok := s.Global("count")
	if !ok {
		t.Fatalf("expected global count")
	}
	if n, ok := v.Number(); !ok || n != 2 {
		t.Fatalf("expected count 2, got %v", v.Display())
	}
}

func TestAPISessionsAreIndependent(t *testing.T) {
	a, _ := newTestSession(t)
	b, _ := newTestSession(t)
	if err := a.RunSource("a", `var only = 1;`); err != nil {
		t.Fatalf("run: %v", err)
	}
	err := b.RunSource("b", `print only;`)
	var rte *RuntimeError
	if !errors.As(err, &rte) {
		t.Fatalf("expected runtime error in second session, got %v", err)
	}
}

func TestAPICompileErrors(t *testing.T) {
	s, out := newTestSession(t)
	err := s.RunSource("bad", "print 1;\nfun f() { var a = 1; var a = 2; }\nreturn 3;")
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %T: %v", err, err)
	}
	if len(ce.Errors) != 2 {
		t.Fatalf("expected 2 resolver errors, got %v", ce.Errors)
	}
	if ce.Errors[0].Phase != PhaseResolve || ce.Errors[0].Line != 2 {
		t.Fatalf("unexpected first error %#v", ce.Errors[0])
	}
	want := "[line 2] Error at 'a': Already a variable with this name in this scope.\n[line 3] Error at 'return': Can't return from top-level code."
	if ce.Error() != want {
		t.Fatalf("unexpected message %q", ce.Error())
	}
	if out.Len() != 0 {
		t.Fatalf("static errors must prevent execution, got %q", out.String())
	}
}

func TestAPIParseErrors(t *testing.T) {
	err := Check("bad", "var = 1;\nprint 2")
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if len(ce.Errors) != 2 || ce.Errors[0].Phase != PhaseParse {
		t.Fatalf("unexpected errors %#v", ce.Errors)
	}
	if ce.Errors[1].Where != " at end" {
		t.Fatalf("expected error at end, got %q", ce.Errors[1].Where)
	}
	if IsIncomplete(err) {
		t.Fatalf("mixed errors are not incomplete input")
	}
	if !IsIncomplete(Check("partial", "fun f() {\n  print 1;")) {
		t.Fatalf("expected incomplete input")
	}
	if Check("ok", "print 1;") != nil {
		t.Fatalf("expected valid source to check cleanly")
	}
}

func TestAPIRuntimeErrorDiagnostics(t *testing.T) {
	s, out := newTestSession(t)
	src := `fun inner() {
  return "a" - 1;
}
fun outer() {
  return inner();
}
print "before";
outer();
print "after";`
	err := s.RunSource("diag", src)
	var rte *RuntimeError
	if !errors.As(err, &rte) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if rte.Message != "Operands must be numbers." || rte.Line != 2 || rte.Lexeme != "-" {
		t.Fatalf("unexpected error %#v", rte)
	}
	if rte.Error() != "Operands must be numbers.\n[line 2]" {
		t.Fatalf("unexpected text %q", rte.Error())
	}
	if len(rte.Stack) != 3 || rte.Stack[0].Function != "inner" || rte.Stack[1].Function != "outer" {
		t.Fatalf("unexpected stack %#v", rte.Stack)
	}
	if out.String() != "before\n" {
		t.Fatalf("expected execution to halt, got %q", out.String())
	}
}

func TestAPIHostFunctionBinding(t *testing.T) {
	s, out := newTestSession(t)
	inc := NewFunction(1, func(args HostArgs) (Value, error) {
		n, err := args.Number(0)
		if err != nil {
			return Value{}, err
		}
		return NewValue(n + 1)
	})
	if err := s.SetGlobalFunction("inc", inc); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !s.HasFunction("inc") || !s.HasFunction("clock") {
		t.Fatalf("expected inc and clock to be registered")
	}
	if s.HasFunction("missing") {
		t.Fatalf("expected missing to be false")
	}
	if err := s.RunSource("inline", `print inc(41); print inc;`); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "42\n<native fn>\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	err := s.RunSource("inline", `inc("x");`)
	var argErr ArgError
	if !errors.As(err, &argErr) || argErr.Want != "number" || argErr.Got != "string" {
		t.Fatalf("expected ArgError, got %v", err)
	}
	if err := s.SetGlobalFunction("while", inc); err == nil {
		t.Fatalf("expected reserved word to be rejected")
	}
	if err := s.SetGlobalFunction("nil", nil); err == nil {
		t.Fatalf("expected nil function to be rejected")
	}
}

func TestAPIWrapFunc(t *testing.T) {
	s, out := newTestSession(t)
	join := MustWrapFunc(func(a string, n int) string {
		return strings.Repeat(a, n)
	})
	failing := MustWrapFunc(func(flag bool) (float64, error) {
		if flag {
			return 0, fmt.Errorf("flagged")
		}
		return 1.5, nil
	})
	if err := s.SetGlobalFunction("repeat", join); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := s.SetGlobalFunction("check", failing); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := s.RunSource("inline", `print repeat("ab", 3); print check(false);`); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "ababab\n1.5\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	err := s.RunSource("inline", `check(true);`)
	var rte *RuntimeError
	if !errors.As(err, &rte) || rte.Message != "flagged" {
		t.Fatalf("expected host error surfaced as runtime error, got %v", err)
	}
	if _, err := WrapFunc(42); err == nil {
		t.Fatalf("expected error for non-function")
	}
	if _, err := WrapFunc(func() (int, int) { return 0, 0 }); err == nil {
		t.Fatalf("expected error for bad second result")
	}
}

func TestAPIWrapFuncRejectsLossyIntegers(t *testing.T) {
	s, out := newTestSession(t)
	bind := map[string]*NativeFunction{
		"u":  MustWrapFunc(func(n uint) uint { return n }),
		"i8": MustWrapFunc(func(n int8) int8 { return n }),
		"i":  MustWrapFunc(func(n int) int { return n }),
	}
	for name, fn := range bind {
		if err := s.SetGlobalFunction(name, fn); err != nil {
			t.Fatalf("bind %s: %v", name, err)
		}
	}
	if err := s.RunSource("inline", `print u(7); print i8(-128); print i(-3);`); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "7\n-128\n-3\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	tests := []struct {
		src  string
		want string
		got  string
	}{
		{`u(-1);`, "uint", "number -1"},
		{`i8(300);`, "int8", "number 300"},
		{`i(2.75);`, "int", "number 2.75"},
		{`i8(-129);`, "int8", "number -129"},
	}
	for _, tt := range tests {
		err := s.RunSource("inline", tt.src)
		var argErr ArgError
		if !errors.As(err, &argErr) {
			t.Fatalf("%s: expected ArgError, got %v", tt.src, err)
		}
		if argErr.Index != 0 || argErr.Want != tt.want || argErr.Got != tt.got {
			t.Fatalf("%s: unexpected ArgError %+v", tt.src, argErr)
		}
	}
}

func TestAPICall(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.RunSource("inline", `fun add(a, b) { return a + b; }`); err != nil {
		t.Fatalf("run: %v", err)
	}
	res, err := s.Call(context.Background(), "add", MustValue(2), MustValue(3))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v, ok := res.MustRaw().(float64); !ok || v != 5 {
		t.Fatalf("expected 5, got %#v", res.MustRaw())
	}
	res, err = s.Call(context.Background(), "add", MustValue("a"), MustValue(1))
	if err != nil || res.Display() != "a1" {
		t.Fatalf("expected a1, got %v (%v)", res.Display(), err)
	}

	_, err = s.Call(context.Background(), "add", MustValue(1))
	var rte *RuntimeError
	if !errors.As(err, &rte) || rte.Message != "Expected 2 arguments but got 1." {
		t.Fatalf("expected arity error, got %v", err)
	}
	if _, err := s.Call(context.Background(), "missing"); err == nil {
		t.Fatalf("expected missing global error")
	}
}

func TestAPIRunAsync(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.RunAsync(context.Background(), "async", `print "hi";`).Await(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "hi\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RunAsync(ctx, "cancelled", `print "no";`).Await(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAPIBusyProtection(t *testing.T) {
	s, _ := newTestSession(t)
	release := make(chan struct{})
	slow := NewFunction(0, func(HostArgs) (Value, error) {
		<-release
		return NewValue(1)
	})
	if err := s.SetGlobalFunction("slow", slow); err != nil {
		t.Fatalf("bind: %v", err)
	}

	fut1 := s.RunAsync(context.Background(), "first", `slow();`)
	time.Sleep(10 * time.Millisecond)
	fut2 := s.CallAsync(context.Background(), "slow", nil)

	if _, err := fut2.Await(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := s.RunSource("third", `1;`); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy from RunSource, got %v", err)
	}
	close(release)
	if err := fut1.Await(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestAPIStackOverflowIsReported(t *testing.T) {
	s, _ := newTestSession(t)
	s.Configure(Options{MaxCallDepth: 100})
	err := s.RunSource("deep", `fun f() { f(); } f();`)
	var rte *RuntimeError
	if !errors.As(err, &rte) || rte.Message != "Stack overflow." {
		t.Fatalf("expected stack overflow, got %v", err)
	}
}

func TestAPITraceHook(t *testing.T) {
	s, _ := newTestSession(t)
	var traces []TraceInfo
	s.SetTraceHook(func(info TraceInfo) {
		traces = append(traces, info)
	})
	if err := s.RunSource("trace", "fun demo() {\n  return 1 + 2;\n}\ndemo();"); err != nil {
		t.Fatalf("run: %v", err)
	}
	var sawCall, sawBody bool
	for _, tr := range traces {
		if tr.Event == "call" && tr.Function == "demo" && tr.Depth == 1 {
			sawCall = true
		}
		if tr.Event == "stmt" && tr.Function == "demo" && tr.Line == 2 {
			sawBody = true
		}
	}
	if !sawCall || !sawBody {
		t.Fatalf("missing trace events: %#v", traces)
	}
}

func TestAPIRunFile(t *testing.T) {
	s, out := newTestSession(t)
	path := filepath.Join(t.TempDir(), "script.lox")
	if err := os.WriteFile(path, []byte(`print "from file";`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.RunFile(path); err != nil {
		t.Fatalf("run file: %v", err)
	}
	if out.String() != "from file\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if err := s.RunFile(filepath.Join(t.TempDir(), "missing.lox")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestAPIFormatAST(t *testing.T) {
	got, err := FormatAST("inline", "var a = 1 + 2;\nprint a;")
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got != "(var a (+ 1 2))\n(print a)\n" {
		t.Fatalf("unexpected dump %q", got)
	}
}

func TestAPIValues(t *testing.T) {
	type myInt int
	tests := []struct {
		in      any
		kind    ValueKind
		display string
	}{
		{nil, ValueNil, "nil"},
		{true, ValueBool, "true"},
		{3, ValueNumber, "3"},
		{uint8(7), ValueNumber, "7"},
		{float32(0.5), ValueNumber, "0.5"},
		{myInt(9), ValueNumber, "9"},
		{"text", ValueString, "text"},
		{NewFunction(0, nil), ValueFunction, "<native fn>"},
	}
	for _, tt := range tests {
		v, err := NewValue(tt.in)
		if err != nil {
			t.Fatalf("%v: %v", tt.in, err)
		}
		if v.Kind() != tt.kind || v.Display() != tt.display {
			t.Fatalf("%v: expected %v %q, got %v %q", tt.in, tt.kind, tt.display, v.Kind(), v.Display())
		}
	}
	if _, err := NewValue([]int{1}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if MustValue(0).Truthy() != true || MustValue(nil).Truthy() {
		t.Fatalf("unexpected truthiness")
	}
	if _, err := MustValue(NewFunction(0, nil)).Raw(); err == nil {
		t.Fatalf("expected Raw() to reject functions")
	}
}
