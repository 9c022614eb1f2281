package interp

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xirelogy/go-lox/internal/ast"
	"github.com/xirelogy/go-lox/internal/env"
	"github.com/xirelogy/go-lox/internal/resolver"
	"github.com/xirelogy/go-lox/internal/runtime"
	"github.com/xirelogy/go-lox/internal/token"
	"github.com/xirelogy/go-lox/internal/value"
)

const (
	DefaultMaxCallDepth = 4096
	// MaxCallDepthLimit keeps nesting well inside the goroutine stack limit.
	MaxCallDepthLimit = 1 << 16

	breakOutsideLoop = "Cannot use 'break' outside a loop."
)

// Interpreter walks resolved programs against a persistent global scope.
type Interpreter struct {
	globals   *env.Environment
	env       *env.Environment
	locals    resolver.Table
	out       io.Writer
	frames    []frame
	maxDepth  int
	stepLimit int
	steps     int
	traceHook TraceHook
	logger    *slog.Logger
}

// New constructs an interpreter whose globals hold every registered native.
func New() *Interpreter {
	globals := env.New(nil)
	for _, spec := range runtime.All() {
		globals.Define(spec.Name, value.FromCallable(&value.Native{
			FnName:    spec.Name,
			NumParams: spec.Arity,
			Fn:        spec.Handler,
		}))
	}
	return &Interpreter{
		globals:  globals,
		env:      globals,
		locals:   resolver.Table{},
		out:      os.Stdout,
		maxDepth: DefaultMaxCallDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetOutput redirects print statements.
func (i *Interpreter) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	i.out = w
}

// SetMaxCallDepth caps nested calls; values below 1 restore the default
// and values above MaxCallDepthLimit are clamped to it.
func (i *Interpreter) SetMaxCallDepth(depth int) {
	if depth < 1 {
		depth = DefaultMaxCallDepth
	}
	if depth > MaxCallDepthLimit {
		depth = MaxCallDepthLimit
	}
	i.maxDepth = depth
}

// SetStepLimit caps the number of statements executed per Interpret/Call (0 for unlimited).
func (i *Interpreter) SetStepLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	i.stepLimit = limit
}

// SetTraceHook registers a callback for statement and call tracing.
func (i *Interpreter) SetTraceHook(h TraceHook) {
	i.traceHook = h
}

func (i *Interpreter) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	i.logger = l
}

func (i *Interpreter) Globals() *env.Environment {
	return i.globals
}

// Resolve merges a resolution table. Tables from earlier programs stay
// valid because their keys are distinct nodes.
func (i *Interpreter) Resolve(table resolver.Table) {
	for expr, depth := range table {
		i.locals[expr] = depth
	}
}

// Interpret executes prog, halting at the first runtime error.
func (i *Interpreter) Interpret(prog *ast.Program) error {
	i.steps = 0
	for _, stmt := range prog.Statements {
		c, err := i.execute(stmt)
		if err != nil {
			return err
		}
		switch c.kind {
		case broke:
			return i.errorf(c.keyword, breakOutsideLoop)
		case returned:
			return i.errorf(c.keyword, "Can't return from top-level code.")
		}
	}
	return nil
}

// Call invokes a callable value from host code. Errors raised by the call
// itself are reported at the declaration line of a user function; natives
// have no source line.
func (i *Interpreter) Call(callee value.Value, args []value.Value) (value.Value, error) {
	i.steps = 0
	line := 0
	if fn, ok := callee.Fn.(*Function); ok && callee.Kind == value.KindCallable {
		line = fn.line
	}
	paren := token.New(token.RParen, ")", line)
	return i.callValue(callee, args, paren)
}

func (i *Interpreter) execute(stmt ast.Stmt) (completion, error) {
	i.steps++
	if i.stepLimit > 0 && i.steps > i.stepLimit {
		return completed, i.newRuntimeError(tokenAt(stmt), "Step limit exceeded.", nil)
	}
	i.trace(EventStatement, stmt.Pos().Line)

	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evaluate(s.Expression)
		return completed, err
	case *ast.PrintStmt:
		v, err := i.evaluate(s.Expression)
		if err != nil {
			return completed, err
		}
		if _, err := fmt.Fprintln(i.out, v.String()); err != nil {
			return completed, i.wrapError(s.Keyword, err)
		}
		return completed, nil
	case *ast.VarStmt:
		v := value.Nil()
		if s.Initializer != nil {
			var err error
			if v, err = i.evaluate(s.Initializer); err != nil {
				return completed, err
			}
		}
		i.env.Define(s.Name.Lexeme, v)
		return completed, nil
	case *ast.BlockStmt:
		return i.executeBlock(s.Statements, env.New(i.env))
	case *ast.FunctionStmt:
		fn := newFunction(s.Name.Lexeme, s.Name.Pos.Line, s.Params, s.Body, i.env)
		i.env.Define(s.Name.Lexeme, value.FromCallable(fn))
		return completed, nil
	case *ast.IfStmt:
		cond, err := i.evaluate(s.Condition)
		if err != nil {
			return completed, err
		}
		if value.Truthy(cond) {
			return i.execute(s.Then)
		}
		if s.Else != nil {
			return i.execute(s.Else)
		}
		return completed, nil
	case *ast.WhileStmt:
		return i.executeWhile(s)
	case *ast.BreakStmt:
		return breakAt(s.Keyword), nil
	case *ast.ReturnStmt:
		v := value.Nil()
		if s.Value != nil {
			var err error
			if v, err = i.evaluate(s.Value); err != nil {
				return completed, err
			}
		}
		return returnWith(v, s.Keyword), nil
	default:
		return completed, fmt.Errorf("interp: unhandled statement %T", stmt)
	}
}

func (i *Interpreter) executeWhile(s *ast.WhileStmt) (completion, error) {
	for {
		cond, err := i.evaluate(s.Condition)
		if err != nil {
			return completed, err
		}
		if !value.Truthy(cond) {
			return completed, nil
		}
		c, err := i.execute(s.Body)
		if err != nil {
			return completed, err
		}
		switch c.kind {
		case broke:
			return completed, nil
		case returned:
			return c, nil
		}
	}
}

// executeBlock runs stmts in environment and always restores the previous one.
func (i *Interpreter) executeBlock(stmts []ast.Stmt, environment *env.Environment) (completion, error) {
	previous := i.env
	i.env = environment
	defer func() { i.env = previous }()

	for _, stmt := range stmts {
		c, err := i.execute(stmt)
		if err != nil {
			return completed, err
		}
		if c.abrupt() {
			return c, nil
		}
	}
	return completed, nil
}

func (i *Interpreter) evaluate(expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return value.FromLiteral(e.Value), nil
	case *ast.Grouping:
		return i.evaluate(e.Expression)
	case *ast.Variable:
		return i.lookUpVariable(e.Name, e)
	case *ast.Assign:
		v, err := i.evaluate(e.Value)
		if err != nil {
			return value.Value{}, err
		}
		if distance, ok := i.locals[e]; ok {
			err = i.env.AssignAt(distance, e.Name.Lexeme, v)
		} else {
			err = i.globals.Assign(e.Name, v)
		}
		if err != nil {
			return value.Value{}, i.wrapError(e.Name, err)
		}
		return v, nil
	case *ast.Logical:
		left, err := i.evaluate(e.Left)
		if err != nil {
			return value.Value{}, err
		}
		if e.Operator.Type == token.Or {
			if value.Truthy(left) {
				return left, nil
			}
		} else if !value.Truthy(left) {
			return left, nil
		}
		return i.evaluate(e.Right)
	case *ast.Unary:
		return i.evaluateUnary(e)
	case *ast.Binary:
		return i.evaluateBinary(e)
	case *ast.Call:
		callee, err := i.evaluate(e.Callee)
		if err != nil {
			return value.Value{}, err
		}
		args := make([]value.Value, 0, len(e.Arguments))
		for _, arg := range e.Arguments {
			v, err := i.evaluate(arg)
			if err != nil {
				return value.Value{}, err
			}
			args = append(args, v)
		}
		return i.callValue(callee, args, e.Paren)
	case *ast.Function:
		return value.FromCallable(newFunction("", e.Keyword.Pos.Line, e.Params, e.Body, i.env)), nil
	default:
		return value.Value{}, fmt.Errorf("interp: unhandled expression %T", expr)
	}
}

func (i *Interpreter) lookUpVariable(name token.Token, expr ast.Expr) (value.Value, error) {
	var (
		v   value.Value
		err error
	)
	if distance, ok := i.locals[expr]; ok {
		v, err = i.env.GetAt(distance, name.Lexeme)
	} else {
		v, err = i.globals.Get(name)
	}
	if err != nil {
		return value.Value{}, i.wrapError(name, err)
	}
	return v, nil
}

func (i *Interpreter) evaluateUnary(e *ast.Unary) (value.Value, error) {
	right, err := i.evaluate(e.Right)
	if err != nil {
		return value.Value{}, err
	}
	switch e.Operator.Type {
	case token.Minus:
		if right.Kind != value.KindNumber {
			return value.Value{}, i.errorf(e.Operator, "Operand must be a number.")
		}
		return value.Number(-right.Num), nil
	case token.Bang:
		return value.Bool(!value.Truthy(right)), nil
	default:
		return value.Value{}, i.errorf(e.Operator, "Unknown unary operator '%s'.", e.Operator.Lexeme)
	}
}

func (i *Interpreter) evaluateBinary(e *ast.Binary) (value.Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := i.evaluate(e.Right)
	if err != nil {
		return value.Value{}, err
	}

	op := e.Operator
	switch op.Type {
	case token.Equal:
		return value.Bool(value.Equal(left, right)), nil
	case token.NotEqual:
		return value.Bool(!value.Equal(left, right)), nil
	case token.Plus:
		if left.Kind == value.KindNumber && right.Kind == value.KindNumber {
			return value.Number(left.Num + right.Num), nil
		}
		if left.Kind == value.KindString || right.Kind == value.KindString {
			return value.String(left.String() + right.String()), nil
		}
		return value.Value{}, i.errorf(op, "Operands must be two numbers or one of them must be a string.")
	}

	if left.Kind != value.KindNumber || right.Kind != value.KindNumber {
		return value.Value{}, i.errorf(op, "Operands must be numbers.")
	}
	a, b := left.Num, right.Num
	switch op.Type {
	case token.Minus:
		return value.Number(a - b), nil
	case token.Star:
		return value.Number(a * b), nil
	case token.Slash:
		if b == 0 {
			return value.Value{}, i.errorf(op, "Division by zero.")
		}
		return value.Number(a / b), nil
	case token.Greater:
		return value.Bool(a > b), nil
	case token.GreaterEqual:
		return value.Bool(a >= b), nil
	case token.Less:
		return value.Bool(a < b), nil
	case token.LessEqual:
		return value.Bool(a <= b), nil
	default:
		return value.Value{}, i.errorf(op, "Unknown binary operator '%s'.", op.Lexeme)
	}
}

// tokenAt synthesizes a token for errors that have no natural anchor.
func tokenAt(stmt ast.Stmt) token.Token {
	pos := stmt.Pos()
	return token.Token{Type: token.Illegal, Pos: pos}
}
