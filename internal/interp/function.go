package interp

import (
	"github.com/xirelogy/go-lox/internal/ast"
	"github.com/xirelogy/go-lox/internal/env"
	"github.com/xirelogy/go-lox/internal/token"
	"github.com/xirelogy/go-lox/internal/value"
)

// Function is a user-defined function closed over its defining environment.
type Function struct {
	name    string
	line    int
	params  []token.Token
	body    []ast.Stmt
	closure *env.Environment
}

func newFunction(name string, line int, params []token.Token, body []ast.Stmt, closure *env.Environment) *Function {
	return &Function{name: name, line: line, params: params, body: body, closure: closure}
}

func (f *Function) Arity() int   { return len(f.params) }
func (f *Function) Name() string { return f.name }

func (f *Function) String() string {
	if f.name == "" {
		return "<fn>"
	}
	return "<fn " + f.name + ">"
}

type frame struct {
	name string
	call token.Token
}

// callValue checks the callee and arity, then dispatches to user or native code.
func (i *Interpreter) callValue(callee value.Value, args []value.Value, paren token.Token) (value.Value, error) {
	if callee.Kind != value.KindCallable || callee.Fn == nil {
		return value.Value{}, i.errorf(paren, "Can only call functions.")
	}
	fn := callee.Fn
	if len(args) != fn.Arity() {
		return value.Value{}, i.errorf(paren, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	if len(i.frames) >= i.maxDepth {
		return value.Value{}, i.errorf(paren, "Stack overflow.")
	}

	name := fn.Name()
	if name == "" {
		name = "<anonymous>"
	}
	i.frames = append(i.frames, frame{name: name, call: paren})
	defer func() { i.frames = i.frames[:len(i.frames)-1] }()

	i.logger.Debug("call", "function", name, "depth", len(i.frames), "line", paren.Pos.Line)
	i.trace(EventCall, paren.Pos.Line)

	var (
		result value.Value
		err    error
	)
	switch f := fn.(type) {
	case *Function:
		result, err = i.callFunction(f, args)
	case *value.Native:
		result, err = f.Call(args)
		err = i.wrapError(paren, err)
	default:
		err = i.errorf(paren, "Can only call functions.")
	}
	if err != nil {
		return value.Value{}, err
	}

	i.trace(EventReturn, paren.Pos.Line)
	i.logger.Debug("return", "function", name, "depth", len(i.frames), "value", result.String())
	return result, nil
}

func (i *Interpreter) callFunction(f *Function, args []value.Value) (value.Value, error) {
	environment := env.New(f.closure)
	for idx, param := range f.params {
		environment.Define(param.Lexeme, args[idx])
	}
	c, err := i.executeBlock(f.body, environment)
	if err != nil {
		return value.Value{}, err
	}
	switch c.kind {
	case returned:
		return c.value, nil
	case broke:
		return value.Value{}, i.errorf(c.keyword, breakOutsideLoop)
	default:
		return value.Nil(), nil
	}
}
