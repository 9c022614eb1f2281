package ast

import (
	"strings"
	"testing"

	"github.com/xirelogy/go-lox/internal/token"
)

func ident(name string) token.Token {
	return token.Token{Type: token.Ident, Lexeme: name, Pos: token.Position{Line: 1}}
}

func op(lexeme string) token.Token {
	return token.Token{Lexeme: lexeme, Pos: token.Position{Line: 1}}
}

func TestSprintExpressions(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{&Literal{Value: nil}, "nil"},
		{&Literal{Value: 2.5}, "2.5"},
		{&Literal{Value: "hi"}, `"hi"`},
		{&Binary{Left: &Literal{Value: 1.0}, Operator: op("+"), Right: &Grouping{Expression: &Literal{Value: 2.0}}}, "(+ 1 (group 2))"},
		{&Unary{Operator: op("!"), Right: &Literal{Value: true}}, "(! true)"},
		{&Logical{Left: &Variable{Name: ident("a")}, Operator: op("or"), Right: &Variable{Name: ident("b")}}, "(or a b)"},
		{&Assign{Name: ident("x"), Value: &Literal{Value: 3.0}}, "(= x 3)"},
		{&Call{Callee: &Variable{Name: ident("f")}, Arguments: []Expr{&Literal{Value: 1.0}, &Variable{Name: ident("y")}}}, "(call f 1 y)"},
		{&Function{Params: []token.Token{ident("a"), ident("b")}, Body: []Stmt{&ReturnStmt{Value: &Variable{Name: ident("a")}}}}, "(fun (a b) (return a))"},
	}
	for _, tt := range tests {
		if got := Sprint(tt.node); got != tt.want {
			t.Fatalf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestSprintStatements(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{&VarStmt{Name: ident("a")}, "(var a)"},
		{&VarStmt{Name: ident("a"), Initializer: &Literal{Value: 1.0}}, "(var a 1)"},
		{&IfStmt{Condition: &Literal{Value: true}, Then: &PrintStmt{Expression: &Literal{Value: 1.0}}}, "(if true (print 1))"},
		{&WhileStmt{Condition: &Variable{Name: ident("c")}, Body: &BlockStmt{Statements: []Stmt{&BreakStmt{}}}}, "(while c (block (break)))"},
		{&FunctionStmt{Name: ident("f"), Body: []Stmt{&ReturnStmt{}}}, "(fun f () (return))"},
		{&ExprStmt{Expression: &Variable{Name: ident("x")}}, "(; x)"},
	}
	for _, tt := range tests {
		if got := Sprint(tt.node); got != tt.want {
			t.Fatalf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestPrintProgram(t *testing.T) {
	prog := &Program{Statements: []Stmt{
		&VarStmt{Name: ident("a"), Initializer: &Literal{Value: 1.0}},
		&PrintStmt{Expression: &Variable{Name: ident("a")}},
	}}
	var b strings.Builder
	if err := NewPrinter(&b).PrintProgram(prog); err != nil {
		t.Fatalf("print: %v", err)
	}
	if b.String() != "(var a 1)\n(print a)\n" {
		t.Fatalf("unexpected dump %q", b.String())
	}
	if err := NewPrinter(&b).PrintProgram(nil); err == nil {
		t.Fatalf("expected error for nil program")
	}
}
