package ast

import "github.com/xirelogy/go-lox/internal/token"

// Node represents any AST node.
type Node interface {
	Pos() token.Position
}

// Stmt is an executable node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr produces a value.
type Expr interface {
	Node
	exprNode()
}

// Program is the root node.
type Program struct {
	Statements []Stmt
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) == 0 {
		return token.Position{}
	}
	return p.Statements[0].Pos()
}

// Statements

type ExprStmt struct {
	Expression Expr
}

func (e *ExprStmt) Pos() token.Position { return e.Expression.Pos() }
func (e *ExprStmt) stmtNode()           {}

type PrintStmt struct {
	Keyword    token.Token
	Expression Expr
}

func (p *PrintStmt) Pos() token.Position { return p.Keyword.Pos }
func (p *PrintStmt) stmtNode()           {}

// VarStmt declares Name; Initializer is nil when omitted.
type VarStmt struct {
	Name        token.Token
	Initializer Expr
}

func (v *VarStmt) Pos() token.Position { return v.Name.Pos }
func (v *VarStmt) stmtNode()           {}

type BlockStmt struct {
	LBrace     token.Position
	Statements []Stmt
}

func (b *BlockStmt) Pos() token.Position { return b.LBrace }
func (b *BlockStmt) stmtNode()           {}

type FunctionStmt struct {
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

func (f *FunctionStmt) Pos() token.Position { return f.Name.Pos }
func (f *FunctionStmt) stmtNode()           {}

// IfStmt holds an optional Else branch (nil when absent).
type IfStmt struct {
	Keyword   token.Token
	Condition Expr
	Then      Stmt
	Else      Stmt
}

func (i *IfStmt) Pos() token.Position { return i.Keyword.Pos }
func (i *IfStmt) stmtNode()           {}

type WhileStmt struct {
	Keyword   token.Token
	Condition Expr
	Body      Stmt
}

func (w *WhileStmt) Pos() token.Position { return w.Keyword.Pos }
func (w *WhileStmt) stmtNode()           {}

type BreakStmt struct {
	Keyword token.Token
}

func (b *BreakStmt) Pos() token.Position { return b.Keyword.Pos }
func (b *BreakStmt) stmtNode()           {}

type ReturnStmt struct {
	Keyword token.Token
	Value   Expr
}

func (r *ReturnStmt) Pos() token.Position { return r.Keyword.Pos }
func (r *ReturnStmt) stmtNode()           {}

// Expressions

// Literal carries nil, bool, float64 or string.
type Literal struct {
	Value any
	PosT  token.Position
}

func (l *Literal) Pos() token.Position { return l.PosT }
func (l *Literal) exprNode()           {}

type Variable struct {
	Name token.Token
}

func (v *Variable) Pos() token.Position { return v.Name.Pos }
func (v *Variable) exprNode()           {}

type Assign struct {
	Name  token.Token
	Value Expr
}

func (a *Assign) Pos() token.Position { return a.Name.Pos }
func (a *Assign) exprNode()           {}

type Grouping struct {
	Expression Expr
	PosT       token.Position
}

func (g *Grouping) Pos() token.Position { return g.PosT }
func (g *Grouping) exprNode()           {}

// Call keeps the closing paren for error reporting.
type Call struct {
	Callee    Expr
	Paren     token.Token
	Arguments []Expr
}

func (c *Call) Pos() token.Position { return c.Callee.Pos() }
func (c *Call) exprNode()           {}

type Unary struct {
	Operator token.Token
	Right    Expr
}

func (u *Unary) Pos() token.Position { return u.Operator.Pos }
func (u *Unary) exprNode()           {}

type Binary struct {
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (b *Binary) Pos() token.Position { return b.Left.Pos() }
func (b *Binary) exprNode()           {}

// Logical is an `and`/`or` expression; Right is evaluated lazily.
type Logical struct {
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (l *Logical) Pos() token.Position { return l.Left.Pos() }
func (l *Logical) exprNode()           {}

// Function is an anonymous function expression.
type Function struct {
	Keyword token.Token
	Params  []token.Token
	Body    []Stmt
}

func (f *Function) Pos() token.Position { return f.Keyword.Pos }
func (f *Function) exprNode()           {}
