package resolver

import (
	"fmt"

	"github.com/xirelogy/go-lox/internal/ast"
	"github.com/xirelogy/go-lox/internal/token"
)

// Table maps Variable and Assign nodes to the number of frames between the
// use and its binding. Globals have no entry.
type Table map[ast.Expr]int

// Error is a static error found during resolution.
type Error struct {
	Token   token.Token
	Message string
}

// Where renders the lexeme context used in reports.
func (e Error) Where() string {
	if e.Token.Type == token.EOF {
		return " at end"
	}
	return fmt.Sprintf(" at '%s'", e.Token.Lexeme)
}

func (e Error) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Token.Pos.Line, e.Where(), e.Message)
}

type functionKind int

const (
	kindNone functionKind = iota
	kindFunction
)

// Resolve walks prog once and records the scope distance of every local
// reference. Errors accumulate; the table is only meaningful when none occur.
func Resolve(prog *ast.Program) (Table, []Error) {
	r := &resolver{table: Table{}}
	for _, stmt := range prog.Statements {
		r.resolveStmt(stmt)
	}
	return r.table, r.errors
}

type resolver struct {
	scopes  []*scope
	current functionKind
	table   Table
	errors  []Error
}

func (r *resolver) resolveStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Statements)
		r.endScope()
	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name)
	case *ast.FunctionStmt:
		// declared before the body so the function can recurse
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s.Params, s.Body)
	case *ast.ExprStmt:
		r.resolveExpr(s.Expression)
	case *ast.PrintStmt:
		r.resolveExpr(s.Expression)
	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)
	case *ast.BreakStmt:
	case *ast.ReturnStmt:
		if r.current == kindNone {
			r.errorf(s.Keyword, "Can't return from top-level code.")
		}
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}
	default:
		panic(fmt.Sprintf("resolver: unhandled statement %T", stmt))
	}
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if declared, ready := r.scopes[len(r.scopes)-1].lookup(e.Name.Lexeme); declared && !ready {
				r.errorf(e.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name.Lexeme)
	case *ast.Assign:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name.Lexeme)
	case *ast.Literal:
	case *ast.Grouping:
		r.resolveExpr(e.Expression)
	case *ast.Unary:
		r.resolveExpr(e.Right)
	case *ast.Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.Logical:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.Call:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Arguments {
			r.resolveExpr(arg)
		}
	case *ast.Function:
		r.resolveFunction(e.Params, e.Body)
	default:
		panic(fmt.Sprintf("resolver: unhandled expression %T", expr))
	}
}

func (r *resolver) resolveFunction(params []token.Token, body []ast.Stmt) {
	enclosing := r.current
	r.current = kindFunction
	defer func() { r.current = enclosing }()

	r.beginScope()
	for _, p := range params {
		r.declare(p)
		r.define(p)
	}
	r.resolveStmts(body)
	r.endScope()
}

// resolveLocal records the distance to the innermost scope declaring name.
func (r *resolver) resolveLocal(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if declared, _ := r.scopes[i].lookup(name); declared {
			r.table[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, newScope())
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	if !r.scopes[len(r.scopes)-1].declare(name.Lexeme) {
		r.errorf(name, "Already a variable with this name in this scope.")
	}
}

func (r *resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1].define(name.Lexeme)
}

func (r *resolver) errorf(tok token.Token, format string, args ...interface{}) {
	r.errors = append(r.errors, Error{Token: tok, Message: fmt.Sprintf(format, args...)})
}
