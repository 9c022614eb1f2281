package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xirelogy/go-lox/internal/token"
)

// Printer formats nodes as a parenthesised prefix dump for debugging.
type Printer struct {
	w io.Writer
}

// NewPrinter constructs a printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram emits one line per top-level statement.
func (p *Printer) PrintProgram(prog *Program) error {
	if prog == nil {
		return fmt.Errorf("nil program")
	}
	for _, stmt := range prog.Statements {
		if _, err := fmt.Fprintln(p.w, Sprint(stmt)); err != nil {
			return err
		}
	}
	return nil
}

// Sprint renders a single statement or expression.
func Sprint(n Node) string {
	var sb strings.Builder
	write(&sb, n)
	return sb.String()
}

func write(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *ExprStmt:
		parens(sb, ";", n.Expression)
	case *PrintStmt:
		parens(sb, "print", n.Expression)
	case *VarStmt:
		if n.Initializer == nil {
			sb.WriteString("(var " + n.Name.Lexeme + ")")
			return
		}
		parens(sb, "var "+n.Name.Lexeme, n.Initializer)
	case *BlockStmt:
		parens(sb, "block", stmts(n.Statements)...)
	case *FunctionStmt:
		parens(sb, "fun "+n.Name.Lexeme+" "+params(n.Params), stmts(n.Body)...)
	case *IfStmt:
		if n.Else == nil {
			parens(sb, "if", n.Condition, n.Then)
			return
		}
		parens(sb, "if", n.Condition, n.Then, n.Else)
	case *WhileStmt:
		parens(sb, "while", n.Condition, n.Body)
	case *BreakStmt:
		sb.WriteString("(break)")
	case *ReturnStmt:
		if n.Value == nil {
			sb.WriteString("(return)")
			return
		}
		parens(sb, "return", n.Value)
	case *Literal:
		sb.WriteString(literal(n.Value))
	case *Variable:
		sb.WriteString(n.Name.Lexeme)
	case *Assign:
		parens(sb, "= "+n.Name.Lexeme, n.Value)
	case *Grouping:
		parens(sb, "group", n.Expression)
	case *Call:
		nodes := make([]Node, 0, len(n.Arguments)+1)
		nodes = append(nodes, n.Callee)
		for _, arg := range n.Arguments {
			nodes = append(nodes, arg)
		}
		parens(sb, "call", nodes...)
	case *Unary:
		parens(sb, n.Operator.Lexeme, n.Right)
	case *Binary:
		parens(sb, n.Operator.Lexeme, n.Left, n.Right)
	case *Logical:
		parens(sb, n.Operator.Lexeme, n.Left, n.Right)
	case *Function:
		parens(sb, "fun "+params(n.Params), stmts(n.Body)...)
	default:
		fmt.Fprintf(sb, "<unknown %T>", n)
	}
}

func parens(sb *strings.Builder, head string, nodes ...Node) {
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, n := range nodes {
		sb.WriteByte(' ')
		write(sb, n)
	}
	sb.WriteByte(')')
}

func stmts(list []Stmt) []Node {
	out := make([]Node, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

func params(list []token.Token) string {
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Lexeme
	}
	return "(" + strings.Join(names, " ") + ")"
}

func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
