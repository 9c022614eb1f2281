package parser

import (
	"fmt"

	"github.com/xirelogy/go-lox/internal/ast"
	"github.com/xirelogy/go-lox/internal/lexer"
	"github.com/xirelogy/go-lox/internal/token"
)

const maxArgs = 255

// Error is a syntax error anchored at the offending token.
type Error struct {
	Token   token.Token
	Message string
}

// Where renders the lexeme context used in reports.
func (e Error) Where() string {
	switch e.Token.Type {
	case token.EOF:
		return " at end"
	case token.Illegal:
		return ""
	default:
		return fmt.Sprintf(" at '%s'", e.Token.Lexeme)
	}
}

func (e Error) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Token.Pos.Line, e.Where(), e.Message)
}

// IsIncomplete reports whether every error was caused by input ending early.
func IsIncomplete(errs []Error) bool {
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if e.Token.Type == token.EOF {
			continue
		}
		if e.Token.Type == token.Illegal && e.Message == lexer.MsgUnterminatedString {
			continue
		}
		return false
	}
	return true
}

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	errors    []Error
	panicking bool
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Read two tokens, so curToken and peekToken are set
	p.nextToken()
	p.nextToken()
	return p
}

// Parse is shorthand for New(lexer.New(src)).ParseProgram().
func Parse(src string) (*ast.Program, []Error) {
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	return prog, p.Errors()
}

func (p *Parser) Errors() []Error {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.curToken.Type != token.EOF {
		if stmt := p.parseDeclaration(); stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	return prog
}

// parseDeclaration leaves curToken on the last token of the declaration.
func (p *Parser) parseDeclaration() ast.Stmt {
	var stmt ast.Stmt
	switch {
	case p.curToken.Type == token.Var:
		stmt = p.parseVar()
	case p.curToken.Type == token.Fun && p.peekToken.Type == token.Ident:
		stmt = p.parseFunctionStmt()
	case p.curToken.Type == token.Class:
		p.fail(p.curToken, "Classes are not supported.")
	default:
		stmt = p.parseStatement()
	}
	if p.panicking {
		p.synchronize()
		p.panicking = false
		return nil
	}
	return stmt
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case token.Print:
		return p.parsePrint()
	case token.LBrace:
		lbrace := p.curToken.Pos
		stmts := p.parseBlockStatements()
		if p.panicking {
			return nil
		}
		return &ast.BlockStmt{LBrace: lbrace, Statements: stmts}
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Break:
		return p.parseBreak()
	case token.Return:
		return p.parseReturn()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseVar() ast.Stmt {
	if !p.expectPeek(token.Ident, "Expect variable name.") {
		return nil
	}
	stmt := &ast.VarStmt{Name: p.curToken}
	if p.peekToken.Type == token.Assign {
		p.nextToken() // move to '='
		p.nextToken() // move to initializer start
		stmt.Initializer = p.parseExpression(lowest)
		if p.panicking {
			return nil
		}
	}
	if !p.expectPeek(token.Semicolon, "Expect ';' after variable declaration.") {
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionStmt() ast.Stmt {
	p.nextToken() // move to name
	name := p.curToken
	params, body, ok := p.parseFunctionRest("function")
	if !ok {
		return nil
	}
	return &ast.FunctionStmt{Name: name, Params: params, Body: body}
}

// parseFunctionRest expects curToken to sit just before '('.
func (p *Parser) parseFunctionRest(kind string) ([]token.Token, []ast.Stmt, bool) {
	if !p.expectPeek(token.LParen, fmt.Sprintf("Expect '(' after %s name.", kind)) {
		return nil, nil, false
	}
	params := []token.Token{}
	if p.peekToken.Type != token.RParen {
		for {
			if len(params) >= maxArgs {
				p.report(p.peekToken, "Can't have more than 255 parameters.")
			}
			if !p.expectPeek(token.Ident, "Expect parameter name.") {
				return nil, nil, false
			}
			params = append(params, p.curToken)
			if p.peekToken.Type != token.Comma {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RParen, "Expect ')' after parameters.") {
		return nil, nil, false
	}
	if !p.expectPeek(token.LBrace, fmt.Sprintf("Expect '{' before %s body.", kind)) {
		return nil, nil, false
	}
	body := p.parseBlockStatements()
	if p.panicking {
		return nil, nil, false
	}
	return params, body, true
}

// parseBlockStatements expects curToken on '{' and stops on the matching '}'.
func (p *Parser) parseBlockStatements() []ast.Stmt {
	stmts := []ast.Stmt{}
	p.nextToken()
	for p.curToken.Type != token.RBrace && p.curToken.Type != token.EOF {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.nextToken()
	}
	if p.curToken.Type != token.RBrace {
		p.fail(p.curToken, "Expect '}' after block.")
	}
	return stmts
}

func (p *Parser) parsePrint() ast.Stmt {
	stmt := &ast.PrintStmt{Keyword: p.curToken}
	p.nextToken()
	stmt.Expression = p.parseExpression(lowest)
	if p.panicking {
		return nil
	}
	if !p.expectPeek(token.Semicolon, "Expect ';' after value.") {
		return nil
	}
	return stmt
}

func (p *Parser) parseIf() ast.Stmt {
	stmt := &ast.IfStmt{Keyword: p.curToken}
	if !p.expectPeek(token.LParen, "Expect '(' after 'if'.") {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(lowest)
	if p.panicking || !p.expectPeek(token.RParen, "Expect ')' after if condition.") {
		return nil
	}
	p.nextToken()
	stmt.Then = p.parseStatement()
	if p.panicking {
		return nil
	}
	if p.peekToken.Type == token.Else {
		p.nextToken() // move to 'else'
		p.nextToken() // move to branch start
		stmt.Else = p.parseStatement()
		if p.panicking {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	stmt := &ast.WhileStmt{Keyword: p.curToken}
	if !p.expectPeek(token.LParen, "Expect '(' after 'while'.") {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(lowest)
	if p.panicking || !p.expectPeek(token.RParen, "Expect ')' after condition.") {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseStatement()
	if p.panicking {
		return nil
	}
	return stmt
}

// parseFor desugars into blocks and a while loop so that the runtime
// scope nesting matches what the resolver sees.
func (p *Parser) parseFor() ast.Stmt {
	keyword := p.curToken
	if !p.expectPeek(token.LParen, "Expect '(' after 'for'.") {
		return nil
	}
	p.nextToken()

	var initializer ast.Stmt
	switch p.curToken.Type {
	case token.Semicolon:
	case token.Var:
		initializer = p.parseVar()
	default:
		initializer = p.parseExprStatement()
	}
	if p.panicking {
		return nil
	}
	p.nextToken()

	var condition ast.Expr
	if p.curToken.Type != token.Semicolon {
		condition = p.parseExpression(lowest)
		if p.panicking || !p.expectPeek(token.Semicolon, "Expect ';' after loop condition.") {
			return nil
		}
	}
	p.nextToken()

	var increment ast.Expr
	if p.curToken.Type != token.RParen {
		increment = p.parseExpression(lowest)
		if p.panicking || !p.expectPeek(token.RParen, "Expect ')' after for clauses.") {
			return nil
		}
	}
	p.nextToken()

	body := p.parseStatement()
	if p.panicking {
		return nil
	}

	if increment != nil {
		body = &ast.BlockStmt{
			LBrace:     body.Pos(),
			Statements: []ast.Stmt{body, &ast.ExprStmt{Expression: increment}},
		}
	}
	if condition == nil {
		condition = &ast.Literal{Value: true, PosT: keyword.Pos}
	}
	body = &ast.WhileStmt{Keyword: keyword, Condition: condition, Body: body}
	if initializer != nil {
		body = &ast.BlockStmt{LBrace: keyword.Pos, Statements: []ast.Stmt{initializer, body}}
	}
	return body
}

func (p *Parser) parseBreak() ast.Stmt {
	stmt := &ast.BreakStmt{Keyword: p.curToken}
	if !p.expectPeek(token.Semicolon, "Expect ';' after 'break'.") {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturn() ast.Stmt {
	stmt := &ast.ReturnStmt{Keyword: p.curToken}
	if p.peekToken.Type != token.Semicolon {
		p.nextToken()
		stmt.Value = p.parseExpression(lowest)
		if p.panicking {
			return nil
		}
	}
	if !p.expectPeek(token.Semicolon, "Expect ';' after return value.") {
		return nil
	}
	return stmt
}

func (p *Parser) parseExprStatement() ast.Stmt {
	expr := p.parseExpression(lowest)
	if p.panicking {
		return nil
	}
	if !p.expectPeek(token.Semicolon, "Expect ';' after expression.") {
		return nil
	}
	return &ast.ExprStmt{Expression: expr}
}

// parseExpression leaves curToken on the last token of the expression.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	var left ast.Expr

	switch p.curToken.Type {
	case token.Ident:
		left = &ast.Variable{Name: p.curToken}
	case token.Number, token.String:
		left = &ast.Literal{Value: p.curToken.Literal, PosT: p.curToken.Pos}
	case token.True:
		left = &ast.Literal{Value: true, PosT: p.curToken.Pos}
	case token.False:
		left = &ast.Literal{Value: false, PosT: p.curToken.Pos}
	case token.Nil:
		left = &ast.Literal{Value: nil, PosT: p.curToken.Pos}
	case token.Fun:
		left = p.parseFunctionExpr()
	case token.LParen:
		pos := p.curToken.Pos
		p.nextToken()
		inner := p.parseExpression(lowest)
		if p.panicking || !p.expectPeek(token.RParen, "Expect ')' after expression.") {
			return nil
		}
		left = &ast.Grouping{Expression: inner, PosT: pos}
	case token.Bang, token.Minus:
		left = p.parsePrefixExpression()
	case token.This, token.Super:
		p.fail(p.curToken, "Classes are not supported.")
		return nil
	default:
		p.fail(p.curToken, "Expect expression.")
		return nil
	}

	if left == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		p.nextToken()
		switch p.curToken.Type {
		case token.Assign:
			left = p.parseAssignExpression(left)
		case token.Or, token.And:
			left = p.parseLogicalExpression(left)
		case token.LParen:
			left = p.parseCallExpression(left)
		default:
			left = p.parseInfixExpression(left)
		}
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parsePrefixExpression() ast.Expr {
	expr := &ast.Unary{Operator: p.curToken}
	p.nextToken()
	expr.Right = p.parseExpression(prefixPrecedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expr) ast.Expr {
	expr := &ast.Binary{Left: left, Operator: p.curToken}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseLogicalExpression(left ast.Expr) ast.Expr {
	expr := &ast.Logical{Left: left, Operator: p.curToken}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// parseAssignExpression is right associative; only variables are valid targets.
func (p *Parser) parseAssignExpression(left ast.Expr) ast.Expr {
	equals := p.curToken
	p.nextToken()
	value := p.parseExpression(assignPrecedence - 1)
	if value == nil {
		return nil
	}
	if v, ok := left.(*ast.Variable); ok {
		return &ast.Assign{Name: v.Name, Value: value}
	}
	p.report(equals, "Invalid assignment target.")
	return left
}

func (p *Parser) parseCallExpression(callee ast.Expr) ast.Expr {
	expr := &ast.Call{Callee: callee, Arguments: []ast.Expr{}}
	if p.peekToken.Type != token.RParen {
		for {
			if len(expr.Arguments) >= maxArgs {
				p.report(p.peekToken, "Can't have more than 255 arguments.")
			}
			p.nextToken()
			arg := p.parseExpression(lowest)
			if arg == nil {
				return nil
			}
			expr.Arguments = append(expr.Arguments, arg)
			if p.peekToken.Type != token.Comma {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RParen, "Expect ')' after arguments.") {
		return nil
	}
	expr.Paren = p.curToken
	return expr
}

func (p *Parser) parseFunctionExpr() ast.Expr {
	fn := &ast.Function{Keyword: p.curToken}
	params, body, ok := p.parseFunctionRest("fun")
	if !ok {
		return nil
	}
	fn.Params = params
	fn.Body = body
	return fn
}

// expectPeek advances onto the peek token when it has type t.
func (p *Parser) expectPeek(t token.Type, msg string) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.fail(p.peekToken, msg)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowest
}

// synchronize discards tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for {
		if p.curToken.Type == token.Semicolon || p.curToken.Type == token.EOF {
			return
		}
		switch p.peekToken.Type {
		case token.EOF, token.RBrace,
			token.Class, token.Fun, token.Var, token.For, token.If,
			token.While, token.Print, token.Return, token.Break:
			return
		}
		p.nextToken()
	}
}

// fail records an error and enters panic mode.
func (p *Parser) fail(tok token.Token, msg string) {
	p.report(tok, msg)
	p.panicking = true
}

func (p *Parser) report(tok token.Token, msg string) {
	if p.panicking {
		return
	}
	if tok.Type == token.Illegal {
		if lexMsg, ok := tok.Literal.(string); ok {
			msg = lexMsg
		}
	}
	p.errors = append(p.errors, Error{Token: tok, Message: msg})
}

const (
	lowest = iota + 1
	assignPrecedence
	orPrecedence
	andPrecedence
	equalPrecedence
	comparePrecedence
	termPrecedence
	factorPrecedence
	prefixPrecedence
	callPrecedence
)

var precedences = map[token.Type]int{
	token.Assign:       assignPrecedence,
	token.Or:           orPrecedence,
	token.And:          andPrecedence,
	token.Equal:        equalPrecedence,
	token.NotEqual:     equalPrecedence,
	token.Less:         comparePrecedence,
	token.LessEqual:    comparePrecedence,
	token.Greater:      comparePrecedence,
	token.GreaterEqual: comparePrecedence,
	token.Plus:         termPrecedence,
	token.Minus:        termPrecedence,
	token.Star:         factorPrecedence,
	token.Slash:        factorPrecedence,
	token.LParen:       callPrecedence,
}
