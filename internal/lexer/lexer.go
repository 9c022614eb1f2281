package lexer

import (
	"strconv"

	"github.com/xirelogy/go-lox/internal/token"
)

// Messages carried by Illegal tokens.
const (
	MsgUnexpectedChar     = "Unexpected character."
	MsgUnterminatedString = "Unterminated string."
)

// Lexer converts source text into a stream of tokens.
type Lexer struct {
	input   string
	pos     int  // current position in bytes
	readPos int  // next read position
	ch      byte // current char
	line    int
	column  int
}

// New creates a lexer for the provided source text.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Tokens scans the whole input, always ending with an EOF token.
func (l *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

// NextToken returns the next token from the input.
// Scan failures are returned as Illegal tokens whose Literal holds the message.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()

		if l.ch == 0 && l.pos >= len(l.input) {
			return l.makeToken(token.EOF, "")
		}

		if l.ch == '/' {
			if l.peekChar() == '/' {
				l.skipLineComment()
				continue
			}
			if l.peekChar() == '*' {
				l.skipBlockComment()
				continue
			}
		}

		switch l.ch {
		case '=':
			return l.oneOrTwo('=', token.Equal, token.Assign)
		case '!':
			return l.oneOrTwo('=', token.NotEqual, token.Bang)
		case '<':
			return l.oneOrTwo('=', token.LessEqual, token.Less)
		case '>':
			return l.oneOrTwo('=', token.GreaterEqual, token.Greater)
		case '+':
			return l.single(token.Plus)
		case '-':
			return l.single(token.Minus)
		case '*':
			return l.single(token.Star)
		case '/':
			return l.single(token.Slash)
		case '.':
			return l.single(token.Dot)
		case ',':
			return l.single(token.Comma)
		case ';':
			return l.single(token.Semicolon)
		case '(':
			return l.single(token.LParen)
		case ')':
			return l.single(token.RParen)
		case '{':
			return l.single(token.LBrace)
		case '}':
			return l.single(token.RBrace)
		case '"':
			return l.readString()
		default:
			if isLetter(l.ch) {
				return l.readIdentifier()
			}
			if isDigit(l.ch) {
				return l.readNumber()
			}

			tok := l.makeToken(token.Illegal, string(l.ch))
			tok.Literal = MsgUnexpectedChar
			l.readChar()
			return tok
		}
	}
}

func (l *Lexer) single(t token.Type) token.Token {
	tok := l.makeToken(t, string(l.ch))
	l.readChar()
	return tok
}

// oneOrTwo emits two when the next char is next, else one.
func (l *Lexer) oneOrTwo(next byte, two, one token.Type) token.Token {
	if l.peekChar() == next {
		tok := l.makeToken(two, l.input[l.pos:l.pos+2])
		l.readChar()
		l.readChar()
		return tok
	}
	return l.single(one)
}

func (l *Lexer) makeToken(t token.Type, lexeme string) token.Token {
	return token.Token{
		Type:   t,
		Lexeme: lexeme,
		Pos: token.Position{
			Offset: l.pos,
			Line:   l.line,
			Column: l.column,
		},
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != 0 && l.ch != '\n' {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	for {
		if l.ch == 0 && l.pos >= len(l.input) {
			return
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // '*'
			l.readChar() // '/'
			return
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() token.Token {
	start := l.makeToken(token.Ident, "")
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	start.Lexeme = l.input[start.Pos.Offset:l.pos]
	start.Type = token.LookupIdent(start.Lexeme)
	return start
}

func (l *Lexer) readNumber() token.Token {
	start := l.makeToken(token.Number, "")
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	start.Lexeme = l.input[start.Pos.Offset:l.pos]
	// digits with an optional fraction always parse
	start.Literal, _ = strconv.ParseFloat(start.Lexeme, 64)
	return start
}

func (l *Lexer) readString() token.Token {
	start := l.makeToken(token.String, "")
	for {
		l.readChar()
		if l.ch == 0 && l.pos >= len(l.input) {
			illegal := start
			illegal.Type = token.Illegal
			illegal.Lexeme = l.input[start.Pos.Offset:]
			illegal.Literal = MsgUnterminatedString
			return illegal
		}
		if l.ch == '"' {
			l.readChar()
			break
		}
	}
	start.Lexeme = l.input[start.Pos.Offset:l.pos]
	start.Literal = start.Lexeme[1 : len(start.Lexeme)-1]
	return start
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		l.ch = 0
		return
	}

	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}
