package interp

import (
	"github.com/xirelogy/go-lox/internal/token"
	"github.com/xirelogy/go-lox/internal/value"
)

type completionKind int

const (
	normal completionKind = iota
	returned
	broke
)

// completion is the outcome of executing a statement. Abrupt completions
// unwind through enclosing blocks until a loop or call consumes them.
type completion struct {
	kind    completionKind
	value   value.Value
	keyword token.Token
}

var completed = completion{kind: normal}

func returnWith(v value.Value, keyword token.Token) completion {
	return completion{kind: returned, value: v, keyword: keyword}
}

func breakAt(keyword token.Token) completion {
	return completion{kind: broke, keyword: keyword}
}

func (c completion) abrupt() bool {
	return c.kind != normal
}
