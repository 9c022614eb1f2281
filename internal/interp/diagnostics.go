package interp

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-lox/internal/env"
	"github.com/xirelogy/go-lox/internal/token"
)

// Trace events reported to a TraceHook.
const (
	EventStatement = "stmt"
	EventCall      = "call"
	EventReturn    = "return"
)

// TraceInfo describes a single execution step for debugging/tracing.
type TraceInfo struct {
	Event    string
	Function string
	Line     int
	Depth    int
}

// TraceHook observes statement dispatch and calls.
type TraceHook func(TraceInfo)

// FrameInfo is one entry of a runtime stack trace, innermost first.
type FrameInfo struct {
	Function string
	Line     int
}

// RuntimeError carries the offending token and call stack for a failed run.
type RuntimeError struct {
	Token   token.Token
	Message string
	Stack   []FrameInfo
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Token.Pos.Line <= 0 {
		return e.Message
	}
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Pos.Line)
}

// Unwrap exposes the original error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

const scriptFrame = "script"

func (i *Interpreter) errorf(tok token.Token, format string, args ...interface{}) error {
	return i.newRuntimeError(tok, fmt.Sprintf(format, args...), nil)
}

// wrapError attaches tok and the current stack to errors from collaborators.
func (i *Interpreter) wrapError(tok token.Token, err error) error {
	if err == nil {
		return nil
	}
	var rte *RuntimeError
	if errors.As(err, &rte) {
		return err
	}
	var undef *env.UndefinedError
	if errors.As(err, &undef) {
		return i.newRuntimeError(undef.Name, err.Error(), err)
	}
	return i.newRuntimeError(tok, err.Error(), err)
}

func (i *Interpreter) newRuntimeError(tok token.Token, msg string, cause error) *RuntimeError {
	return &RuntimeError{
		Token:   tok,
		Message: msg,
		Stack:   i.stackTrace(tok.Pos.Line),
		Cause:   cause,
	}
}

func (i *Interpreter) stackTrace(line int) []FrameInfo {
	trace := make([]FrameInfo, 0, len(i.frames)+1)
	for k := len(i.frames) - 1; k >= 0; k-- {
		fr := i.frames[k]
		trace = append(trace, FrameInfo{Function: fr.name, Line: line})
		line = fr.call.Pos.Line
	}
	return append(trace, FrameInfo{Function: scriptFrame, Line: line})
}

func (i *Interpreter) trace(event string, line int) {
	if i.traceHook == nil {
		return
	}
	i.traceHook(TraceInfo{
		Event:    event,
		Function: i.currentFunction(),
		Line:     line,
		Depth:    len(i.frames),
	})
}

func (i *Interpreter) currentFunction() string {
	if len(i.frames) == 0 {
		return scriptFrame
	}
	return i.frames[len(i.frames)-1].name
}
