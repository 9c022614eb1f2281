package value

import (
	"math"
	"strconv"
)

type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindCallable:
		return "function"
	default:
		return "unknown"
	}
}

// Value is the dynamic value of a Lox expression.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	B    bool
	Fn   Callable
}

func Nil() Value { return Value{Kind: KindNil} }
func Bool(b bool) Value {
	return Value{Kind: KindBool, B: b}
}
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}
func FromCallable(fn Callable) Value {
	return Value{Kind: KindCallable, Fn: fn}
}

// FromLiteral converts a literal payload produced by the lexer.
func FromLiteral(v any) Value {
	switch v := v.(type) {
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case string:
		return String(v)
	default:
		return Nil()
	}
}

// Truthy: nil and false are falsy, everything else is truthy.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.B
	default:
		return true
	}
}

// Equal never fails; values of different kinds are unequal.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.B == b.B
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindCallable:
		return a.Fn == b.Fn
	default:
		return false
	}
}

// String returns the display form used by print and string concatenation.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindNumber:
		return FormatNumber(v.Num)
	case KindString:
		return v.Str
	case KindCallable:
		if v.Fn == nil {
			return "<fn>"
		}
		return v.Fn.String()
	default:
		return "<unknown>"
	}
}

// FormatNumber prints the shortest round-trip decimal, so 3.0 prints as 3.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
