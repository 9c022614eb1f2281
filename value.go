package lox

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/xirelogy/go-lox/internal/value"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	valueType = reflect.TypeOf(Value{})
)

// Value is a Lox value exchanged with host code.
type Value struct {
	v value.Value
}

// ValueKind mirrors the runtime kinds for convenient inspection.
type ValueKind int

const (
	ValueNil ValueKind = iota
	ValueBool
	ValueNumber
	ValueString
	ValueFunction
)

func (k ValueKind) String() string {
	switch k {
	case ValueNil:
		return "nil"
	case ValueBool:
		return "boolean"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueFunction:
		return "function"
	default:
		return "unknown"
	}
}

// ArgError represents a typed argument validation error for host functions.
type ArgError struct {
	Index int
	Want  string
	Got   string
}

func (e ArgError) Error() string {
	switch {
	case e.Want != "" && e.Got != "":
		return fmt.Sprintf("argument %d: want %s, got %s", e.Index, e.Want, e.Got)
	case e.Want != "":
		return fmt.Sprintf("argument %d: want %s", e.Index, e.Want)
	default:
		return "argument error"
	}
}

// NewValue marshals nil, booleans, integers, floats, strings, Value and
// *NativeFunction into a Lox value.
func NewValue(val any) (Value, error) {
	v, err := marshalGoValue(val)
	if err != nil {
		return Value{}, err
	}
	return Value{v: v}, nil
}

// MustValue marshals and panics on error (convenience for tests/examples).
func MustValue(val any) Value {
	v, err := NewValue(val)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Kind() ValueKind {
	return ValueKind(v.v.Kind)
}

func (v Value) IsNil() bool {
	return v.v.Kind == value.KindNil
}

func (v Value) Bool() (bool, bool) {
	if v.v.Kind != value.KindBool {
		return false, false
	}
	return v.v.B, true
}

func (v Value) Number() (float64, bool) {
	if v.v.Kind != value.KindNumber {
		return 0, false
	}
	return v.v.Num, true
}

func (v Value) String() (string, bool) {
	if v.v.Kind != value.KindString {
		return "", false
	}
	return v.v.Str, true
}

// Truthy applies the language's truthiness rule.
func (v Value) Truthy() bool {
	return value.Truthy(v.v)
}

// Display returns the text print would produce.
func (v Value) Display() string {
	return v.v.String()
}

// Raw returns nil, bool, float64 or string. Functions are not convertible.
func (v Value) Raw() (any, error) {
	switch v.v.Kind {
	case value.KindNil:
		return nil, nil
	case value.KindBool:
		return v.v.B, nil
	case value.KindNumber:
		return v.v.Num, nil
	case value.KindString:
		return v.v.Str, nil
	case value.KindCallable:
		return nil, errors.New("Raw() not supported on function values")
	default:
		return nil, fmt.Errorf("unsupported value kind %v", v.v.Kind)
	}
}

// MustRaw returns Raw() or panics on error (convenience).
func (v Value) MustRaw() any {
	raw, err := v.Raw()
	if err != nil {
		panic(err)
	}
	return raw
}

func marshalGoValue(val any) (value.Value, error) {
	switch v := val.(type) {
	case Value:
		return v.v, nil
	case nil:
		return value.Nil(), nil
	case bool:
		return value.Bool(v), nil
	case string:
		return value.String(v), nil
	case float64:
		return value.Number(v), nil
	case float32:
		return value.Number(float64(v)), nil
	case int:
		return value.Number(float64(v)), nil
	case int8:
		return value.Number(float64(v)), nil
	case int16:
		return value.Number(float64(v)), nil
	case int32:
		return value.Number(float64(v)), nil
	case int64:
		return value.Number(float64(v)), nil
	case uint:
		return value.Number(float64(v)), nil
	case uint8:
		return value.Number(float64(v)), nil
	case uint16:
		return value.Number(float64(v)), nil
	case uint32:
		return value.Number(float64(v)), nil
	case uint64:
		return value.Number(float64(v)), nil
	case *NativeFunction:
		if v == nil {
			return value.Value{}, errors.New("nil function")
		}
		return value.FromCallable(v.native("")), nil
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Bool:
		return value.Bool(rv.Bool()), nil
	case reflect.String:
		return value.String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return value.Number(rv.Float()), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return value.Nil(), nil
		}
		return marshalGoValue(rv.Elem().Interface())
	}
	return value.Value{}, fmt.Errorf("unsupported Go type %T", val)
}

// assignValue stores src into dst, converting to the destination kind.
func assignValue(src value.Value, dst reflect.Value) error {
	if !dst.CanSet() {
		return errors.New("cannot set target")
	}
	got := ValueKind(src.Kind).String()
	if dst.Type() == valueType {
		dst.Set(reflect.ValueOf(Value{v: src}))
		return nil
	}
	switch dst.Kind() {
	case reflect.Interface:
		raw, err := Value{v: src}.Raw()
		if err != nil {
			return err
		}
		if raw == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(dst.Type()) {
			return ArgError{Want: dst.Type().String(), Got: got}
		}
		dst.Set(rv)
		return nil
	case reflect.Bool:
		if src.Kind != value.KindBool {
			return ArgError{Want: "boolean", Got: got}
		}
		dst.SetBool(src.B)
		return nil
	case reflect.String:
		if src.Kind != value.KindString {
			return ArgError{Want: "string", Got: got}
		}
		dst.SetString(src.Str)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if src.Kind != value.KindNumber {
			return ArgError{Want: "number", Got: got}
		}
		n := src.Num
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 || dst.OverflowInt(int64(n)) {
			return ArgError{Want: dst.Type().String(), Got: "number " + value.FormatNumber(n)}
		}
		dst.SetInt(int64(n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if src.Kind != value.KindNumber {
			return ArgError{Want: "number", Got: got}
		}
		n := src.Num
		if n != math.Trunc(n) || n < 0 || n >= math.MaxUint64 || dst.OverflowUint(uint64(n)) {
			return ArgError{Want: dst.Type().String(), Got: "number " + value.FormatNumber(n)}
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		if src.Kind != value.KindNumber {
			return ArgError{Want: "number", Got: got}
		}
		dst.SetFloat(src.Num)
		return nil
	default:
		return fmt.Errorf("unsupported target type %s", dst.Type())
	}
}
