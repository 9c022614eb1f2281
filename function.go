package lox

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/xirelogy/go-lox/internal/value"
)

// FunctionHandler implements a host function. args has exactly Arity entries.
type FunctionHandler func(args HostArgs) (Value, error)

// NativeFunction is a host function that scripts can call.
type NativeFunction struct {
	Arity   int
	Handler FunctionHandler
}

// NewFunction creates a host function taking exactly arity arguments.
func NewFunction(arity int, handler FunctionHandler) *NativeFunction {
	return &NativeFunction{Arity: arity, Handler: handler}
}

func (fn *NativeFunction) native(name string) *value.Native {
	return &value.Native{
		FnName:    name,
		NumParams: fn.Arity,
		Fn: func(args []value.Value) (value.Value, error) {
			wrapped := make([]Value, len(args))
			for i, a := range args {
				wrapped[i] = Value{v: a}
			}
			res, err := fn.Handler(HostArgs{args: wrapped})
			if err != nil {
				return value.Value{}, err
			}
			return res.v, nil
		},
	}
}

// HostArgs provides typed accessors for host function arguments.
type HostArgs struct {
	args []Value
}

// NewHostArgs wraps positional arguments, mainly for testing handlers directly.
func NewHostArgs(args ...Value) HostArgs {
	return HostArgs{args: args}
}

func (a HostArgs) Len() int {
	return len(a.args)
}

// Value returns argument i.
func (a HostArgs) Value(i int) (Value, error) {
	if i < 0 || i >= len(a.args) {
		return Value{}, ArgError{Index: i, Want: "present"}
	}
	return a.args[i], nil
}

func (a HostArgs) Number(i int) (float64, error) {
	v, err := a.Value(i)
	if err != nil {
		return 0, err
	}
	if n, ok := v.Number(); ok {
		return n, nil
	}
	return 0, ArgError{Index: i, Want: "number", Got: v.Kind().String()}
}

func (a HostArgs) String(i int) (string, error) {
	v, err := a.Value(i)
	if err != nil {
		return "", err
	}
	if s, ok := v.String(); ok {
		return s, nil
	}
	return "", ArgError{Index: i, Want: "string", Got: v.Kind().String()}
}

func (a HostArgs) Bool(i int) (bool, error) {
	v, err := a.Value(i)
	if err != nil {
		return false, err
	}
	if b, ok := v.Bool(); ok {
		return b, nil
	}
	return false, ArgError{Index: i, Want: "boolean", Got: v.Kind().String()}
}

// WrapFunc adapts an ordinary Go function into a host function.
// Supported signatures:
//
//	func(...) T
//	func(...) (T, error)
//	func(...) error
//	func(...), which returns nil
//
// Parameters and T may be any type NewValue accepts, or Value itself.
func WrapFunc(fn any) (*NativeFunction, error) {
	if fn == nil {
		return nil, errors.New("nil function")
	}
	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		return nil, fmt.Errorf("%T is not a function", fn)
	}
	if rt.IsVariadic() {
		return nil, errors.New("variadic functions are not supported")
	}
	if rt.NumOut() > 2 {
		return nil, errors.New("too many return values (max 2)")
	}
	retValIndex := -1
	retErrIndex := -1
	switch rt.NumOut() {
	case 0:
	case 1:
		if rt.Out(0) == errorType {
			retErrIndex = 0
		} else {
			retValIndex = 0
		}
	case 2:
		if rt.Out(1) != errorType {
			return nil, errors.New("second return value must be error")
		}
		retValIndex = 0
		retErrIndex = 1
	}

	handler := func(args HostArgs) (Value, error) {
		inputs := make([]reflect.Value, rt.NumIn())
		for i := range inputs {
			arg, err := args.Value(i)
			if err != nil {
				return Value{}, err
			}
			in := reflect.New(rt.In(i)).Elem()
			if err := assignValue(arg.v, in); err != nil {
				var argErr ArgError
				if errors.As(err, &argErr) {
					argErr.Index = i
					return Value{}, argErr
				}
				return Value{}, fmt.Errorf("argument %d: %w", i, err)
			}
			inputs[i] = in
		}
		results := rv.Call(inputs)
		if retErrIndex >= 0 && !results[retErrIndex].IsNil() {
			return Value{}, results[retErrIndex].Interface().(error)
		}
		if retValIndex >= 0 {
			return NewValue(results[retValIndex].Interface())
		}
		return Value{v: value.Nil()}, nil
	}
	return NewFunction(rt.NumIn(), handler), nil
}

// MustWrapFunc panics on error; convenience for tests/bootstrap.
func MustWrapFunc(fn any) *NativeFunction {
	wrapped, err := WrapFunc(fn)
	if err != nil {
		panic(err)
	}
	return wrapped
}
