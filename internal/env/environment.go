package env

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-lox/internal/token"
	"github.com/xirelogy/go-lox/internal/value"
)

// ErrScopeMismatch means a resolved distance did not match the runtime chain.
var ErrScopeMismatch = errors.New("scope mismatch")

// UndefinedError reports a name with no binding anywhere in the chain.
type UndefinedError struct {
	Name token.Token
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("Undefined variable '%s'.", e.Name.Lexeme)
}

// Environment is one frame of bindings. Frames are shared by every
// closure that captured them, so mutations are visible through all of them.
type Environment struct {
	enclosing *Environment
	values    map[string]value.Value
}

// New creates a frame whose parent is enclosing (nil for globals).
func New(enclosing *Environment) *Environment {
	return &Environment{
		enclosing: enclosing,
		values:    make(map[string]value.Value),
	}
}

func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this frame, overwriting any existing binding.
func (e *Environment) Define(name string, v value.Value) {
	e.values[name] = v
}

// Has reports whether name is bound directly in this frame.
func (e *Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Get searches this frame and then each ancestor.
func (e *Environment) Get(name token.Token) (value.Value, error) {
	for cur := e; cur != nil; cur = cur.enclosing {
		if v, ok := cur.values[name.Lexeme]; ok {
			return v, nil
		}
	}
	return value.Value{}, &UndefinedError{Name: name}
}

// Assign updates the nearest existing binding; it never creates one.
func (e *Environment) Assign(name token.Token, v value.Value) error {
	for cur := e; cur != nil; cur = cur.enclosing {
		if _, ok := cur.values[name.Lexeme]; ok {
			cur.values[name.Lexeme] = v
			return nil
		}
	}
	return &UndefinedError{Name: name}
}

// GetAt reads name from the frame exactly distance hops up.
func (e *Environment) GetAt(distance int, name string) (value.Value, error) {
	target, err := e.ancestor(distance)
	if err != nil {
		return value.Value{}, err
	}
	v, ok := target.values[name]
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %q not bound at distance %d", ErrScopeMismatch, name, distance)
	}
	return v, nil
}

// AssignAt writes name in the frame exactly distance hops up.
func (e *Environment) AssignAt(distance int, name string, v value.Value) error {
	target, err := e.ancestor(distance)
	if err != nil {
		return err
	}
	if _, ok := target.values[name]; !ok {
		return fmt.Errorf("%w: %q not bound at distance %d", ErrScopeMismatch, name, distance)
	}
	target.values[name] = v
	return nil
}

func (e *Environment) ancestor(distance int) (*Environment, error) {
	cur := e
	for i := 0; i < distance; i++ {
		if cur.enclosing == nil {
			return nil, fmt.Errorf("%w: no frame at distance %d", ErrScopeMismatch, distance)
		}
		cur = cur.enclosing
	}
	return cur, nil
}
