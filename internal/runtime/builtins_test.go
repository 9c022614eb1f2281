package runtime

import (
	"testing"

	"github.com/xirelogy/go-lox/internal/value"
)

func TestRegisterAndLookup(t *testing.T) {
	Register(Spec{
		Name:  "test_identity",
		Arity: 1,
		Handler: func(args []value.Value) (value.Value, error) {
			return args[0], nil
		},
	})
	spec, ok := LookupByName("test_identity")
	if !ok || spec.Arity != 1 {
		t.Fatalf("expected registered spec, got %#v (%v)", spec, ok)
	}
	found := false
	for _, s := range All() {
		if s.Name == "test_identity" {
			found = true
		}
	}
	if !found {
		t.Fatalf("All() missing registered builtin")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	handler := func([]value.Value) (value.Value, error) { return value.Nil(), nil }
	Register(Spec{Name: "test_dup", Handler: handler})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	Register(Spec{Name: "test_dup", Handler: handler})
}

func TestRegisterRejectsNilHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on nil handler")
		}
	}()
	Register(Spec{Name: "test_nil"})
}
