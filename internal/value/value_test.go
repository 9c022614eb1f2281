package value

import (
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		v        Value
		expected bool
	}{
		{Nil(), false},
		{Bool(false), false},
		{Bool(true), true},
		{Number(0), true},
		{String(""), true},
		{FromCallable(&Native{FnName: "f"}), true},
	}
	for i, tt := range tests {
		if got := Truthy(tt.v); got != tt.expected {
			t.Fatalf("case %d: expected %v, got %v", i, tt.expected, got)
		}
	}
}

func TestEqual(t *testing.T) {
	fn := &Native{FnName: "f"}
	other := &Native{FnName: "f"}
	tests := []struct {
		a, b     Value
		expected bool
	}{
		{Nil(), Nil(), true},
		{Nil(), Bool(false), false},
		{Number(1), Number(1), true},
		{Number(1), String("1"), false},
		{String("a"), String("a"), true},
		{Bool(true), Bool(true), true},
		{FromCallable(fn), FromCallable(fn), true},
		{FromCallable(fn), FromCallable(other), false},
	}
	for i, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.expected {
			t.Fatalf("case %d: expected %v, got %v", i, tt.expected, got)
		}
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		v        Value
		expected string
	}{
		{Nil(), "nil"},
		{Bool(true), "true"},
		{Number(10), "10"},
		{Number(2.5), "2.5"},
		{Number(-0.125), "-0.125"},
		{Number(3628800), "3628800"},
		{Number(math.Inf(1)), "Infinity"},
		{Number(math.NaN()), "NaN"},
		{String("hi"), "hi"},
		{FromCallable(&Native{FnName: "clock"}), "<native fn>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.expected {
			t.Fatalf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestFromLiteral(t *testing.T) {
	if v := FromLiteral(1.5); v.Kind != KindNumber || v.Num != 1.5 {
		t.Fatalf("unexpected number %#v", v)
	}
	if v := FromLiteral("s"); v.Kind != KindString || v.Str != "s" {
		t.Fatalf("unexpected string %#v", v)
	}
	if v := FromLiteral(nil); v.Kind != KindNil {
		t.Fatalf("expected nil, got %v", v.Kind)
	}
}
