package id_test

import (
	"testing"

	"github.com/xraph/exportcheck/id"
)

func TestNewCheckID_Prefix(t *testing.T) {
	got := id.NewCheckID()
	if got.IsNil() {
		t.Fatal("NewCheckID returned Nil")
	}
	if got.Prefix() != id.PrefixCheck {
		t.Errorf("Prefix() = %q, want %q", got.Prefix(), id.PrefixCheck)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	orig := id.NewCheckID()
	parsed, err := id.Parse(orig.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", orig.String(), err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("round trip = %q, want %q", parsed.String(), orig.String())
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("Parse(\"\") did not return an error")
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := id.Parse("not a typeid"); err == nil {
		t.Error("Parse of garbage did not return an error")
	}
}

func TestNil_String(t *testing.T) {
	if got := id.Nil.String(); got != "" {
		t.Errorf("Nil.String() = %q, want \"\"", got)
	}
	if !id.Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
}

func TestUnmarshalText(t *testing.T) {
	orig := id.NewCheckID()

	var parsed id.ID
	if err := parsed.UnmarshalText([]byte(orig.String())); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("UnmarshalText = %q, want %q", parsed.String(), orig.String())
	}

	var empty id.ID
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil): %v", err)
	}
	if !empty.IsNil() {
		t.Error("UnmarshalText(nil) did not produce Nil")
	}
}
