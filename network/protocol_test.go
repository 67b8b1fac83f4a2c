package network

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecode_Hello(t *testing.T) {
	in, err := Decode([]byte(`{"type":"hello","create":true,"name":"  Ada  ","avatar":"🦊"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if in.Type != MsgHello || !in.Create {
		t.Errorf("unexpected decode result: %+v", in)
	}
	if in.Name != "Ada" {
		t.Errorf("Expected trimmed name Ada, got %q", in.Name)
	}
}

func TestDecode_HelloDefaultsName(t *testing.T) {
	in, err := Decode([]byte(`{"type":"hello","name":"   "}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if in.Name != "Player" {
		t.Errorf("Expected default name Player, got %q", in.Name)
	}
}

func TestDecode_HelloTruncatesLongNamesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("ü", 2*maxNameLength)
	in, err := Decode([]byte(`{"type":"hello","name":"` + long + `"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !utf8.ValidString(in.Name) {
		t.Errorf("Truncated name is not valid UTF-8: %q", in.Name)
	}
	if got := utf8.RuneCountInString(in.Name); got != maxNameLength {
		t.Errorf("Expected %d runes after truncation, got %d", maxNameLength, got)
	}
	if !strings.HasPrefix(long, in.Name) {
		t.Errorf("Truncation should keep a prefix of the original, got %q", in.Name)
	}
}

func TestDecode_AnswerChoiceRange(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"answer:submit","choice":2}`)); err != nil {
		t.Errorf("choice 2 should decode, got %v", err)
	}

	for _, raw := range []string{
		`{"type":"answer:submit"}`,
		`{"type":"answer:submit","choice":4}`,
		`{"type":"answer:submit","choice":-1}`,
	} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%s): expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestDecode_JokerKinds(t *testing.T) {
	for _, kind := range []string{"5050", "spy", "risk"} {
		if _, err := Decode([]byte(`{"type":"joker:use","kind":"` + kind + `"}`)); err != nil {
			t.Errorf("joker kind %s should decode, got %v", kind, err)
		}
	}

	if _, err := Decode([]byte(`{"type":"joker:use","kind":"phone"}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("unknown joker kind: expected ErrMalformed, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, raw := range []string{
		`not json at all`,
		`{"type":"no:such:type"}`,
		`{"type":"player:kick"}`,
		`{}`,
	} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%s): expected ErrMalformed, got %v", raw, err)
		}
	}
}
