package question

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	questions, err := Load(filepath.Join("testdata", "questions.csv"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// 4 data rows, one of them too short
	if len(questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(questions))
	}

	first := questions[0]
	if first.Prompt != "What is 2+2?" {
		t.Errorf("Unexpected prompt: %q", first.Prompt)
	}
	if first.Correct != "4" {
		t.Errorf("Unexpected correct answer: %q", first.Correct)
	}
	if first.Wrong != [3]string{"3", "5", "22"} {
		t.Errorf("Unexpected wrong answers: %v", first.Wrong)
	}

	// fields are trimmed
	last := questions[2]
	if last.Correct != "Canberra" {
		t.Errorf("Expected trimmed field Canberra, got %q", last.Correct)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "no_such_file.csv"))
	if !errors.Is(err, ErrSource) {
		t.Errorf("Expected ErrSource for missing file, got %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrSource) {
		t.Errorf("Expected ErrSource for empty file, got %v", err)
	}
}

func TestLoad_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.csv")
	if err := os.WriteFile(path, []byte("prompt;correct;wrong1;wrong2;wrong3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrSource) {
		t.Errorf("Expected ErrSource for header-only file, got %v", err)
	}
}
