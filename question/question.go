// Package question loads quiz questions from semicolon-delimited CSV files.
package question

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrSource wraps every load-time failure so callers can surface it as a
// room-creation error without inspecting the cause.
var ErrSource = fmt.Errorf("question source error")

// Question is one record from the source file: a prompt, the correct answer
// and three wrong answers.
type Question struct {
	Prompt  string
	Correct string
	Wrong   [3]string
}

// Load reads questions from a CSV file with ';' as the field separator.
// The first line is treated as a header and skipped, rows with fewer than
// five fields are ignored.
func Load(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSource, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil || len(header) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrSource)
	}

	var out []Question
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSource, err)
		}
		if len(row) < 5 {
			continue
		}
		out = append(out, Question{
			Prompt:  strings.TrimSpace(row[0]),
			Correct: strings.TrimSpace(row[1]),
			Wrong: [3]string{
				strings.TrimSpace(row[2]),
				strings.TrimSpace(row[3]),
				strings.TrimSpace(row[4]),
			},
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable rows in %s", ErrSource, path)
	}
	return out, nil
}
