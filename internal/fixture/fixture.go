// Package fixture reads and writes YAML files describing nested question
// trees and sessions for bulk import and export.
//
// A fixture looks like:
//
//	questions:
//	  - skill: Teamwork
//	    level: Beginner
//	    question_type: Text
//	    question_content: How would you handle a disagreement?
//	    expected_answer: Listen to both sides.
//	    answers:
//	      - answer_type: Text
//	        answer_content: I would talk to each person.
//	        evaluations:
//	          - is_correct: true
//	            explanation: Matches the expected approach.
//	sessions:
//	  - session_id: 0190d6c4-7b1e-7c3a-9d7e-2f1a3b4c5d6e
//	    skill: Teamwork
//	    level: Beginner
//	    score: 4
//
// Nested rows take their parent id from the enclosing entry. Unknown keys are
// rejected so that typos fail loudly instead of dropping a column.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/skillcheck/internal/record"
)

// Load reads a fixture file.
func Load(path string) (record.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record.Batch{}, fmt.Errorf("read fixture: %w", err)
	}

	b, err := Parse(data)
	if err != nil {
		return record.Batch{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes fixture YAML. An empty document yields an empty batch.
func Parse(data []byte) (record.Batch, error) {
	var b record.Batch

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return record.Batch{}, nil
		}
		return record.Batch{}, fmt.Errorf("parse fixture: %w", err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return record.Batch{}, fmt.Errorf("parse fixture: expected a single YAML document")
	}
	return b, nil
}

// Write encodes b as fixture YAML.
func Write(w io.Writer, b record.Batch) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}

// Save writes b to path, replacing any existing file.
func Save(path string, b record.Batch) error {
	var buf bytes.Buffer
	if err := Write(&buf, b); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}
