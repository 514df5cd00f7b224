// Package corpus loads question banks from external files for seeding and
// for running without a database.
package corpus

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"railprep/internal/domain"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var questionSchema string

// LoadFile reads a YAML question bank and validates it against the corpus
// schema before converting. A file that fails validation is rejected as a
// whole; seeding must never half-apply a broken bank.
func LoadFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML question bank.
func Parse(data []byte) ([]domain.Question, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse corpus yaml: %w", err)
	}

	// gojsonschema validates JSON, so round-trip the parsed YAML through it.
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert corpus to json: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(questionSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("validate corpus: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("corpus failed validation: %s", strings.Join(problems, "; "))
	}

	var questions []domain.Question
	if err := json.Unmarshal(jsonData, &questions); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return questions, nil
}
