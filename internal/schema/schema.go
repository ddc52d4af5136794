// Package schema loads the scraped Udyam form description that drives the
// two wizard steps.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed udyam-form-schema.json
var defaultDocument []byte

//go:embed form-schema.schema.json
var metaSchema []byte

const metaSchemaURL = "https://udyam.local/form-schema.schema.json"

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Rule struct {
	Regex     string `json:"regex,omitempty"`
	MinLength int    `json:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
	Message   string `json:"message"`

	re *regexp.Regexp
}

type Field struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Placeholder string   `json:"placeholder,omitempty"`
	Label       string   `json:"label,omitempty"`
	MaxLength   int      `json:"maxLength,omitempty"`
	Required    bool     `json:"required"`
	Pattern     string   `json:"pattern,omitempty"`
	Conditional bool     `json:"conditional,omitempty"`
	ShowAfter   string   `json:"showAfter,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Validation  *Rule    `json:"validation,omitempty"`
}

// Check evaluates value against the field's rules and returns the message
// to show, or "" when the value is acceptable.
func (f *Field) Check(value string) string {
	if value == "" {
		if f.Required {
			return f.Name + " is required"
		}
		return ""
	}
	if f.Validation == nil {
		return ""
	}
	r := f.Validation
	if r.re != nil && !r.re.MatchString(value) {
		return r.Message
	}
	n := utf8.RuneCountInString(value)
	if r.MinLength > 0 && n < r.MinLength {
		return r.Message
	}
	if r.MaxLength > 0 && n > r.MaxLength {
		return r.Message
	}
	return ""
}

// HasOption reports whether value is one of the field's options. Fields
// without options accept anything.
func (f *Field) HasOption(value string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

type PatternMessage struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

type Step struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description,omitempty"`
	Fields      []Field                   `json:"fields"`
	Validations map[string]PatternMessage `json:"validations,omitempty"`
}

func (s *Step) Field(id string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

type Schema struct {
	Step1   Step                         `json:"step1"`
	Step2   Step                         `json:"step2"`
	Buttons map[string]map[string]string `json:"buttons,omitempty"`

	raw []byte
}

// Step returns step 1 or 2.
func (s *Schema) Step(n int) (*Step, error) {
	switch n {
	case 1:
		return &s.Step1, nil
	case 2:
		return &s.Step2, nil
	}
	return nil, fmt.Errorf("form schema has no step %d", n)
}

// Raw returns the document exactly as loaded.
func (s *Schema) Raw() []byte {
	return s.raw
}

// Default returns the copy embedded in the binary.
func Default() (*Schema, error) {
	return Load(defaultDocument)
}

func LoadFromFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form schema: %w", err)
	}
	return Load(data)
}

// Load validates data against the form meta-schema and parses it.
func Load(data []byte) (*Schema, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse form schema: %w", err)
	}
	for _, step := range []*Step{&s.Step1, &s.Step2} {
		if err := compileRules(step); err != nil {
			return nil, err
		}
	}
	s.raw = data
	return &s, nil
}

func validateDocument(data []byte) error {
	meta, err := jsonschema.UnmarshalJSON(bytes.NewReader(metaSchema))
	if err != nil {
		return fmt.Errorf("failed to parse form meta-schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(metaSchemaURL, meta); err != nil {
		return fmt.Errorf("failed to add form meta-schema: %w", err)
	}
	sch, err := c.Compile(metaSchemaURL)
	if err != nil {
		return fmt.Errorf("failed to compile form meta-schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid form schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("invalid form schema: %w", err)
	}
	return nil
}

func compileRules(step *Step) error {
	seen := make(map[string]bool, len(step.Fields))
	for i := range step.Fields {
		f := &step.Fields[i]
		if seen[f.ID] {
			return fmt.Errorf("invalid form schema: duplicate field %q in %q", f.ID, step.Title)
		}
		seen[f.ID] = true

		if f.Validation == nil || f.Validation.Regex == "" {
			continue
		}
		re, err := regexp.Compile(f.Validation.Regex)
		if err != nil {
			return fmt.Errorf("invalid form schema: field %q: %w", f.ID, err)
		}
		f.Validation.re = re
	}
	return nil
}
