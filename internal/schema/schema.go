package schema

// schema.go = the declarative control schema: which sliders, buttons and checkboxes the
// panel renders. Documents are JSON with comments (see StripComments), validated against
// a CUE definition before being decoded.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Slider describes a ranged variable.
type Slider struct {
	Variable     string  `json:"variable"`
	DefaultMin   float64 `json:"defaultMin"`
	DefaultMax   float64 `json:"defaultMax"`
	DefaultValue float64 `json:"defaultValue"`
}

// Button describes a momentary command; Code is sent verbatim.
type Button struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// Checkbox describes a boolean toggle.
type Checkbox struct {
	Label        string `json:"label"`
	Variable     string `json:"variable"`
	DefaultValue bool   `json:"defaultValue"`
}

// Schema is the decoded configuration document.
type Schema struct {
	Sliders    []Slider   `json:"sliders,omitempty"`
	Buttons    []Button   `json:"buttons,omitempty"`
	Checkboxes []Checkbox `json:"checkboxes,omitempty"`
}

// EntryKind identifies which field of an Entry is set.
type EntryKind int

const (
	EntryButton EntryKind = iota
	EntryCheckbox
	EntrySlider
)

// Entry is one control in construction order.
type Entry struct {
	Kind     EntryKind
	Slider   *Slider
	Button   *Button
	Checkbox *Checkbox
}

// Entries lists buttons, then checkboxes, then sliders, each group in document order.
// A nil schema has no entries.
func (s *Schema) Entries() []Entry {
	if s == nil {
		return nil
	}
	entries := make([]Entry, 0, len(s.Buttons)+len(s.Checkboxes)+len(s.Sliders))
	for i := range s.Buttons {
		entries = append(entries, Entry{Kind: EntryButton, Button: &s.Buttons[i]})
	}
	for i := range s.Checkboxes {
		entries = append(entries, Entry{Kind: EntryCheckbox, Checkbox: &s.Checkboxes[i]})
	}
	for i := range s.Sliders {
		entries = append(entries, Entry{Kind: EntrySlider, Slider: &s.Sliders[i]})
	}
	return entries
}

// Len is the number of controls the schema describes.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Buttons) + len(s.Checkboxes) + len(s.Sliders)
}

const definition = `
#Slider: {
	variable:     string
	defaultMin:   number
	defaultMax:   number & >=defaultMin
	defaultValue: number & >=defaultMin & <=defaultMax
}
#Button: {
	label: string
	code:  string
}
#Checkbox: {
	label:         string
	variable:      string
	defaultValue?: bool | null
}
// null reads as absent
sliders?:    null | [...#Slider]
buttons?:    null | [...#Button]
checkboxes?: null | [...#Checkbox]
`

// Parse strips comments, validates and decodes a schema document.
func Parse(data []byte) (*Schema, error) {
	clean, err := StripComments(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(clean)) == 0 {
		return nil, fmt.Errorf("empty schema document")
	}

	ctx := cuecontext.New()
	def := ctx.CompileString("close({"+definition+"})", cue.Filename("schema.cue"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile schema definition: %w", err)
	}

	value := ctx.CompileBytes(clean, cue.Filename("schema.json"))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}

	var s Schema
	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &s, nil
}

// Load reads and parses a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadOrEmpty is Load for the panel: failures are logged and yield an empty schema.
func LoadOrEmpty(path string, logger *slog.Logger) *Schema {
	s, err := Load(path)
	if err != nil {
		logger.Error("schema_load_failed",
			"path", path,
			"error", err.Error(),
		)
		return &Schema{}
	}
	logger.Info("schema_loaded",
		"path", path,
		"sliders", len(s.Sliders),
		"buttons", len(s.Buttons),
		"checkboxes", len(s.Checkboxes),
	)
	return s
}
