package schema

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	t.Run("LineAndBlock", func(t *testing.T) {
		src := "{ // note\n\"a\": /* inline */ 1\n}"
		out, err := StripComments([]byte(src))
		require.NoError(t, err)
		assert.Equal(t, len(src), len(out))
		assert.NotContains(t, string(out), "note")
		assert.NotContains(t, string(out), "inline")
		assert.Equal(t, 2, bytes.Count(out, []byte("\n")))
	})

	t.Run("MarkersInsideStrings", func(t *testing.T) {
		src := `{"url": "http://host/*x*/", "q": "a \" // b"}`
		out, err := StripComments([]byte(src))
		require.NoError(t, err)
		assert.Equal(t, src, string(out))
	})

	t.Run("Unterminated", func(t *testing.T) {
		_, err := StripComments([]byte("{ /* open"))
		assert.True(t, errors.Is(err, ErrUnterminatedComment))
	})

	t.Run("MultilineBlockKeepsNewlines", func(t *testing.T) {
		out, err := StripComments([]byte("/* a\nb\nc */{}"))
		require.NoError(t, err)
		assert.Equal(t, "    \n \n    {}", string(out))
	})
}

func TestParse_SingleSlider(t *testing.T) {
	s, err := Parse([]byte(`{"sliders": [{"variable":"speed","defaultMin":0,"defaultMax":10,"defaultValue":5}]}`))
	require.NoError(t, err)
	require.Len(t, s.Sliders, 1)
	assert.Equal(t, Slider{Variable: "speed", DefaultMin: 0, DefaultMax: 10, DefaultValue: 5}, s.Sliders[0])
	assert.Empty(t, s.Buttons)
	assert.Empty(t, s.Checkboxes)
}

func TestLoad_Testdata(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "sliders.json"))
	require.NoError(t, err)

	assert.Len(t, s.Buttons, 2)
	assert.Len(t, s.Checkboxes, 2)
	assert.Len(t, s.Sliders, 3)
	assert.Equal(t, "reset_robot()", s.Buttons[0].Code)
	assert.True(t, s.Checkboxes[0].DefaultValue)
	assert.False(t, s.Checkboxes[1].DefaultValue)
	assert.Equal(t, 0.25, s.Sliders[1].DefaultValue)

	entries := s.Entries()
	require.Len(t, entries, 7)
	assert.Equal(t, EntryButton, entries[0].Kind)
	assert.Equal(t, EntryCheckbox, entries[2].Kind)
	assert.Equal(t, EntrySlider, entries[4].Kind)
	assert.Equal(t, "speed", entries[4].Slider.Variable)
	assert.Equal(t, 7, s.Len())
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"DefaultAboveMax":  `{"sliders":[{"variable":"v","defaultMin":0,"defaultMax":1,"defaultValue":2}]}`,
		"MinAboveMax":      `{"sliders":[{"variable":"v","defaultMin":3,"defaultMax":1,"defaultValue":2}]}`,
		"MissingVariable":  `{"sliders":[{"defaultMin":0,"defaultMax":1,"defaultValue":0}]}`,
		"UnknownField":     `{"sliders":[],"knobs":[]}`,
		"UnknownEntryKey":  `{"buttons":[{"label":"x","code":"y","color":"red"}]}`,
		"WrongType":        `{"checkboxes":[{"label":"x","variable":"y","defaultValue":"yes"}]}`,
		"NotAnObject":      `[1, 2]`,
		"TrailingComma":    `{"buttons":[{"label":"x","code":"y"},]}`,
		"Empty":            `   // nothing here`,
		"SyntaxError":      `{"sliders": [}`,
		"UnterminatedNote": `{} /*`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Parse([]byte(doc))
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestParse_EmptyObject(t *testing.T) {
	s, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Entries())
}

func TestParse_NullSectionsAreAbsent(t *testing.T) {
	s, err := Parse([]byte(`{
		"sliders": null,
		"buttons": null,
		"checkboxes": [{"label": "Show path", "variable": "showPath", "defaultValue": null}]
	}`))
	require.NoError(t, err)
	assert.Empty(t, s.Sliders)
	assert.Empty(t, s.Buttons)
	require.Len(t, s.Checkboxes, 1)
	assert.False(t, s.Checkboxes[0].DefaultValue)

	s, err = Parse([]byte(`{"sliders": null, "buttons": [{"label": "Reset", "code": "reset_robot()"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestParse_DegenerateRangeAllowed(t *testing.T) {
	s, err := Parse([]byte(`{"sliders":[{"variable":"v","defaultMin":2,"defaultMax":2,"defaultValue":2}]}`))
	require.NoError(t, err)
	assert.Len(t, s.Sliders, 1)
}

func TestLoadOrEmpty(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("Missing", func(t *testing.T) {
		s := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.json"), logger)
		require.NotNil(t, s)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))
		s := LoadOrEmpty(path, logger)
		require.NotNil(t, s)
		assert.Empty(t, s.Entries())
	})
}

func TestNilSchema(t *testing.T) {
	var s *Schema
	assert.Nil(t, s.Entries())
	assert.Equal(t, 0, s.Len())
}
