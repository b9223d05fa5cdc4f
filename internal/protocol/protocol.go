package protocol

// protocol.go = the line-oriented wire format spoken between the panel and the visualizer.
// Every message is one UTF-8 line terminated by '\n'. Variable updates are assignment
// statements "<identifier> = <literal>"; commands are sent verbatim.

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultPort is the fixed TCP port the visualizer listens on.
const DefaultPort = 31336

var ErrNotAssignment = errors.New("line is not an assignment")

// FormatNumber renders v in canonical decimal form: always a fractional part, never
// an exponent ("5.0", "0.25", "-1200.0").
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}

// Assign builds the assignment statement for a numeric variable.
func Assign(name string, v float64) string {
	return name + " = " + FormatNumber(v)
}

// AssignBool builds the assignment statement for a boolean variable.
func AssignBool(name string, b bool) string {
	return name + " = " + FormatBool(b)
}

// Assignment is a parsed "<identifier> = <literal>" line.
type Assignment struct {
	Name    string
	Literal string
}

// ParseAssignment splits a line into its identifier and literal. Lines that are not
// a single plain assignment (commands, comparisons, augmented assignments) return
// ErrNotAssignment.
func ParseAssignment(line string) (Assignment, error) {
	line = strings.TrimRight(line, "\r\n")
	idx := strings.IndexByte(line, '=')
	if idx <= 0 || idx == len(line)-1 {
		return Assignment{}, ErrNotAssignment
	}
	// "a == b", "a <= b", "a += 1" are not assignments
	if line[idx+1] == '=' || strings.ContainsRune("=!<>+-*/%&|^", rune(line[idx-1])) {
		return Assignment{}, ErrNotAssignment
	}

	name := strings.TrimSpace(line[:idx])
	literal := strings.TrimSpace(line[idx+1:])
	if !IsIdentifier(name) || literal == "" {
		return Assignment{}, fmt.Errorf("%w: %q", ErrNotAssignment, line)
	}
	return Assignment{Name: name, Literal: literal}, nil
}

// IsIdentifier reports whether s is a valid variable name on the wire.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
