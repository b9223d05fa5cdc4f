package protocol

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{5, "5.0"},
		{0, "0.0"},
		{-3.5, "-3.5"},
		{0.25, "0.25"},
		{1e7, "10000000.0"},
		{0.0001, "0.0001"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(tc.in), "FormatNumber(%v)", tc.in)
	}
}

func TestAssign(t *testing.T) {
	assert.Equal(t, "speed = 5.0", Assign("speed", 5))
	assert.Equal(t, "showPath = true", AssignBool("showPath", true))
	assert.Equal(t, "showPath = false", AssignBool("showPath", false))
}

func TestParseAssignment(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		a, err := ParseAssignment("speed = 5.0\n")
		require.NoError(t, err)
		assert.Equal(t, "speed", a.Name)
		assert.Equal(t, "5.0", a.Literal)
	})

	t.Run("NoSpaces", func(t *testing.T) {
		a, err := ParseAssignment("debug=true")
		require.NoError(t, err)
		assert.Equal(t, "debug", a.Name)
		assert.Equal(t, "true", a.Literal)
	})

	t.Run("NotAssignments", func(t *testing.T) {
		for _, line := range []string{
			"resetRobot()",
			"a == b",
			"a <= b",
			"a += 1",
			"= 5",
			"x =",
			"1x = 2",
			"robot.x = 3",
		} {
			_, err := ParseAssignment(line)
			assert.True(t, errors.Is(err, ErrNotAssignment), "line %q", line)
		}
	})
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("_private"))
	assert.True(t, IsIdentifier("wheel2Speed"))
	assert.False(t, IsIdentifier("2wheel"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("a-b"))
}
