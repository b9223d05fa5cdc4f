package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "navpanel", cfg.AppID)
	assert.Equal(t, "localhost", cfg.VisualizerHost)
	assert.Equal(t, 31336, cfg.VisualizerPort)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "sliders.json", cfg.SchemaPath)
	assert.Equal(t, "file", cfg.PrefsBackend)
	assert.False(t, cfg.RememberHost)
	assert.Equal(t, ":31336", cfg.ListenAddr)
	assert.Empty(t, cfg.StatusAddr)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("VISUALIZER_HOST", "robot.lab")
	t.Setenv("CONNECT_TIMEOUT", "750ms")
	t.Setenv("PREFS_BACKEND", "sqlite")
	t.Setenv("REMEMBER_HOST", "true")
	t.Setenv("LINE_RATE", "12.5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "robot.lab", cfg.VisualizerHost)
	assert.Equal(t, 750*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, "sqlite", cfg.PrefsBackend)
	assert.True(t, cfg.RememberHost)
	assert.Equal(t, 12.5, cfg.LineRate)
}

func TestFromEnv_BadValues(t *testing.T) {
	cases := map[string]string{
		"VISUALIZER_PORT": "abc",
		"CONNECT_TIMEOUT": "soon",
		"REMEMBER_HOST":   "perhaps",
		"LINE_RATE":       "fast",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		AppID:          "navpanel",
		VisualizerPort: 70000,
		OutboxSize:     0,
		PrefsBackend:   "redis",
		LogLevel:       "trace",
		LogFormat:      "text",
		LineRate:       1,
		LineBurst:      1,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VISUALIZER_PORT")
	assert.Contains(t, err.Error(), "OUTBOX_SIZE")
	assert.Contains(t, err.Error(), "PREFS_BACKEND")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.NotContains(t, err.Error(), "LOG_FORMAT")
}

func TestValidate_StartupCallNeedsScript(t *testing.T) {
	t.Setenv("STARTUP_CALL", "getCorners(0, 0, 0)")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "getCorners(0, 0, 0)", cfg.StartupCall)
	assert.ErrorContains(t, cfg.Validate(), "STARTUP_CALL requires SCRIPT_PATH")

	t.Setenv("SCRIPT_PATH", "robotinfo.star")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
