package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParsePositionalPath(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := Parse([]string{"./manifests"}, &out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "./manifests", cfg.ManifestPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseFlagsOverridePositional(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"-manifest", "./a", "-realize", "strings", "-log-format", "text", "-log-level", "debug"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "./a", cfg.ManifestPath)
	assert.Equal(t, "strings", cfg.RealizePath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseInvalidLogFormat(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-format", "xml", "./a"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid log-format")
}

func TestParseInvalidLogLevel(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-level", "loud", "./a"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseInvalidRealizePath(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-realize", "!!!!", "./a"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, `model path "!!!!" is invalid`)
}
