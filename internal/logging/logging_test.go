package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleWriterFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf)
	w.DisableColor()

	logger, closer := New(Options{Console: w})
	defer func() { _ = closer.Close() }()

	logger.Info().Str("pipeline", "snap").Str("step", "snapcraft clean").Int("exit_code", 0).Msg("step finished")

	out := buf.String()
	assert.Contains(t, out, "snap/snapcraft clean: step finished")
	assert.Contains(t, out, "exit_code=0")
	assert.NotContains(t, out, "[green]")
}

func TestConsoleWriterErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf)
	w.DisableColor()
	logger, _ := New(Options{Console: w})

	logger.Error().Err(eris.New("boom")).Msg("pipeline failed")

	out := buf.String()
	assert.Contains(t, out, "Error: pipeline failed")
	assert.Contains(t, out, "boom")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf)
	w.DisableColor()

	logger, _ := New(Options{Console: w, Level: "warn"})
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	logger, _ = New(Options{Console: w, Level: "warn", Verbose: true})
	logger.Debug().Msg("debugging")
	assert.Contains(t, buf.String(), "debugging")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mstpkit.log")
	var buf bytes.Buffer
	logger, closer := New(Options{Console: &buf, File: path, MaxSizeMB: 1})
	logger.Info().Str("pipeline", "bootstrap").Msg("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"pipeline":"bootstrap"`))
}

func TestFromContext(t *testing.T) {
	nop := FromContext(context.Background())
	require.NotNil(t, nop)

	var buf bytes.Buffer
	w := NewConsoleWriter(&buf)
	w.DisableColor()
	logger, _ := New(Options{Console: w})
	ctx := WithLogger(context.Background(), &logger)
	FromContext(ctx).Info().Msg("via context")
	assert.Contains(t, buf.String(), "via context")
}
