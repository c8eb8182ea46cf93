package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		_ = Configure("info", "")
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	reset(t)

	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Debug("test message %s", "arg")

	assert.Contains(t, buf.String(), "test message arg")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := reset(t)

	Debug("test message")
	Info("info message")

	assert.Zero(t, buf.Len())
}

func TestWarn_AlwaysShown(t *testing.T) {
	buf := reset(t)

	Warn("skipped %d files", 3)
	Error("failed")

	assert.Contains(t, buf.String(), "skipped 3 files")
	assert.Contains(t, buf.String(), "failed")
}

func TestStructuredFields(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	L().Info().Str("document", "SPO.pdf").Int("chunks", 12).Msg("indexed")

	out := buf.String()
	assert.Contains(t, out, "indexed")
	assert.Contains(t, out, "SPO.pdf")
	assert.Contains(t, out, "12")
}

func TestSection(t *testing.T) {
	buf := reset(t)

	Section("Retrieval")
	assert.Zero(t, buf.Len())

	SetVerbose(true)
	Section("Retrieval")
	assert.Equal(t, "\n=== Retrieval ===\n", buf.String())
}

func TestConfigure_File(t *testing.T) {
	buf := reset(t)
	path := filepath.Join(t.TempDir(), "logs", "regelrag.log")

	require.NoError(t, Configure("debug", path))
	Debug("written to file only")
	require.NoError(t, Close())

	assert.Zero(t, buf.Len(), "console stays quiet without --verbose")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file only")
}

func TestConfigure_InvalidLevel(t *testing.T) {
	reset(t)
	assert.Error(t, Configure("loud", ""))
}
