package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmd_Subcommands(t *testing.T) {
	names := make([]string, 0, len(configCmd.Commands()))
	for _, c := range configCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"show", "get", "set", "unset", "set-key"}, names)
}

func TestConfigShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	appConfig.LLM.Provider = "openai"
	appConfig.LLM.APIKey = "sk-1234567890abcdef"

	rootCmd.SetArgs([]string{"config", "show"})
	require.NoError(t, rootCmd.Execute())

	out := ts.buf.String()
	assert.Contains(t, out, "[Chunking]")
	assert.Contains(t, out, "Size: 500")
	assert.Contains(t, out, "Overlap: 50")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
}

func TestConfigSetGetUnset(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "regelrag.toml")

	rootCmd.SetArgs([]string{"config", "set", "--config", path, "chunking.chunk_size", "800"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, ts.buf.String(), "chunking.chunk_size updated")
	assert.NotContains(t, ts.buf.String(), "Warning")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chunk_size = 800")

	ts.buf.Reset()
	rootCmd.SetArgs([]string{"config", "get", "--config", path, "chunking.chunk_size"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, ts.buf.String(), "800")

	ts.buf.Reset()
	rootCmd.SetArgs([]string{"config", "unset", "--config", path, "chunking.chunk_size"})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"config", "get", "--config", path, "chunking.chunk_size"})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not set")
}

func TestConfigSet_WarnsOnInvalidValue(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "regelrag.toml")

	rootCmd.SetArgs([]string{"config", "set", "--config", path, "chunking.chunk_overlap", "600"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, ts.buf.String(), "Warning:")
}

func TestConfigGet_MasksAPIKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "regelrag.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm]\napi_key = \"sk-1234567890abcdef\"\n"), 0o600))

	rootCmd.SetArgs([]string{"config", "get", "--config", path, "llm.api_key"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, ts.buf.String(), "sk-1...cdef")
	assert.NotContains(t, ts.buf.String(), "sk-1234567890abcdef")
}

func TestConfigSetKey_RejectsUnknownSection(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetArgs([]string{"config", "set-key", "--config", filepath.Join(t.TempDir(), "c.toml"), "index"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected embedding or llm")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"500", int64(500)},
		{"0.25", 0.25},
		{".pdf, .md", []string{".pdf", ".md"}},
		{"llama3.2", "llama3.2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-a...wxyz", maskAPIKey("sk-abcdefghijklmnopqrstuvwxyz"))
}
