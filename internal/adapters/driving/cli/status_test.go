package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

func TestStatusCmd_Ready(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetArgs([]string{"status"})
	require.NoError(t, rootCmd.Execute())

	out := ts.buf.String()
	assert.Contains(t, out, "vector_index")
	assert.Contains(t, out, "12 chunks")
	assert.Contains(t, out, "nomic-embed-text")
	assert.Contains(t, out, "Documents:       2")
}

func TestStatusCmd_NotReady(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.rag.report.Components[2] = domain.ComponentHealth{
		Name:   domain.ComponentLLM,
		Status: domain.HealthUnavailable,
		Detail: "connection refused",
	}

	rootCmd.SetArgs([]string{"status"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
	assert.Contains(t, ts.buf.String(), "connection refused")
}

func TestStatusCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetArgs([]string{"status", "--json"})
	require.NoError(t, rootCmd.Execute())

	var report domain.HealthReport
	require.NoError(t, json.Unmarshal(ts.buf.Bytes(), &report))
	assert.Len(t, report.Components, 4)
	assert.Equal(t, 12, report.Chunks)
}
