package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthReport_Ready(t *testing.T) {
	report := HealthReport{
		Components: []ComponentHealth{
			{Name: ComponentEmbedding, Status: HealthOK},
			{Name: ComponentVectorIndex, Status: HealthEmpty},
			{Name: ComponentLLM, Status: HealthOK},
		},
	}

	assert.False(t, report.Ready(), "an empty index cannot answer")

	idx, ok := report.Component(ComponentVectorIndex)
	assert.True(t, ok)
	assert.Equal(t, HealthEmpty, idx.Status)

	report.Components[1].Status = HealthOK
	assert.True(t, report.Ready())

	_, ok = report.Component("cache")
	assert.False(t, ok)

	assert.False(t, (&HealthReport{}).Ready())
}
