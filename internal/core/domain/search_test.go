package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchFilter_Matches(t *testing.T) {
	chunk := &Chunk{DocumentID: "doc-1", Labels: []string{"Fakultaet_III", "Master", "Ethnologie"}}

	tests := []struct {
		name     string
		filter   *SearchFilter
		expected bool
	}{
		{"nil filter matches", nil, true},
		{"empty filter matches", &SearchFilter{}, true},
		{"document match", &SearchFilter{DocumentIDs: []string{"doc-2", "doc-1"}}, true},
		{"document mismatch", &SearchFilter{DocumentIDs: []string{"doc-2"}}, false},
		{"label match ignores case", &SearchFilter{Labels: []string{"master"}}, true},
		{"all labels required", &SearchFilter{Labels: []string{"Master", "Bachelor"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(chunk))
		})
	}
}

func TestHitLess_OrdersByScoreThenChunkID(t *testing.T) {
	hits := []Hit{
		{Chunk: Chunk{ID: "c"}, Score: 0.5},
		{Chunk: Chunk{ID: "b"}, Score: 0.9},
		{Chunk: Chunk{ID: "a"}, Score: 0.5},
	}

	sort.Slice(hits, func(i, j int) bool { return HitLess(hits[i], hits[j]) })

	assert.Equal(t, "b", hits[0].Chunk.ID)
	assert.Equal(t, "a", hits[1].Chunk.ID)
	assert.Equal(t, "c", hits[2].Chunk.ID)
}

func TestRetrievalResult_IsEmpty(t *testing.T) {
	var nilResult *RetrievalResult
	assert.True(t, nilResult.IsEmpty())
	assert.True(t, (&RetrievalResult{Query: "q"}).IsEmpty())
	assert.False(t, (&RetrievalResult{Hits: []Hit{{}}}).IsEmpty())
}
