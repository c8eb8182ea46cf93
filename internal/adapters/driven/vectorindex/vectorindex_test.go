package vectorindex

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func hit(id string, score float64) domain.Hit {
	return domain.Hit{Chunk: domain.Chunk{ID: id}, Score: score}
}

func TestRanker_OrdersByScoreThenID(t *testing.T) {
	r := NewRanker(4)
	for _, h := range []domain.Hit{
		hit("c", 0.5), hit("a", 0.9), hit("b", 0.5), hit("d", 0.1), hit("e", 0.9), hit("f", 0.5),
	} {
		r.Add(h)
	}

	got := r.Hits()
	require.Len(t, got, 4)
	ids := []string{got[0].Chunk.ID, got[1].Chunk.ID, got[2].Chunk.ID, got[3].Chunk.ID}
	assert.Equal(t, []string{"a", "e", "b", "c"}, ids)
}

func TestRanker_ManyHitsKeepsBest(t *testing.T) {
	r := NewRanker(3)
	for i := 0; i < 100; i++ {
		r.Add(hit(string(rune('A'+i%26))+string(rune('a'+i/26)), float64(i)))
	}
	got := r.Hits()
	require.Len(t, got, 3)
	assert.Equal(t, 99.0, got[0].Score)
	assert.Equal(t, 98.0, got[1].Score)
	assert.Equal(t, 97.0, got[2].Score)
}

func TestRanker_EmptyAndZeroK(t *testing.T) {
	assert.Empty(t, NewRanker(5).Hits())
	assert.NotNil(t, NewRanker(5).Hits())

	r := NewRanker(0)
	r.Add(hit("a", 1))
	assert.Empty(t, r.Hits())
}

func TestCheckRecords(t *testing.T) {
	rec := func(id, doc string, v ...float32) domain.VectorRecord {
		return domain.VectorRecord{Chunk: domain.Chunk{ID: id, DocumentID: doc}, Vector: v}
	}

	dims, err := CheckRecords([]domain.VectorRecord{rec("a", "d", 1, 2), rec("b", "d", 3, 4)}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, dims)

	_, err = CheckRecords([]domain.VectorRecord{rec("a", "d", 1, 2, 3)}, 2)
	assert.True(t, errors.Is(err, domain.ErrIndex))

	_, err = CheckRecords([]domain.VectorRecord{rec("", "d", 1)}, 0)
	assert.ErrorIs(t, err, domain.ErrIndex)

	_, err = CheckRecords([]domain.VectorRecord{rec("a", "", 1)}, 0)
	assert.ErrorIs(t, err, domain.ErrIndex)

	_, err = CheckRecords([]domain.VectorRecord{rec("a", "d")}, 0)
	assert.ErrorIs(t, err, domain.ErrIndex)
}

func TestCheckQuery(t *testing.T) {
	assert.NoError(t, CheckQuery([]float32{1}, 0))
	assert.NoError(t, CheckQuery([]float32{1, 2}, 2))
	assert.ErrorIs(t, CheckQuery(nil, 2), domain.ErrIndex)
	assert.ErrorIs(t, CheckQuery([]float32{1}, 2), domain.ErrIndex)
}

func TestEncodeDecodeVector(t *testing.T) {
	v := []float32{0, 1.5, -2.25, math.MaxFloat32}
	assert.Equal(t, v, DecodeVector(EncodeVector(v)))
	assert.Nil(t, EncodeVector(nil))
	assert.Nil(t, DecodeVector(nil))
}
