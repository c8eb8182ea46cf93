// Package vectorindex holds the similarity and ranking rules shared by the
// vector index backends in its subpackages.
//
// Every backend scores with cosine similarity and orders hits with
// domain.HitLess, so switching index.backend never changes result order.
package vectorindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b.
// Zero-norm vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Ranker keeps the best k hits seen so far.
type Ranker struct {
	k    int
	hits []domain.Hit
}

// NewRanker creates a ranker for at most k hits.
func NewRanker(k int) *Ranker {
	return &Ranker{k: k}
}

// Add offers a hit. Once the ranker holds 2k hits it compacts to the best k.
func (r *Ranker) Add(hit domain.Hit) {
	if r.k <= 0 {
		return
	}
	r.hits = append(r.hits, hit)
	if len(r.hits) >= 2*r.k {
		r.compact()
	}
}

// Hits returns the ranked hits, best first.
func (r *Ranker) Hits() []domain.Hit {
	r.compact()
	if r.hits == nil {
		return []domain.Hit{}
	}
	return r.hits
}

func (r *Ranker) compact() {
	slices.SortFunc(r.hits, func(a, b domain.Hit) int {
		switch {
		case domain.HitLess(a, b):
			return -1
		case domain.HitLess(b, a):
			return 1
		default:
			return 0
		}
	})
	if len(r.hits) > r.k {
		r.hits = r.hits[:r.k]
	}
}

// CheckRecords validates a batch before it is written.
// dims is the collection's dimension, or 0 when the collection is empty.
// It returns the dimension the batch uses.
func CheckRecords(records []domain.VectorRecord, dims int) (int, error) {
	for _, rec := range records {
		if rec.Chunk.ID == "" {
			return 0, fmt.Errorf("%w: record without chunk id", domain.ErrIndex)
		}
		if rec.Chunk.DocumentID == "" {
			return 0, fmt.Errorf("%w: chunk %s has no document id", domain.ErrIndex, rec.Chunk.ID)
		}
		if len(rec.Vector) == 0 {
			return 0, fmt.Errorf("%w: chunk %s has an empty vector", domain.ErrIndex, rec.Chunk.ID)
		}
		if dims == 0 {
			dims = len(rec.Vector)
		}
		if len(rec.Vector) != dims {
			return 0, fmt.Errorf("%w: chunk %s has %d dimensions, collection uses %d",
				domain.ErrIndex, rec.Chunk.ID, len(rec.Vector), dims)
		}
	}
	return dims, nil
}

// CheckQuery validates a query vector against the collection dimension.
func CheckQuery(query []float32, dims int) error {
	if len(query) == 0 {
		return fmt.Errorf("%w: empty query vector", domain.ErrIndex)
	}
	if dims != 0 && len(query) != dims {
		return fmt.Errorf("%w: query has %d dimensions, collection uses %d", domain.ErrIndex, len(query), dims)
	}
	return nil
}

// EncodeVector converts a vector to little-endian bytes for storage.
func EncodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector converts stored bytes back to a vector.
func DecodeVector(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
