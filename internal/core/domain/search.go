package domain

import "strings"

// SearchOptions configures a retrieval.
// Zero values fall back to the configured defaults.
type SearchOptions struct {
	// Limit is the maximum number of hits (top-k).
	Limit int

	// MinScore drops hits below this similarity when non-nil.
	MinScore *float64

	// Labels restricts hits to chunks carrying every label.
	Labels []string

	// DocumentIDs restricts hits to these documents.
	DocumentIDs []string
}

// Filter returns the index filter for the options, or nil when unrestricted.
func (o SearchOptions) Filter() *SearchFilter {
	if len(o.Labels) == 0 && len(o.DocumentIDs) == 0 {
		return nil
	}
	return &SearchFilter{DocumentIDs: o.DocumentIDs, Labels: o.Labels}
}

// VectorRecord is one entry of the vector index: a chunk and its embedding.
type VectorRecord struct {
	Chunk  Chunk
	Vector []float32
}

// SearchFilter narrows a similarity search.
// A nil filter matches everything.
type SearchFilter struct {
	// DocumentIDs restricts hits to these documents.
	DocumentIDs []string

	// Labels requires every label to be present on the chunk.
	Labels []string
}

// Matches reports whether a chunk passes the filter.
func (f *SearchFilter) Matches(c *Chunk) bool {
	if f == nil {
		return true
	}
	if len(f.DocumentIDs) > 0 && !containsString(f.DocumentIDs, c.DocumentID) {
		return false
	}
	for _, want := range f.Labels {
		if !containsFold(c.Labels, want) {
			return false
		}
	}
	return true
}

// Hit is a chunk with its similarity to the query.
type Hit struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is the ranked set of chunks for one query.
// Hits are ordered by descending score, ties by ascending chunk ID.
type RetrievalResult struct {
	Query string
	Hits  []Hit
}

// IsEmpty reports whether no relevant context was found.
func (r *RetrievalResult) IsEmpty() bool {
	return r == nil || len(r.Hits) == 0
}

// HitLess is the canonical result ordering.
func HitLess(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Chunk.ID < b.Chunk.ID
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
