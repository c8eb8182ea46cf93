package domain

import "time"

// IngestState is a step of the per-document ingestion lifecycle.
type IngestState string

// Ingestion states in lifecycle order. Failed is reachable from any state.
const (
	StateDiscovered IngestState = "discovered"
	StateExtracted  IngestState = "extracted"
	StateChunked    IngestState = "chunked"
	StateEmbedded   IngestState = "embedded"
	StateIndexed    IngestState = "indexed"
	StateDone       IngestState = "done"
	StateFailed     IngestState = "failed"
)

var nextState = map[IngestState]IngestState{
	StateDiscovered: StateExtracted,
	StateExtracted:  StateChunked,
	StateChunked:    StateEmbedded,
	StateEmbedded:   StateIndexed,
	StateIndexed:    StateDone,
}

// IsValid returns true if the state is recognised.
func (s IngestState) IsValid() bool {
	_, ok := nextState[s]
	return ok || s == StateDone || s == StateFailed
}

// IsTerminal reports whether no further transition is allowed.
func (s IngestState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether moving from s to to is legal.
func (s IngestState) CanTransition(to IngestState) bool {
	if s.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return nextState[s] == to
}

// String returns the string representation.
func (s IngestState) String() string {
	return string(s)
}

// IngestRecord is the registry's view of a document's last ingestion.
type IngestRecord struct {
	DocumentID  string
	Path        string
	Title       string
	Labels      []string
	ContentHash string
	ConfigHash  string
	State       IngestState
	Reason      string
	ChunkCount  int
	TextLength  int
	UpdatedAt   time.Time
}

// IsCurrent reports whether the record describes a finished ingestion of
// exactly this content under exactly this configuration.
func (r *IngestRecord) IsCurrent(contentHash, configHash string) bool {
	return r != nil &&
		r.State == StateDone &&
		r.ContentHash == contentHash &&
		r.ConfigHash == configHash
}

// DocumentOutcome is the per-document line of a BatchResult.
type DocumentOutcome struct {
	DocumentID string
	Path       string
	State      IngestState

	// Reason is set when State is StateFailed.
	Reason string

	// Skipped is true when unchanged content and configuration made the run a no-op.
	Skipped bool

	Chunks   int
	Duration time.Duration
}

// BatchResult summarises an ingestion run.
type BatchResult struct {
	RunID    string
	Outcomes []DocumentOutcome
	Started  time.Time
	Finished time.Time
}

// Done returns the outcomes that reached StateDone, including skipped ones.
func (b *BatchResult) Done() []DocumentOutcome {
	return b.filter(func(o DocumentOutcome) bool { return o.State == StateDone })
}

// Failed returns the outcomes that ended in StateFailed.
func (b *BatchResult) Failed() []DocumentOutcome {
	return b.filter(func(o DocumentOutcome) bool { return o.State == StateFailed })
}

// Skipped returns the outcomes that were no-ops.
func (b *BatchResult) Skipped() []DocumentOutcome {
	return b.filter(func(o DocumentOutcome) bool { return o.Skipped })
}

// Duration returns the wall-clock time of the run.
func (b *BatchResult) Duration() time.Duration {
	return b.Finished.Sub(b.Started)
}

func (b *BatchResult) filter(keep func(DocumentOutcome) bool) []DocumentOutcome {
	var out []DocumentOutcome
	for _, o := range b.Outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
