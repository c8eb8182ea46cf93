package domain

// HealthStatus is the state of a single dependency.
type HealthStatus string

const (
	// HealthOK means the dependency answered.
	HealthOK HealthStatus = "ok"

	// HealthEmpty means the dependency answered but holds no data yet.
	HealthEmpty HealthStatus = "empty"

	// HealthUnavailable means the dependency could not be reached.
	HealthUnavailable HealthStatus = "unavailable"

	// HealthNotConfigured means no adapter is wired for the dependency.
	HealthNotConfigured HealthStatus = "not_configured"
)

// Component names used in HealthReport.
const (
	ComponentEmbedding   = "embedding"
	ComponentVectorIndex = "vector_index"
	ComponentLLM         = "llm"
	ComponentRegistry    = "registry"
)

// ComponentHealth is the status of one dependency.
type ComponentHealth struct {
	Name   string
	Status HealthStatus
	Detail string
}

// HealthReport is the structured result of a status check.
type HealthReport struct {
	Components []ComponentHealth

	EmbeddingModel string
	LLMModel       string
	Collection     string
	DataDir        string

	Documents int
	Chunks    int
}

// Component returns the entry for name, if present.
func (h *HealthReport) Component(name string) (ComponentHealth, bool) {
	for _, c := range h.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentHealth{}, false
}

// Ready reports whether questions can be answered from indexed documents.
func (h *HealthReport) Ready() bool {
	for _, c := range h.Components {
		if c.Status != HealthOK {
			return false
		}
	}
	return len(h.Components) > 0
}
