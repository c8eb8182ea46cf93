package driven

// Prompt names understood by PromptStore.
const (
	// PromptAnswer is the instruction block placed before the context sources.
	PromptAnswer = "answer"
)

// PromptStore loads user-editable prompt templates.
type PromptStore interface {
	// Load returns the template for name, falling back to the built-in default.
	Load(name string) (string, error)
}
