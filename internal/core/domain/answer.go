package domain

// NoContextAnswer is returned without calling the LLM when retrieval finds nothing.
const NoContextAnswer = "Entschuldigung, ich konnte keine relevanten Dokumente zu Ihrer Frage finden."

// SampleQuestion is the smoke-test question used by `ask --sample`.
const SampleQuestion = "Wie lange dauert das Masterstudium?"

// Answer is the result of a question.
type Answer struct {
	// Question is the question as asked.
	Question string

	// Text is the generated answer.
	Text string

	// Citations lists the sources referenced in Text, in order of first use.
	Citations []Citation

	// NoContext is true when retrieval found nothing and the LLM was not called.
	NoContext bool

	// Model is the LLM that produced Text.
	Model string

	// Retrieved is the number of chunks offered to the LLM.
	Retrieved int
}

// Citation points from answer text back to the chunk that grounded it.
type Citation struct {
	// Marker is the number used in the answer text, e.g. 2 for "[Quelle 2]".
	Marker int

	ChunkID    string
	DocumentID string
	Path       string
	Filename   string
	Title      string
	Labels     []string
	Page       int
	Section    string

	// Start and End are the rune offsets of the chunk in its document.
	Start int
	End   int

	// Score is the retrieval similarity of the chunk.
	Score float64
}
