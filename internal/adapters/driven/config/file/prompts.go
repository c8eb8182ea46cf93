package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves the synthesis prompt from <dir>/<name>.txt, falling
// back to the built-in German instructions. Nothing touches the disk until
// the first Load.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts seed the prompt directory and answer when a file is missing.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: `Du bist ein hilfreicher Assistent für Studierende der Universität Leipzig.
Beantworte die Frage ausschließlich auf Grundlage der unten aufgeführten Quellen aus den Studien- und Prüfungsordnungen.

WICHTIGE REGELN:
1. Beantworte nur Fragen, die sich aus den Quellen beantworten lassen.
2. Wenn die Quellen keine ausreichenden Informationen enthalten, sage ehrlich "Ich kann diese Frage nicht basierend auf den verfügbaren Dokumenten beantworten".
3. Belege jede Aussage mit der Nummer der Quelle in eckigen Klammern, zum Beispiel [Quelle 2].
4. Antworte in der Sprache der Frage und sei präzise.`,
}

// DefaultPromptDir is used when no directory is given.
const DefaultPromptDir = "data/prompts"

// NewPromptStore returns a store rooted at promptDir, or DefaultPromptDir when empty.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		promptDir = DefaultPromptDir
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt called name. The first call creates the directory
// and writes the defaults that are not there yet.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if text, ok := defaultPrompts[name]; ok {
			return text, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	if text, ok := s.cached(name); ok {
		return text, nil
	}

	text, err := s.loadFromFile(name)
	switch {
	case err == nil && text == "":
		// An emptied file means "use the default".
		if def, ok := defaultPrompts[name]; ok {
			text = def
		}
	case err != nil:
		def, ok := defaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		return def, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[name]; ok {
		return existing, nil
	}
	s.cache[name] = text
	return text, nil
}

func (s *PromptStore) cached(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.cache[name]
	return text, ok
}

// Reload drops cached prompts so edited files are read again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, content := range defaultPrompts {
		if err := writeIfMissing(filepath.Join(s.promptDir, name+".txt"), content); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}
	s.initErr = writeIfMissing(filepath.Join(s.promptDir, "README.md"), promptReadme)
}

// writeIfMissing never overwrites an edited file.
func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

const promptReadme = `# regelrag prompts

This directory holds the prompts regelrag sends to the LLM.

## Files

- ` + "`answer.txt`" + ` - Instructions placed before the numbered sources of every question

## Customisation

Edit a file to change how answers are phrased. Changes take effect on the next
command. Delete a file to restore the built-in default.

Keep the instruction to cite sources as [Quelle N]: citations are only shown
for markers that appear in the answer.
`
