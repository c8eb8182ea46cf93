package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Synthesizer turns retrieved chunks into a cited answer.
type Synthesizer struct {
	llm             driven.LLMService
	prompts         driven.PromptStore
	settings        domain.LLMSettings
	maxContextChars int
}

// NewSynthesizer creates a synthesizer. prompts may be nil.
func NewSynthesizer(
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.LLMSettings,
	synthesis domain.SynthesisSettings,
) *Synthesizer {
	return &Synthesizer{
		llm:             llm,
		prompts:         prompts,
		settings:        settings,
		maxContextChars: synthesis.MaxContextChars,
	}
}

// Synthesize answers the question from the retrieval result.
// An empty result yields domain.NoContextAnswer without calling the LLM.
// LLM failures wrap domain.ErrGeneration and are not retried.
func (s *Synthesizer) Synthesize(
	ctx context.Context, question string, result *domain.RetrievalResult,
) (*domain.Answer, error) {
	if result.IsEmpty() {
		logger.Debug("No context retrieved, skipping generation")
		return &domain.Answer{
			Question:  question,
			Text:      domain.NoContextAnswer,
			NoContext: true,
		}, nil
	}
	if s.llm == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, domain.ErrLLMUnavailable)
	}

	prompt, offered, err := buildPrompt(s.instructions(), question, result.Hits, s.maxContextChars)
	if err != nil {
		return nil, err
	}
	logger.Debug("Prompt has %d runes, %d of %d sources", len([]rune(prompt)), offered, len(result.Hits))

	if timeout := s.settings.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response from %s", domain.ErrGeneration, s.llm.ModelName())
	}

	return &domain.Answer{
		Question:  question,
		Text:      text,
		Citations: extractCitations(text, result.Hits, offered),
		Model:     s.llm.ModelName(),
		Retrieved: offered,
	}, nil
}

func (s *Synthesizer) instructions() string {
	if s.prompts == nil {
		return fallbackInstructions
	}
	text, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Warn("Using built-in answer prompt: %v", err)
		return fallbackInstructions
	}
	return text
}
