package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrUpstream is returned when the completion API call does not succeed,
// whatever the cause (credentials, transport, non-success status, malformed
// or empty response). Callers must not persist anything when they see it.
var ErrUpstream = errors.New("summarization upstream failed")

// SummaryTemperature is the fixed sampling temperature for summarization.
// Low on purpose: summaries should be faithful, not creative.
const SummaryTemperature = 0.2

const summarySystemPrompt = "You are an assistant that produces clean, structured meeting summaries.\n" +
	"Return concise bullets, decisions, owners, and deadlines. " +
	"Keep action items clearly marked."

// Summarizer turns a transcript plus a caller instruction into a structured
// summary with a single blocking completion round trip. No retries, no
// caching, no streaming.
type Summarizer struct {
	llm Service
}

// NewSummarizer creates a Summarizer on top of an LLM service.
func NewSummarizer(llm Service) *Summarizer {
	return &Summarizer{llm: llm}
}

// Summarize sends the instruction and transcript to the completion API and
// returns the trimmed assistant content.
func (s *Summarizer) Summarize(ctx context.Context, instruction, transcript string) (string, error) {
	userPrompt := fmt.Sprintf(
		"Instruction: %s\n\nTranscript:\n%s\n\nReturn a structured summary with sections: Overview, Key Points, Decisions, Action Items, Risks.",
		instruction, transcript,
	)

	messages := []Message{
		SystemPrompt(summarySystemPrompt),
		UserMessage(userPrompt),
	}

	content, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: blank completion content", ErrUpstream)
	}
	return content, nil
}
