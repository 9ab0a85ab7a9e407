// Package assistant answers food and nutrition questions with an LLM, grounded
// on a small text knowledge base.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/franckalain/nutriscan/internal/apperr"
)

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const preamble = `You are a friendly nutrition assistant inside a food scanning app.
Answer briefly and practically. Use the reference notes below when they are relevant.
If a question is about a medical condition, suggest consulting a professional.`

// Assistant forwards user questions to a Generator
type Assistant struct {
	gen       Generator
	knowledge string
	logger    *slog.Logger
}

// New creates an assistant with the given knowledge base text
func New(gen Generator, knowledge string, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{gen: gen, knowledge: knowledge, logger: logger.With("component", "assistant")}
}

// Reply answers a single user message
func (a *Assistant) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.Validationf("message is required")
	}

	reply, err := a.gen.Generate(ctx, a.prompt(message))
	if err != nil {
		a.logger.Error("assistant generation failed", "error", err)
		return "", apperr.WrapUpstream("assistant is unavailable, please try again", err)
	}
	return strings.TrimSpace(reply), nil
}

func (a *Assistant) prompt(message string) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	if a.knowledge != "" {
		sb.WriteString("\n\nReference notes:\n")
		sb.WriteString(a.knowledge)
	}
	sb.WriteString("\n\nUser question: ")
	sb.WriteString(message)
	return sb.String()
}
