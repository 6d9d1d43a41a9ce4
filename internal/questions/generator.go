// Package questions generates technical screening questions from a
// candidate's declared tech stack.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/talentscout/intake-assistant/internal/ai"
	"github.com/talentscout/intake-assistant/internal/contract"
	"github.com/talentscout/intake-assistant/internal/logger"
)

//go:embed prompt.md
var promptTemplate string

const (
	// Heading introduces the question block in the conversation.
	Heading = "Based on your tech stack, here are some technical questions:"

	// FollowUp asks the candidate to answer the generated questions.
	FollowUp = "Please provide your answers to these questions. This will help us better understand your technical expertise."

	defaultMaxLogLength = 200
)

// Generator asks the model for screening questions tailored to a tech
// stack and experience level.
type Generator struct {
	completer ai.Completer
	logger    *zap.Logger
	maxLogLen int
}

// New creates a Generator on top of the given completer.
func New(completer ai.Completer, log *zap.Logger, maxLogLength int) *Generator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Generator{
		completer: completer,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

// Generate produces screening questions for the given tech stack. The
// experience is included verbatim so the model can pitch difficulty.
func (g *Generator) Generate(ctx context.Context, techStack, experience string) ([]string, error) {
	techStack = strings.TrimSpace(techStack)
	if techStack == "" {
		return nil, errors.New("tech stack is required")
	}

	prompt := buildQuestionsPrompt(techStack, experience)

	g.logger.Debug("question generation request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxLogLen)),
	)

	raw, err := g.completer.Complete(ctx, "", prompt, ai.Options{JSONMode: true})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	g.logger.Debug("question generation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, g.maxLogLen)),
	)

	qs := contract.ParseQuestions(raw)
	if len(qs) == 0 {
		return nil, errors.New("no questions in model response")
	}
	return qs, nil
}

// Format renders the questions as the assistant turn shown to the
// candidate: a heading, a numbered list, and a follow-up request.
func Format(qs []string) string {
	var builder strings.Builder
	builder.WriteString(Heading)
	builder.WriteString("\n\n")
	for i, q := range qs {
		builder.WriteString(fmt.Sprintf("%d. %s\n\n", i+1, strings.TrimSpace(q)))
	}
	builder.WriteString(FollowUp)
	return builder.String()
}

func buildQuestionsPrompt(techStack, experience string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Tech stack:\n{{TECH_STACK}}\n\nExperience: {{EXPERIENCE}} years\n\nJSON Response:"
	}
	if strings.TrimSpace(experience) == "" {
		experience = "unknown"
	}
	prompt := strings.ReplaceAll(template, "{{TECH_STACK}}", techStack)
	prompt = strings.ReplaceAll(prompt, "{{EXPERIENCE}}", experience)
	return prompt
}
