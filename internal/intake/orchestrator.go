// Package intake drives one interview turn at a time: it sends the
// conversation to the model, merges extracted profile fields and decides
// when to hand over to question generation.
package intake

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/talentscout/intake-assistant/internal/ai"
	"github.com/talentscout/intake-assistant/internal/contract"
	"github.com/talentscout/intake-assistant/internal/logger"
	"github.com/talentscout/intake-assistant/internal/questions"
	"github.com/talentscout/intake-assistant/internal/session"
)

// FallbackMessage is shown when the model response fails the contract.
// The turn is consumed but the profile stays untouched, so the candidate
// only needs to repeat their last answer.
const FallbackMessage = "I apologize for the technical issue. Could you please repeat your last answer?"

const (
	defaultHistoryWindow = 5
	defaultMaxLogLength  = 200
)

// questionGenerator is satisfied by questions.Generator.
type questionGenerator interface {
	Generate(ctx context.Context, techStack, experience string) ([]string, error)
}

// Interviewer processes user turns against a session.
type Interviewer struct {
	completer     ai.Completer
	questions     questionGenerator
	logger        *zap.Logger
	historyWindow int
	maxLogLen     int
}

// New creates an Interviewer. A non-positive history window or log
// length falls back to the defaults.
func New(completer ai.Completer, generator *questions.Generator, log *zap.Logger, historyWindow, maxLogLength int) *Interviewer {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Interviewer{
		completer:     completer,
		questions:     generator,
		logger:        logger.WithFields(log),
		historyWindow: historyWindow,
		maxLogLen:     maxLogLength,
	}
}

// SubmitUserTurn processes one user input and returns the assistant
// messages produced in response, already appended to the session
// history. A completed session ignores further input.
//
// Any contract violation in the model response consumes the turn with a
// fallback message and leaves the profile unchanged. The error return is
// reserved for hard failures such as a cancelled context.
func (iv *Interviewer) SubmitUserTurn(ctx context.Context, s *session.Session, input string) ([]string, error) {
	if s.Complete {
		return nil, nil
	}

	s.AppendTurn(session.RoleUser, input)

	if session.IsFarewell(input) {
		iv.logger.Info("farewell detected, terminating session")
		s.Terminate()
		return []string{session.FarewellMessage}, nil
	}

	prompt := iv.buildPrompt(s, input)

	iv.logger.Debug("interview turn request",
		zap.Int("history_length", len(s.History)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, iv.maxLogLen)),
	)

	raw, err := iv.completer.Complete(ctx, systemPrompt, prompt, ai.Options{JSONMode: true})
	if err != nil {
		return nil, fmt.Errorf("interview completion: %w", err)
	}

	result, violation := contract.DecodeExtraction(raw)
	if violation != nil {
		iv.logger.Warn("model response failed contract",
			zap.String("reason", violation.Message),
			zap.String("exception", violation.Exception),
			zap.String("original", logger.TruncateForLog(violation.Original, iv.maxLogLen)),
		)
		s.AppendTurn(session.RoleAssistant, FallbackMessage)
		return []string{FallbackMessage}, nil
	}

	if applied := s.Profile.Apply(result.Fields()); len(applied) > 0 {
		fields := make([]string, 0, len(applied))
		for _, f := range applied {
			fields = append(fields, string(f))
		}
		iv.logger.Debug("profile fields updated", zap.Strings("fields", fields))
	}

	s.AppendTurn(session.RoleAssistant, result.Response)
	messages := []string{result.Response}

	if qs := iv.maybeGenerateQuestions(ctx, s, result); qs != "" {
		messages = append(messages, qs)
	}

	return messages, nil
}

// maybeGenerateQuestions runs the one-shot question step when the model
// signals readiness, the tech stack is known and questions have not been
// asked yet. Generation failures leave the gate open so a later turn can
// retry.
func (iv *Interviewer) maybeGenerateQuestions(ctx context.Context, s *session.Session, result *contract.ExtractionResult) string {
	if !result.GenerateTechnicalQuestions || s.QuestionsAsked || s.Profile.TechStack == "" {
		return ""
	}

	qs, err := iv.questions.Generate(ctx, s.Profile.TechStack, s.Profile.Experience)
	if err != nil {
		iv.logger.Warn("question generation failed", zap.Error(err))
		return ""
	}

	message := questions.Format(qs)
	s.AppendTurn(session.RoleAssistant, message)
	s.QuestionsAsked = true

	iv.logger.Info("technical questions asked", zap.Int("count", len(qs)))
	return message
}

// buildPrompt assembles the turn prompt from the recent history window.
// The window excludes the just-appended user turn, which is passed in
// its own prompt section instead.
func (iv *Interviewer) buildPrompt(s *session.Session, input string) string {
	window := s.LastTurns(iv.historyWindow)
	if len(window) > 0 {
		window = window[:len(window)-1]
	}
	return buildTurnPrompt(window, &s.Profile, input, s.QuestionsAsked)
}
