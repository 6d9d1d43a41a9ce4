// Package session owns the conversational state of a single intake
// interview: the candidate profile, the ordered turn history and the
// lifecycle flags.
package session

import (
	"strings"

	"github.com/talentscout/intake-assistant/internal/profile"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// WelcomeMessage opens every session as the first assistant turn.
	WelcomeMessage = "Hello! I'm the TalentScout Hiring Assistant. I'll help gather some information " +
		"about your profile and ask a few technical questions to match you with the right opportunities. " +
		"Let's start with your full name."

	// FarewellMessage is appended when the candidate signs off.
	FarewellMessage = "Thank you for chatting with TalentScout's Hiring Assistant! Your information has " +
		"been saved. Our recruitment team will review your profile and get back to you soon. Have a great day!"
)

// farewellTokens end the session when found anywhere in a user turn,
// case-insensitively. Substring matching is intentional so that quick
// sign-offs like "ok quit now" work.
var farewellTokens = []string{"bye", "goodbye", "exit", "quit", "end"}

// Turn is a single conversation entry. Only user and assistant roles
// exist; the system instruction is supplied per request, not stored.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the mutable state of one interview. It is confined to a
// single goroutine; turns are processed strictly one at a time.
type Session struct {
	Profile        profile.CandidateProfile
	History        []Turn
	QuestionsAsked bool
	Complete       bool

	checkpointed bool
}

// New creates a session seeded with the welcome turn.
func New() *Session {
	s := &Session{}
	s.AppendTurn(RoleAssistant, WelcomeMessage)
	return s
}

// AppendTurn records a turn. History is append-only and its order is
// the canonical conversation record.
func (s *Session) AppendTurn(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
}

// LastTurns returns the most recent n turns, fewer if the history is
// shorter. The returned slice aliases the history; callers must not
// modify it.
func (s *Session) LastTurns(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// IsFarewell reports whether the input contains a farewell token.
func IsFarewell(input string) bool {
	lowered := strings.ToLower(input)
	for _, token := range farewellTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

// Terminate marks the session complete and appends the farewell turn.
func (s *Session) Terminate() {
	s.Complete = true
	s.AppendTurn(RoleAssistant, FarewellMessage)
}

// CheckpointReady reports whether an intermediate save should happen:
// name and email are both known, the session is still running and no
// checkpoint has been taken yet.
func (s *Session) CheckpointReady() bool {
	if s.Complete || s.checkpointed {
		return false
	}
	return s.Profile.Name != "" && s.Profile.Email != ""
}

// MarkCheckpointed records that the intermediate save happened, making
// the checkpoint a one-shot event for the session.
func (s *Session) MarkCheckpointed() {
	s.checkpointed = true
}
