package session

import "testing"

func TestIsFarewell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect bool
	}{
		{name: "bare token", input: "quit", expect: true},
		{name: "token inside sentence", input: "ok quit now", expect: true},
		{name: "mixed case", input: "GoodBye everyone", expect: true},
		{name: "substring match", input: "goodbye for now", expect: true},
		{name: "token embedded in word", input: "I am attending the weekend event", expect: true},
		{name: "regular answer", input: "My name is Jane Doe", expect: false},
		{name: "empty input", input: "", expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsFarewell(tt.input); got != tt.expect {
				t.Fatalf("IsFarewell(%q) = %v, expected %v", tt.input, got, tt.expect)
			}
		})
	}
}

func TestNewSeedsWelcomeTurn(t *testing.T) {
	t.Parallel()

	s := New()
	if len(s.History) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(s.History))
	}
	if s.History[0].Role != RoleAssistant || s.History[0].Content != WelcomeMessage {
		t.Fatalf("unexpected opening turn: %+v", s.History[0])
	}
	if s.Complete || s.QuestionsAsked {
		t.Fatalf("fresh session has lifecycle flags set: %+v", s)
	}
}

func TestTerminateAppendsFarewell(t *testing.T) {
	t.Parallel()

	s := New()
	s.AppendTurn(RoleUser, "bye")
	s.Terminate()

	if !s.Complete {
		t.Fatalf("expected session to be complete")
	}
	last := s.History[len(s.History)-1]
	if last.Role != RoleAssistant || last.Content != FarewellMessage {
		t.Fatalf("unexpected final turn: %+v", last)
	}
}

func TestLastTurnsWindow(t *testing.T) {
	t.Parallel()

	s := New()
	s.AppendTurn(RoleUser, "one")
	s.AppendTurn(RoleAssistant, "two")
	s.AppendTurn(RoleUser, "three")

	turns := s.LastTurns(2)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "two" || turns[1].Content != "three" {
		t.Fatalf("unexpected window: %+v", turns)
	}

	if got := s.LastTurns(100); len(got) != len(s.History) {
		t.Fatalf("expected full history, got %d turns", len(got))
	}
	if got := s.LastTurns(0); got != nil {
		t.Fatalf("expected nil for non-positive window, got %+v", got)
	}
}

func TestCheckpointIsOneShot(t *testing.T) {
	t.Parallel()

	s := New()
	if s.CheckpointReady() {
		t.Fatalf("empty session must not be checkpoint ready")
	}

	s.Profile.Name = "Jane Doe"
	if s.CheckpointReady() {
		t.Fatalf("name alone must not trigger a checkpoint")
	}

	s.Profile.Email = "jane@example.com"
	if !s.CheckpointReady() {
		t.Fatalf("expected checkpoint once name and email are known")
	}

	s.MarkCheckpointed()
	if s.CheckpointReady() {
		t.Fatalf("checkpoint fired twice")
	}
}

func TestCheckpointNotReadyAfterComplete(t *testing.T) {
	t.Parallel()

	s := New()
	s.Profile.Name = "Jane Doe"
	s.Profile.Email = "jane@example.com"
	s.Terminate()

	if s.CheckpointReady() {
		t.Fatalf("completed session must not be checkpoint ready")
	}
}
