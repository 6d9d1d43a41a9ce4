package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talentscout/intake-assistant/internal/profile"
	"github.com/talentscout/intake-assistant/internal/session"
)

func testProfile() *profile.CandidateProfile {
	return &profile.CandidateProfile{
		Name:            "Jordan Reyes",
		Email:           "jordan.reyes@example.com",
		Phone:           "+1 (555) 010-0199",
		Experience:      "5",
		DesiredPosition: "Backend Engineer",
		Location:        "Lisbon",
		TechStack:       "Go, PostgreSQL, Docker",
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	s, err := New(t.TempDir(), key, nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return s
}

func TestStoreSaveAndLoadRoundtrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	p := testProfile()
	history := []session.Turn{
		{Role: session.RoleAssistant, Content: session.WelcomeMessage},
		{Role: session.RoleUser, Content: "Hi, I'm Jordan Reyes"},
	}

	path, err := s.Save(p, history)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "candidate_") || !strings.HasSuffix(base, ".json") {
		t.Fatalf("unexpected file name: %q", base)
	}

	fileID := strings.TrimSuffix(strings.TrimPrefix(base, "candidate_"), ".json")
	record, err := s.Load(fileID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if record.DataVersion != DataVersion {
		t.Fatalf("unexpected data version: %q", record.DataVersion)
	}
	if record.Timestamp == "" {
		t.Fatal("expected timestamp to be set")
	}
	if len(record.ConversationHistory) != len(history) {
		t.Fatalf("expected %d history turns, got %d", len(history), len(record.ConversationHistory))
	}

	info := s.DecryptInfo(record)
	if info["name"] != p.Name || info["email"] != p.Email || info["phone"] != p.Phone {
		t.Fatalf("decrypted info mismatch: %v", info)
	}
	if info["tech_stack"] != p.TechStack {
		t.Fatalf("non-sensitive field changed: %q", info["tech_stack"])
	}
}

func TestStoreEncryptsSensitiveFieldsOnDisk(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	p := testProfile()

	path, err := s.Save(p, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved record: %v", err)
	}

	raw := string(data)
	for _, plaintext := range []string{p.Name, p.Email, p.Phone} {
		if strings.Contains(raw, plaintext) {
			t.Fatalf("sensitive value %q stored in plaintext", plaintext)
		}
	}
	// Non-sensitive fields stay readable.
	if !strings.Contains(raw, p.TechStack) {
		t.Fatalf("tech stack should not be encrypted: %s", raw)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("parse record: %v", err)
	}
	if record.EncryptedCandidateInfo["experience"] != p.Experience {
		t.Fatalf("experience should be stored as is, got %q", record.EncryptedCandidateInfo["experience"])
	}
}

func TestStoreSameEmailOverwritesRecord(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	p := testProfile()

	first, err := s.Save(p, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	p.Location = "Porto"
	second, err := s.Save(p, nil)
	if err != nil {
		t.Fatalf("save again: %v", err)
	}

	if first != second {
		t.Fatalf("expected stable path for the same email, got %q and %q", first, second)
	}

	entries, err := os.ReadDir(filepath.Dir(first))
	if err != nil {
		t.Fatalf("read data dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single record file, got %d", len(entries))
	}
}

func TestStoreAcceptsPassphraseKeys(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), []byte("not a real key"), nil)
	if err != nil {
		t.Fatalf("create store with passphrase: %v", err)
	}

	p := testProfile()
	path, err := s.Save(p, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	base := filepath.Base(path)
	fileID := strings.TrimSuffix(strings.TrimPrefix(base, "candidate_"), ".json")
	record, err := s.Load(fileID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	info := s.DecryptInfo(record)
	if info["email"] != p.Email {
		t.Fatalf("decryption failed with passphrase key: %v", info)
	}
}

func TestDecryptInfoPassesThroughPlaintext(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	record := &Record{
		EncryptedCandidateInfo: map[string]string{
			"name":  "Stored Before Encryption",
			"email": "plain@example.com",
		},
	}

	info := s.DecryptInfo(record)
	if info["name"] != "Stored Before Encryption" {
		t.Fatalf("plaintext value must pass through, got %q", info["name"])
	}
	if info["email"] != "plain@example.com" {
		t.Fatalf("plaintext value must pass through, got %q", info["email"])
	}
}

func TestCandidateID(t *testing.T) {
	t.Parallel()

	a := CandidateID("jordan@example.com")
	b := CandidateID("jordan@example.com")
	if a != b {
		t.Fatalf("expected stable id for the same email, got %q and %q", a, b)
	}
	if len(a) != anonymousIDLength {
		t.Fatalf("unexpected id length: %q", a)
	}

	c := CandidateID("other@example.com")
	if a == c {
		t.Fatalf("expected distinct ids for distinct emails")
	}

	r1 := CandidateID("")
	r2 := CandidateID("")
	if r1 == r2 {
		t.Fatal("expected random ids without an email")
	}
}

func TestAnonymize(t *testing.T) {
	t.Parallel()

	p := testProfile()
	view := Anonymize(p)

	id := view["anonymous_id"]
	if len(id) != anonymousIDLength {
		t.Fatalf("unexpected anonymous id: %q", id)
	}
	if view["name"] != "Candidate-"+id {
		t.Fatalf("unexpected anonymized name: %q", view["name"])
	}
	if view["email"] != "j**********s@example.com" {
		t.Fatalf("unexpected masked email: %q", view["email"])
	}
	if !strings.HasSuffix(view["phone"], "99") || strings.ContainsAny(view["phone"], "015 ()-+") {
		t.Fatalf("unexpected masked phone: %q", view["phone"])
	}
	if view["tech_stack"] != p.TechStack || view["location"] != p.Location {
		t.Fatalf("non-identifying fields must stay readable: %v", view)
	}
}

func TestMaskHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "email", got: maskEmail("jordan@example.com"), want: "j****n@example.com"},
		{name: "short email local part", got: maskEmail("jo@example.com"), want: "jo@example.com"},
		{name: "not an email", got: maskEmail("no-at-sign"), want: "no-at-sign"},
		{name: "phone", got: maskPhone("+1 (555) 010-0199"), want: "*********99"},
		{name: "short phone", got: maskPhone("42"), want: "42"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
