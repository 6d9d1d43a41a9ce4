// Package store persists finished and in-progress interviews as JSON
// records. Identifying fields are encrypted at rest and every record
// carries an anonymized view for analysis without decryption.
package store

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/talentscout/intake-assistant/internal/logger"
	"github.com/talentscout/intake-assistant/internal/profile"
	"github.com/talentscout/intake-assistant/internal/session"
)

// DataVersion marks the record layout for future migrations.
const DataVersion = "1.0"

// sensitiveFields are encrypted at rest.
var sensitiveFields = []profile.Field{
	profile.FieldName,
	profile.FieldEmail,
	profile.FieldPhone,
}

// Record is the on-disk layout of one saved interview.
type Record struct {
	Timestamp               string            `json:"timestamp"`
	DataVersion             string            `json:"data_version"`
	EncryptedCandidateInfo  map[string]string `json:"encrypted_candidate_info"`
	AnonymizedCandidateInfo map[string]string `json:"anonymized_candidate_info"`
	ConversationHistory     []session.Turn    `json:"conversation_history,omitempty"`
}

// Store writes candidate records under a single directory.
type Store struct {
	dir    string
	aead   cipher.AEAD
	logger *zap.Logger
	now    func() time.Time
}

// GenerateKey returns a fresh random encryption key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate encryption key: %w", err)
	}
	return key, nil
}

// New creates a Store rooted at dir. Keys of any length are accepted:
// anything that is not already the cipher's key size is stretched
// through SHA-256, so a passphrase from a key file works as-is.
func New(dir string, key []byte, log *zap.Logger) (*Store, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("encryption key is required")
	}
	if len(key) != chacha20poly1305.KeySize {
		derived := sha256.Sum256(key)
		key = derived[:]
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &Store{
		dir:    dir,
		aead:   aead,
		logger: logger.WithFields(log),
		now:    time.Now,
	}, nil
}

// Save writes the profile and conversation history as one record and
// returns the file path. The file name is derived from the email hash,
// so saving the same candidate again overwrites their previous record.
func (s *Store) Save(p *profile.CandidateProfile, history []session.Turn) (string, error) {
	record := Record{
		Timestamp:               s.now().Format(time.RFC3339),
		DataVersion:             DataVersion,
		EncryptedCandidateInfo:  s.encryptInfo(profileMap(p)),
		AnonymizedCandidateInfo: Anonymize(p),
		ConversationHistory:     history,
	}

	fileID := CandidateID(p.Email)
	path := filepath.Join(s.dir, fmt.Sprintf("candidate_%s.json", fileID))

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidate record: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write candidate record: %w", err)
	}

	s.logger.Debug("candidate record saved",
		zap.String("path", path),
		zap.Int("history_turns", len(history)),
	)

	return path, nil
}

// Load reads a record by its file identifier.
func (s *Store) Load(fileID string) (*Record, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("candidate_%s.json", fileID))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidate record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse candidate record: %w", err)
	}
	return &record, nil
}

// DecryptInfo restores the plaintext candidate info from a record.
// Values that do not decrypt are passed through unchanged, so records
// written before encryption was enabled stay readable.
func (s *Store) DecryptInfo(record *Record) map[string]string {
	info := make(map[string]string, len(record.EncryptedCandidateInfo))
	for key, value := range record.EncryptedCandidateInfo {
		info[key] = value
	}

	for _, f := range sensitiveFields {
		key := string(f)
		value, ok := info[key]
		if !ok || value == "" {
			continue
		}
		if plain, ok := s.decryptValue(value); ok {
			info[key] = plain
		}
	}
	return info
}

func (s *Store) encryptInfo(info map[string]string) map[string]string {
	encrypted := make(map[string]string, len(info))
	for key, value := range info {
		encrypted[key] = value
	}

	for _, f := range sensitiveFields {
		key := string(f)
		if value, ok := encrypted[key]; ok && value != "" {
			encrypted[key] = s.encryptValue(value)
		}
	}
	return encrypted
}

func (s *Store) encryptValue(plain string) string {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		// rand.Read only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("read random nonce: %v", err))
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed)
}

func (s *Store) decryptValue(value string) (string, bool) {
	sealed, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(sealed) < s.aead.NonceSize() {
		return "", false
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}
