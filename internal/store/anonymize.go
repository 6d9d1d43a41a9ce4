package store

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/talentscout/intake-assistant/internal/profile"
)

const anonymousIDLength = 10

// CandidateID derives a stable identifier from the candidate's email.
// Without an email a random identifier is generated, so repeated saves
// of an email-less profile land in separate records.
func CandidateID(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	hash := sha256.Sum256([]byte(email))
	return fmt.Sprintf("%x", hash)[:anonymousIDLength]
}

// Anonymize builds the analysis view of a profile: identifying fields
// are masked or replaced while experience, position, location and tech
// stack stay readable.
func Anonymize(p *profile.CandidateProfile) map[string]string {
	anonymousID := CandidateID(p.Email)
	if len(anonymousID) > anonymousIDLength {
		anonymousID = anonymousID[:anonymousIDLength]
	}

	view := profileMap(p)
	view["anonymous_id"] = anonymousID

	if p.Name != "" {
		view[string(profile.FieldName)] = "Candidate-" + anonymousID
	}
	if p.Email != "" {
		view[string(profile.FieldEmail)] = maskEmail(p.Email)
	}
	if p.Phone != "" {
		view[string(profile.FieldPhone)] = maskPhone(p.Phone)
	}

	return view
}

// maskEmail keeps the first and last character of the local part and
// the full domain. Addresses too short to mask are returned unchanged.
func maskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	if !found || len(local) < 3 {
		return email
	}
	return fmt.Sprintf("%c%s%c@%s",
		local[0],
		strings.Repeat("*", len(local)-2),
		local[len(local)-1],
		domain,
	)
}

// maskPhone keeps only the last two digits, dropping any formatting.
func maskPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) <= 2 {
		return d
	}
	return strings.Repeat("*", len(d)-2) + d[len(d)-2:]
}

func profileMap(p *profile.CandidateProfile) map[string]string {
	m := make(map[string]string, len(profile.Order))
	for _, f := range profile.Order {
		m[string(f)] = p.Get(f)
	}
	return m
}
