// Package profile holds the structured candidate record accumulated
// during an intake interview and the canonical order in which its
// fields are collected.
package profile

import (
	"fmt"
	"strings"
)

// Field identifies a single candidate profile field.
type Field string

const (
	FieldName            Field = "name"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldExperience      Field = "experience"
	FieldDesiredPosition Field = "desired_position"
	FieldLocation        Field = "location"
	FieldTechStack       Field = "tech_stack"
)

// Order is the canonical collection order. The assistant always asks
// for the earliest gap, so ordering here drives the whole interview.
var Order = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldExperience,
	FieldDesiredPosition,
	FieldLocation,
	FieldTechStack,
}

// CandidateProfile accumulates facts extracted from the conversation.
// An empty string means the field has not been collected yet.
type CandidateProfile struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Experience      string `json:"experience,omitempty"`
	DesiredPosition string `json:"desired_position,omitempty"`
	Location        string `json:"location,omitempty"`
	TechStack       string `json:"tech_stack,omitempty"`
}

// Get returns the current value for the given field, or the empty
// string for an unknown field name.
func (p *CandidateProfile) Get(f Field) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	case FieldExperience:
		return p.Experience
	case FieldDesiredPosition:
		return p.DesiredPosition
	case FieldLocation:
		return p.Location
	case FieldTechStack:
		return p.TechStack
	default:
		return ""
	}
}

func (p *CandidateProfile) set(f Field, value string) {
	switch f {
	case FieldName:
		p.Name = value
	case FieldEmail:
		p.Email = value
	case FieldPhone:
		p.Phone = value
	case FieldExperience:
		p.Experience = value
	case FieldDesiredPosition:
		p.DesiredPosition = value
	case FieldLocation:
		p.Location = value
	case FieldTechStack:
		p.TechStack = value
	}
}

// NextMissingField returns the first field in collection order that has
// no value yet. The second return value is false once every field is set.
func (p *CandidateProfile) NextMissingField() (Field, bool) {
	for _, f := range Order {
		if p.Get(f) == "" {
			return f, true
		}
	}
	return "", false
}

// AllCollected reports whether every field has a value.
func (p *CandidateProfile) AllCollected() bool {
	_, missing := p.NextMissingField()
	return !missing
}

// Summary renders the profile as "field: value" lines, one per field in
// collection order, using "unknown" for fields not collected yet. The
// result is embedded verbatim into the model prompt.
func (p *CandidateProfile) Summary() string {
	lines := make([]string, 0, len(Order))
	for _, f := range Order {
		value := p.Get(f)
		if value == "" {
			value = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", f, value))
	}
	return strings.Join(lines, "\n")
}

// Apply merges extracted values into the profile and returns the fields
// that were actually written. A value that is empty after trimming, or
// the literal strings "unknown"/"null", leaves the current value
// untouched. Anything else overwrites: the newest extraction wins.
// Keys that do not name a known field are ignored.
func (p *CandidateProfile) Apply(extracted map[string]string) []Field {
	var applied []Field
	for _, f := range Order {
		value, ok := extracted[string(f)]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || value == "unknown" || value == "null" {
			continue
		}
		p.set(f, value)
		applied = append(applied, f)
	}
	return applied
}
