// Package contract validates model responses against the shapes the
// intake flow expects. Model output is untrusted: it may be fenced,
// carry malformed JSON or embed a transport error. Callers always get
// either a well-formed value or a Violation value, never a panic or an
// error escaping to the turn loop.
package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
)

// ParseFailedMessage is the Violation message used when model output
// cannot be repaired into valid JSON.
const ParseFailedMessage = "Failed to parse JSON response"

// Violation describes model output that failed the response contract.
// It is a value, not a Go error: turn handling degrades to a fallback
// message instead of failing.
type Violation struct {
	Message   string `json:"error"`
	Original  string `json:"original,omitempty"`
	Exception string `json:"exception,omitempty"`
}

// ExtractionResult is the contract for the main interview response.
type ExtractionResult struct {
	CandidateInfo              map[string]any `mapstructure:"candidate_info"`
	Response                   string         `mapstructure:"response"`
	GenerateTechnicalQuestions bool           `mapstructure:"generate_technical_questions"`
}

// Fields coerces the candidate_info payload into string values. Null
// entries are dropped, numbers and booleans are stringified so that a
// model answering `"experience": 5` still fills the field.
func (r *ExtractionResult) Fields() map[string]string {
	if len(r.CandidateInfo) == 0 {
		return nil
	}
	fields := make(map[string]string, len(r.CandidateInfo))
	for key, value := range r.CandidateInfo {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			fields[key] = v
		default:
			fields[key] = fmt.Sprintf("%v", v)
		}
	}
	return fields
}

// Parse attempts a strict JSON object parse of the raw model output,
// running the repair pipeline on failure. A transport failure embedded
// by the model-call boundary ({"error": "API Error: ..."}) parses
// successfully but is still reported as a Violation so every failure
// funnels through the same path.
func Parse(raw string) (map[string]any, *Violation) {
	var obj map[string]any
	firstErr := json.Unmarshal([]byte(raw), &obj)
	if firstErr != nil {
		repaired := Repair(raw)
		if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
			return nil, &Violation{
				Message:   ParseFailedMessage,
				Original:  raw,
				Exception: firstErr.Error(),
			}
		}
	}

	if embedded, ok := obj["error"].(string); ok && strings.TrimSpace(embedded) != "" {
		return nil, &Violation{Message: embedded, Original: raw}
	}

	return obj, nil
}

// DecodeExtraction parses and validates the main interview response.
// A missing candidate_info block means "nothing extracted this turn"
// and is not a violation; a missing or empty response text is, because
// there is nothing safe to show the candidate.
func DecodeExtraction(raw string) (*ExtractionResult, *Violation) {
	obj, violation := Parse(raw)
	if violation != nil {
		return nil, violation
	}

	var result ExtractionResult
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &result,
	})
	if err != nil {
		return nil, &Violation{Message: ParseFailedMessage, Original: raw, Exception: err.Error()}
	}
	if err := decoder.Decode(obj); err != nil {
		return nil, &Violation{Message: ParseFailedMessage, Original: raw, Exception: err.Error()}
	}

	if strings.TrimSpace(result.Response) == "" {
		return nil, &Violation{Message: "response text is missing", Original: raw}
	}

	return &result, nil
}

// ParseQuestions extracts a question list from the generator response.
// The happy path is a JSON object with a "questions" array; anything
// else falls back to splitting the raw text into lines. Either way each
// question is trimmed, leading "N." numbering is stripped and empty
// entries are dropped.
func ParseQuestions(raw string) []string {
	if obj, violation := Parse(raw); violation == nil {
		if list, ok := obj["questions"].([]any); ok {
			questions := make([]string, 0, len(list))
			for _, item := range list {
				if text, ok := item.(string); ok {
					if cleaned := StripNumbering(text); cleaned != "" {
						questions = append(questions, cleaned)
					}
				}
			}
			return questions
		}
	}

	var questions []string
	for _, line := range strings.Split(StripCodeFences(raw), "\n") {
		if cleaned := StripNumbering(line); cleaned != "" {
			questions = append(questions, cleaned)
		}
	}
	return questions
}

// StripNumbering trims the question and removes a leading "N." prefix
// when the text starts with a digit and the period sits within the
// first three characters. The renderer numbers questions itself.
func StripNumbering(q string) string {
	q = strings.TrimSpace(q)
	if q == "" || !unicode.IsDigit(rune(q[0])) {
		return q
	}

	limit := 3
	if len(q) < limit {
		limit = len(q)
	}
	dot := strings.Index(q[:limit], ".")
	if dot == -1 {
		return q
	}
	return strings.TrimSpace(q[dot+1:])
}
