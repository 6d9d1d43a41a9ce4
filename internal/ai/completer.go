// Package ai defines the outbound model-call boundary and the
// middleware that wraps it.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
)

// Options control a single completion call.
type Options struct {
	// JSONMode asks the provider to emit a JSON document instead of
	// free text.
	JSONMode bool
}

// Completer is a synchronous text-in/text-out model call. The system
// prompt may be empty. Implementations encode transport failures inside
// the returned payload (see ErrorPayload) instead of returning a Go
// error, so the response validator stays the single failure funnel for
// a turn. The error return is reserved for misuse, such as an empty
// prompt or a cancelled context.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// ErrorPayload encodes a transport failure as a raw response payload in
// the shape the validator recognizes.
func ErrorPayload(err error) string {
	msg, marshalErr := json.Marshal("API Error: " + err.Error())
	if marshalErr != nil {
		return `{"error": "API Error: unknown"}`
	}
	return fmt.Sprintf(`{"error": %s}`, msg)
}
