package intake

import (
	"fmt"
	"strings"

	_ "embed"

	"github.com/talentscout/intake-assistant/internal/profile"
	"github.com/talentscout/intake-assistant/internal/session"
)

//go:embed system_prompt.md
var systemPrompt string

//go:embed turn_prompt.md
var turnPromptTemplate string

const allCollectedNote = "None - all information collected"

// buildTurnPrompt renders the per-turn prompt: the recent conversation
// window, the profile summary, the latest user input and the hints that
// steer extraction toward the next missing field.
func buildTurnPrompt(window []session.Turn, p *profile.CandidateProfile, userInput string, questionsAsked bool) string {
	lines := make([]string, 0, len(window))
	for _, turn := range window {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(turn.Role), turn.Content))
	}

	nextField := allCollectedNote
	if f, missing := p.NextMissingField(); missing {
		nextField = string(f)
	}

	asked := "No"
	if questionsAsked {
		asked = "Yes"
	}

	techStackNote := ""
	if p.TechStack != "" && !questionsAsked {
		techStackNote = fmt.Sprintf(
			"The candidate has shared their tech stack: %s\n\n"+
				"If you have all the required information and have not yet generated technical questions,\n"+
				"set \"generate_technical_questions\" to true in your response.",
			p.TechStack,
		)
	}

	prompt := strings.ReplaceAll(turnPromptTemplate, "{{CONVERSATION}}", strings.Join(lines, "\n"))
	prompt = strings.ReplaceAll(prompt, "{{COLLECTED_INFO}}", p.Summary())
	prompt = strings.ReplaceAll(prompt, "{{USER_INPUT}}", userInput)
	prompt = strings.ReplaceAll(prompt, "{{NEXT_FIELD}}", nextField)
	prompt = strings.ReplaceAll(prompt, "{{QUESTIONS_ASKED}}", asked)
	prompt = strings.ReplaceAll(prompt, "{{TECH_STACK_NOTE}}", techStackNote)
	return prompt
}
