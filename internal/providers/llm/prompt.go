package llm

import (
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

// BuildPrompt flattens a conversation into a single prompt that ends with the
// interviewer's turn. System messages become the instruction header.
func BuildPrompt(messages []models.Message) string {
	var sys []string
	var turns []string
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			sys = append(sys, m.Content)
		case models.RoleAssistant:
			turns = append(turns, "Interviewer: "+m.Content)
		default:
			turns = append(turns, "Respondent: "+m.Content)
		}
	}

	var b strings.Builder
	if len(sys) > 0 {
		b.WriteString(strings.Join(sys, "\n\n"))
		b.WriteString("\n\n")
	}
	if len(turns) == 0 {
		b.WriteString("The interview is starting now. Write your opening message.\n\n")
	} else {
		b.WriteString("Conversation so far:\n")
		b.WriteString(strings.Join(turns, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("Interviewer:")
	return b.String()
}
