package llm

import (
	"fmt"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HintText describes a stored example as tone guidance.
func HintText(ex *entities.Example) string {
	return fmt.Sprintf(
		"When someone said: '%s', a good calming reply was: '%s'. Use that tone and help the user.",
		ex.Input, ex.Response,
	)
}

// BuildMessages lays out the conversation: system prompt, the user's
// message, then the example hint as an assistant turn when there is one.
func BuildMessages(systemPrompt, userText string, hint *entities.Example) []Message {
	msgs := []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: userText},
	}
	if hint != nil {
		msgs = append(msgs, Message{Role: RoleAssistant, Content: HintText(hint)})
	}
	return msgs
}
