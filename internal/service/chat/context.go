package chat

import "github.com/linqiu/polychat/backend/internal/model/chat"

// BuildTurns converts persisted messages into the ordered context window
// for a generation call. The window keeps the most recent entries, order
// preserved, and always ends with exactly one turn carrying the prompt:
// normally the just-persisted user message is already the last row, but if
// a concurrent delete removed it the prompt is appended explicitly.
func BuildTurns(messages []chat.Message, prompt string, window int) []chat.Turn {
	if window > 0 && len(messages) > window {
		messages = messages[len(messages)-window:]
	}

	last := len(messages) - 1
	needPrompt := last < 0 || messages[last].Role != chat.RoleUser || messages[last].Content != prompt
	if needPrompt && window > 0 && len(messages) >= window {
		// Drop the oldest entry so the appended prompt stays within the cap.
		messages = messages[len(messages)-(window-1):]
	}

	turns := make([]chat.Turn, 0, len(messages)+1)
	for _, msg := range messages {
		turns = append(turns, chat.Turn{Role: msg.Role.GenRole(), Text: msg.Content})
	}

	if needPrompt {
		turns = append(turns, chat.Turn{Role: chat.GenRoleUser, Text: prompt})
	}

	return turns
}
