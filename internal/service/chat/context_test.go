package chat

import (
	"testing"

	model "github.com/linqiu/polychat/backend/internal/model/chat"
)

func msg(role model.Role, content string) model.Message {
	return model.Message{Role: role, Content: content}
}

func TestBuildTurnsUsesWindowTailAsPrompt(t *testing.T) {
	messages := []model.Message{
		msg(model.RoleUser, "hi"),
		msg(model.RoleAssistant, "hello"),
		msg(model.RoleUser, "how are you"),
	}

	turns := BuildTurns(messages, "how are you", 20)

	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != model.GenRoleUser || last.Text != "how are you" {
		t.Fatalf("unexpected final turn: %+v", last)
	}
}

func TestBuildTurnsAppendsMissingPrompt(t *testing.T) {
	// A concurrent delete can leave the just-written prompt out of the
	// window; it must still arrive as the final turn.
	messages := []model.Message{
		msg(model.RoleUser, "hi"),
		msg(model.RoleAssistant, "hello"),
	}

	turns := BuildTurns(messages, "how are you", 20)

	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != model.GenRoleUser || last.Text != "how are you" {
		t.Fatalf("unexpected final turn: %+v", last)
	}
}

func TestBuildTurnsNeverDuplicatesPrompt(t *testing.T) {
	messages := []model.Message{
		msg(model.RoleUser, "ping"),
	}

	turns := BuildTurns(messages, "ping", 20)

	count := 0
	for _, turn := range turns {
		if turn.Text == "ping" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("prompt appears %d times, want 1", count)
	}
}

func TestBuildTurnsEmptyHistory(t *testing.T) {
	turns := BuildTurns(nil, "first words", 20)

	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Role != model.GenRoleUser || turns[0].Text != "first words" {
		t.Fatalf("unexpected turn: %+v", turns[0])
	}
}

func TestBuildTurnsWindowKeepsMostRecent(t *testing.T) {
	messages := []model.Message{
		msg(model.RoleUser, "one"),
		msg(model.RoleAssistant, "two"),
		msg(model.RoleUser, "three"),
		msg(model.RoleAssistant, "four"),
		msg(model.RoleUser, "five"),
	}

	turns := BuildTurns(messages, "five", 3)

	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Text != "three" || turns[1].Text != "four" || turns[2].Text != "five" {
		t.Fatalf("window kept wrong entries: %+v", turns)
	}
}

func TestBuildTurnsCapHoldsWhenPromptIsAppended(t *testing.T) {
	// A full window whose last row is not the prompt forces the explicit
	// append; the oldest entry must give way so the cap still holds.
	messages := make([]model.Message, 0, 20)
	for i := 0; i < 20; i++ {
		messages = append(messages, msg(model.RoleAssistant, "filler"))
	}

	turns := BuildTurns(messages, "the prompt", 20)

	if len(turns) != 20 {
		t.Fatalf("window cap breached: got %d turns, cap 20", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != model.GenRoleUser || last.Text != "the prompt" {
		t.Fatalf("unexpected final turn: %+v", last)
	}
}

func TestBuildTurnsCapHoldsWithWindowOfOne(t *testing.T) {
	messages := []model.Message{
		msg(model.RoleAssistant, "filler"),
	}

	turns := BuildTurns(messages, "the prompt", 1)

	if len(turns) != 1 {
		t.Fatalf("window cap breached: got %d turns, cap 1", len(turns))
	}
	if turns[0].Role != model.GenRoleUser || turns[0].Text != "the prompt" {
		t.Fatalf("unexpected final turn: %+v", turns[0])
	}
}

func TestBuildTurnsRoleMapping(t *testing.T) {
	messages := []model.Message{
		msg(model.RoleUser, "q"),
		msg(model.RoleAssistant, "a"),
		msg(model.RoleUser, "again"),
	}

	turns := BuildTurns(messages, "again", 20)

	if turns[0].Role != model.GenRoleUser {
		t.Fatalf("user turn mapped to %s", turns[0].Role)
	}
	if turns[1].Role != model.GenRoleModel {
		t.Fatalf("assistant turn mapped to %s", turns[1].Role)
	}
}
