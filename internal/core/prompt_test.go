package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiproductiv/backend/internal/store"
)

func userEntry(mode, mood, message string) store.ChatEntry {
	return store.ChatEntry{
		IsUser: true,
		UserInput: &store.SituationalInput{
			Mode:      mode,
			Mood:      mood,
			TimeOfDay: "Morning",
			Message:   message,
		},
	}
}

func aiEntry(text string) store.ChatEntry {
	return store.ChatEntry{IsUser: false, AIResponse: text}
}

func assertRoleSequence(t *testing.T, messages []Message) {
	t.Helper()
	require.NotEmpty(t, messages)
	assert.Equal(t, RoleSystem, messages[0].Role, "prompt must start with the system message")
	assert.Equal(t, RoleUser, messages[len(messages)-1].Role, "prompt must end with a user message")

	interior := messages[1 : len(messages)-1]
	for i, msg := range interior {
		if i%2 == 0 {
			assert.Equal(t, RoleUser, msg.Role, "interior message %d", i)
		} else {
			assert.Equal(t, RoleAssistant, msg.Role, "interior message %d", i)
		}
	}
	assert.Equal(t, 0, len(interior)%2, "interior messages must form user/assistant pairs")
}

func TestBuildPromptNoHistory(t *testing.T) {
	input := store.SituationalInput{Mode: "Work", Mood: "Stressed", TimeOfDay: "Morning", Message: "big deadline"}

	messages := BuildPrompt(input, nil, "Alice")
	require.Len(t, messages, 2)
	assertRoleSequence(t, messages)

	final := messages[1].Content
	assert.Contains(t, final, "- Mode: Work")
	assert.Contains(t, final, "- Mood: Stressed")
	assert.Contains(t, final, "- Time of Day: Morning")
	assert.Contains(t, final, `"big deadline"`)
	assert.Contains(t, final, "- My Name: Alice")
	assert.Contains(t, final, "2-3 actionable and engaging suggestions")
}

func TestBuildPromptOmitsEmptyOptionalFields(t *testing.T) {
	input := store.SituationalInput{Mode: "Study", Mood: "Tired", TimeOfDay: "Evening"}

	messages := BuildPrompt(input, nil, "")
	final := messages[len(messages)-1].Content
	assert.NotContains(t, final, "My Name")
	assert.Contains(t, final, "(No additional message from me)")
}

func TestBuildPromptCondensesUserTurns(t *testing.T) {
	history := []store.ChatEntry{
		userEntry("Gaming", "Happy", "long session"),
		aiEntry("Stretch your wrists."),
	}
	input := store.SituationalInput{Mode: "Gaming", Mood: "Tired", TimeOfDay: "Night"}

	messages := BuildPrompt(input, history, "")
	require.Len(t, messages, 4)
	assertRoleSequence(t, messages)

	assert.Equal(t, `Previously, I was in Gaming mode, feeling Happy. My message was: "long session"`, messages[1].Content)
	assert.Equal(t, "Stretch your wrists.", messages[2].Content)
}

func TestBuildPromptCondensationPlaceholderForEmptyMessage(t *testing.T) {
	history := []store.ChatEntry{
		userEntry("Work", "Energetic", ""),
		aiEntry("Plan your day."),
	}
	input := store.SituationalInput{Mode: "Work", Mood: "Happy", TimeOfDay: "Morning"}

	messages := BuildPrompt(input, history, "")
	assert.Contains(t, messages[1].Content, "(No additional message)")
}

func TestBuildPromptBoundsHistoryToTrailingFour(t *testing.T) {
	var history []store.ChatEntry
	for i := 0; i < 4; i++ {
		history = append(history,
			userEntry("Work", "Happy", fmt.Sprintf("message %d", i)),
			aiEntry(fmt.Sprintf("reply %d", i)),
		)
	}
	input := store.SituationalInput{Mode: "Work", Mood: "Happy", TimeOfDay: "Noon"}

	messages := BuildPrompt(input, history, "")
	// system + 4 history turns + final user message
	require.Len(t, messages, 6)
	assertRoleSequence(t, messages)

	assert.Contains(t, messages[1].Content, "message 2")
	assert.Equal(t, "reply 2", messages[2].Content)
	assert.Contains(t, messages[3].Content, "message 3")
	assert.Equal(t, "reply 3", messages[4].Content)
}

func TestBuildPromptDropsStrandedAssistantTurn(t *testing.T) {
	// A pruned window can start with the AI half of a split exchange.
	history := []store.ChatEntry{
		aiEntry("orphaned reply"),
		userEntry("Study", "Stressed", "exam prep"),
		aiEntry("Use spaced repetition."),
	}
	input := store.SituationalInput{Mode: "Study", Mood: "Tired", TimeOfDay: "Night"}

	messages := BuildPrompt(input, history, "")
	assertRoleSequence(t, messages)
	for _, msg := range messages {
		assert.NotEqual(t, "orphaned reply", msg.Content)
	}
}

func TestBuildPromptDropsDanglingUserTurn(t *testing.T) {
	// An unanswered user turn must not collide with the final user message.
	history := []store.ChatEntry{
		userEntry("Work", "Happy", "answered"),
		aiEntry("Nice."),
		userEntry("Work", "Stressed", "unanswered"),
	}
	input := store.SituationalInput{Mode: "Work", Mood: "Tired", TimeOfDay: "Evening"}

	messages := BuildPrompt(input, history, "")
	assertRoleSequence(t, messages)
	require.Len(t, messages, 4)
	assert.Contains(t, messages[1].Content, "answered")
}

func TestSystemPromptDescribesPersonaAndFormat(t *testing.T) {
	messages := BuildPrompt(store.SituationalInput{Mode: "Work", Mood: "Happy", TimeOfDay: "Morning"}, nil, "")
	system := messages[0].Content
	assert.True(t, strings.Contains(system, "AIProductiv"))
	assert.Contains(t, system, "Markdown")
	assert.Contains(t, system, "2-3")
}
