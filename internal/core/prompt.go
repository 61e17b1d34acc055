package core

import (
	"fmt"
	"strings"

	"github.com/aiproductiv/backend/internal/store"
)

// promptHistoryTurns bounds the conversational context sent to the
// generator, independently of the persisted window cap.
const promptHistoryTurns = 4

const systemPrompt = `You are AIProductiv, an advanced AI productivity assistant. Your goal is to provide 2-3 concrete, actionable, and engaging suggestions to help users be more productive or manage their current state based on their mode (Work, Study, Gaming), mood (Happy, Stressed, Tired, Energetic), and time of day.

Your response MUST be formatted using Markdown and should be structured clearly.

For each suggestion, consider including:
1.  **Actionable Task:** What the user should DO (e.g., "Take a 5-minute mindful break", "Review your top 3 priorities for the day", "Try a 10-minute stretching routine").
2.  **App/Site/Resource Recommendation:** Suggest a relevant app, website, YouTube video, Spotify playlist, or other online resource. Prefer a direct link in Markdown format, e.g., [Resource Name](URL); if you cannot provide a direct link, construct a search link; failing that, describe a search phrase the user can try.
3.  **AI-Generated Quote/Advice (Optional but encouraged):** A short, inspiring, or relevant quote or piece of advice related to the context.

Structure your response with clear headings or bullet points for each of the 2-3 suggestions. Ensure variety in your suggestions.

Example of how to format a suggestion with a link:
-   **Suggestion 1: Focus Boost**
    *   **Action:** Try the Pomodoro Technique for your next study block (25 min focus, 5 min break).
    *   **Resource:** Check out this [Pomodoro Timer App](https://pomofocus.io/).
    *   **Quote:** "The secret of getting ahead is getting started." - Mark Twain

Tailor your response carefully to the user's current mode, mood, and time of day.
If mode is Gaming: suggest short breaks, ergonomic tips, or game-related strategies.
If mode is Study: offer focus techniques, learning resources, or break ideas.
If mode is Work: provide task management tips, stress relief suggestions, or focus enhancers.

Keep your overall response concise and easy to digest, even with multiple suggestions. Prioritize helpfulness and engagement.`

// BuildPrompt assembles the generation request: the fixed system
// instruction, the trailing slice of history mapped to role-tagged
// messages, and a final user message built from the current input. The
// output always starts with the system message, ends with exactly one user
// message, and alternates user/assistant in between.
func BuildPrompt(input store.SituationalInput, history []store.ChatEntry, displayName string) []Message {
	messages := []Message{{Role: RoleSystem, Content: systemPrompt}}

	if len(history) > promptHistoryTurns {
		history = history[len(history)-promptHistoryTurns:]
	}
	messages = append(messages, formatHistory(history)...)

	messages = append(messages, Message{Role: RoleUser, Content: formatCurrentInput(input, displayName)})
	return messages
}

// formatHistory maps stored entries to prompt messages. User turns are
// condensed to a one-line restatement to bound prompt size; AI turns pass
// through verbatim. The result is normalized so roles alternate starting
// with a user turn: a leading assistant turn (the stranded half of a pruned
// pair) is dropped, and of two consecutive same-role turns only the newer
// is kept.
func formatHistory(history []store.ChatEntry) []Message {
	var out []Message
	for _, entry := range history {
		var msg Message
		switch {
		case entry.IsUser && entry.UserInput != nil:
			msg = Message{Role: RoleUser, Content: condenseUserTurn(*entry.UserInput)}
		case !entry.IsUser && entry.AIResponse != "":
			msg = Message{Role: RoleAssistant, Content: entry.AIResponse}
		default:
			continue
		}

		if len(out) == 0 && msg.Role == RoleAssistant {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == msg.Role {
			out[len(out)-1] = msg
			continue
		}
		out = append(out, msg)
	}

	// A trailing unanswered user turn would collide with the final user
	// message appended by BuildPrompt.
	if len(out) > 0 && out[len(out)-1].Role == RoleUser {
		out = out[:len(out)-1]
	}
	return out
}

func condenseUserTurn(input store.SituationalInput) string {
	message := input.Message
	if message == "" {
		message = "(No additional message)"
	}
	return fmt.Sprintf("Previously, I was in %s mode, feeling %s. My message was: %q", input.Mode, input.Mood, message)
}

func formatCurrentInput(input store.SituationalInput, displayName string) string {
	var b strings.Builder
	b.WriteString("My current situation:\n")
	if displayName != "" {
		fmt.Fprintf(&b, "- My Name: %s\n", displayName)
	}
	fmt.Fprintf(&b, "- Mode: %s\n", input.Mode)
	fmt.Fprintf(&b, "- Mood: %s\n", input.Mood)
	fmt.Fprintf(&b, "- Time of Day: %s\n", input.TimeOfDay)
	if input.Message != "" {
		fmt.Fprintf(&b, "- My Message: %q\n", input.Message)
	} else {
		b.WriteString("(No additional message from me)\n")
	}
	b.WriteString("\nPlease provide 2-3 actionable and engaging suggestions based on this.")
	return b.String()
}
