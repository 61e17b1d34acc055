package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aiproductiv/backend/internal/store"
)

var (
	validModes = map[string]bool{"Work": true, "Study": true, "Gaming": true}
	validMoods = map[string]bool{"Happy": true, "Stressed": true, "Tired": true, "Energetic": true}
)

// SuggestionService orchestrates one submission: validate, persist the user
// turn, assemble the prompt, call the generator, persist the AI turn.
type SuggestionService struct {
	history   *HistoryService
	generator Generator
}

func NewSuggestionService(history *HistoryService, generator Generator) *SuggestionService {
	return &SuggestionService{
		history:   history,
		generator: generator,
	}
}

// Submit runs the submission flow and returns the generated suggestion
// text. Validation and authorization failures leave the store untouched. If
// generation fails after the user turn was persisted, that turn is kept:
// the transcript shows an unanswered entry rather than rolling back.
func (s *SuggestionService) Submit(ctx context.Context, userID int64, input store.SituationalInput, clientHistory []store.ChatEntry, displayName string) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: missing owner", ErrUnauthorized)
	}
	if err := validateInput(input); err != nil {
		return "", err
	}

	if _, err := s.history.AppendUserTurn(ctx, userID, input); err != nil {
		return "", fmt.Errorf("failed to store user turn: %w", err)
	}

	history := clientHistory
	if len(history) == 0 {
		stored, err := s.history.FetchRecent(ctx, userID, HistoryWindow)
		if err != nil {
			// Context is best-effort; generate without it.
			log.Printf("Failed to load stored history for user %d, proceeding without context: %v", userID, err)
		} else {
			history = stored
		}
	}

	prompt := BuildPrompt(input, history, displayName)

	generatedText, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if strings.TrimSpace(generatedText) == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}

	if _, err := s.history.AppendAITurn(ctx, userID, generatedText); err != nil {
		return "", fmt.Errorf("failed to store AI turn: %w", err)
	}

	return generatedText, nil
}

func validateInput(input store.SituationalInput) error {
	if input.Mode == "" || input.Mood == "" || input.TimeOfDay == "" {
		return fmt.Errorf("%w: mode, mood and time of day are required", ErrValidation)
	}
	if !validModes[input.Mode] {
		return fmt.Errorf("%w: unknown mode %q", ErrValidation, input.Mode)
	}
	if !validMoods[input.Mood] {
		return fmt.Errorf("%w: unknown mood %q", ErrValidation, input.Mood)
	}
	return nil
}
