package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiproductiv/backend/internal/store"
)

// fakeGenerator records the prompt it was handed and returns a canned
// response or error.
type fakeGenerator struct {
	response string
	err      error
	prompts  [][]Message
}

func (f *fakeGenerator) Generate(_ context.Context, messages []Message) (string, error) {
	f.prompts = append(f.prompts, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newSuggestionFixture(t *testing.T, gen Generator) (*SuggestionService, *store.SQLiteStore) {
	t.Helper()
	dbStore := newTestStore(t)
	history := NewHistoryService(dbStore)
	return NewSuggestionService(history, gen), dbStore
}

func TestSubmitSuccessPersistsBothTurns(t *testing.T) {
	gen := &fakeGenerator{response: "**Suggestion 1:** take a walk."}
	svc, dbStore := newSuggestionFixture(t, gen)
	ctx := context.Background()

	text, err := svc.Submit(ctx, 1, testInput("feeling swamped"), nil, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "**Suggestion 1:** take a walk.", text)

	entries, err := dbStore.GetEntriesAsc(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsUser)
	assert.Equal(t, "feeling swamped", entries[0].UserInput.Message)
	assert.False(t, entries[1].IsUser)
	assert.Equal(t, "**Suggestion 1:** take a walk.", entries[1].AIResponse)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Equal(t, RoleSystem, prompt[0].Role)
	assert.Equal(t, RoleUser, prompt[len(prompt)-1].Role)
	assert.Contains(t, prompt[len(prompt)-1].Content, "- My Name: Alice")
}

func TestSubmitValidationRejectsIncompleteInput(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input store.SituationalInput
	}{
		{"missing mode", store.SituationalInput{Mood: "Happy", TimeOfDay: "Morning"}},
		{"missing mood", store.SituationalInput{Mode: "Work", TimeOfDay: "Morning"}},
		{"missing time of day", store.SituationalInput{Mode: "Work", Mood: "Happy"}},
		{"unknown mode", store.SituationalInput{Mode: "Sleep", Mood: "Happy", TimeOfDay: "Morning"}},
		{"unknown mood", store.SituationalInput{Mode: "Work", Mood: "Furious", TimeOfDay: "Morning"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{response: "never used"}
			svc, dbStore := newSuggestionFixture(t, gen)
			ctx := context.Background()

			_, err := svc.Submit(ctx, 1, tc.input, nil, "")
			assert.ErrorIs(t, err, ErrValidation)

			count, err := dbStore.CountEntries(ctx, 1)
			require.NoError(t, err)
			assert.Zero(t, count, "validation failure must cause zero writes")
			assert.Empty(t, gen.prompts)
		})
	}
}

func TestSubmitRejectsMissingOwnerBeforeWrites(t *testing.T) {
	gen := &fakeGenerator{response: "never used"}
	svc, dbStore := newSuggestionFixture(t, gen)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 0, testInput("hello"), nil, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	count, err := dbStore.CountEntries(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSubmitGenerationFailureLeavesDanglingUserTurn(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream exploded")}
	svc, dbStore := newSuggestionFixture(t, gen)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, testInput("help"), nil, "")
	assert.ErrorIs(t, err, ErrGeneration)

	// The user turn is not rolled back: the transcript shows an
	// unanswered entry.
	history := NewHistoryService(dbStore)
	entries, err := history.FetchRecent(ctx, 1, HistoryWindow)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsUser)
	assert.Equal(t, "help", entries[0].UserInput.Message)
}

func TestSubmitEmptyGenerationIsError(t *testing.T) {
	gen := &fakeGenerator{response: "   \n"}
	svc, dbStore := newSuggestionFixture(t, gen)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, testInput("help"), nil, "")
	assert.ErrorIs(t, err, ErrGeneration)

	count, err := dbStore.CountEntries(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the user turn is persisted")
}

func TestSubmitUsesClientHistoryForPrompt(t *testing.T) {
	gen := &fakeGenerator{response: "ok"}
	svc, _ := newSuggestionFixture(t, gen)
	ctx := context.Background()

	clientHistory := []store.ChatEntry{
		{IsUser: true, UserInput: &store.SituationalInput{Mode: "Study", Mood: "Tired", TimeOfDay: "Night", Message: "from client"}},
		{IsUser: false, AIResponse: "earlier advice"},
	}

	_, err := svc.Submit(ctx, 1, testInput("now"), clientHistory, "")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	require.Len(t, prompt, 4)
	assert.Contains(t, prompt[1].Content, "from client")
	assert.Equal(t, "earlier advice", prompt[2].Content)
}

func TestSubmitFallsBackToStoredHistory(t *testing.T) {
	gen := &fakeGenerator{response: "ok"}
	svc, _ := newSuggestionFixture(t, gen)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, testInput("first"), nil, "")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 1, testInput("second"), nil, "")
	require.NoError(t, err)

	// The second prompt carries the stored first exchange as context.
	require.Len(t, gen.prompts, 2)
	second := gen.prompts[1]
	require.Len(t, second, 4)
	assert.Contains(t, second[1].Content, "first")
	assert.Equal(t, "ok", second[2].Content)
}

func TestSubmitWindowCapHoldsAcrossSubmissions(t *testing.T) {
	gen := &fakeGenerator{response: "reply"}
	svc, dbStore := newSuggestionFixture(t, gen)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Submit(ctx, 1, testInput("msg"), nil, "")
		require.NoError(t, err)
	}

	count, err := dbStore.CountEntries(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, HistoryWindow, count)
}
