package core

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/aiproductiv/backend/internal/store"
)

// HistoryWindow is the maximum number of chat entries retained per user.
const HistoryWindow = 5

// HistoryService maintains each user's bounded chat history: it appends
// turns, prunes the oldest entries once the window cap is exceeded, and
// serves the capped transcript in chronological order.
type HistoryService struct {
	dbStore *store.SQLiteStore

	// ownerLocks serializes append/prune per user so two concurrent
	// submissions from the same user cannot race the count-then-delete
	// window check. Different users proceed concurrently.
	mu         sync.Mutex
	ownerLocks map[int64]*sync.Mutex
}

func NewHistoryService(db *store.SQLiteStore) *HistoryService {
	return &HistoryService{
		dbStore:    db,
		ownerLocks: make(map[int64]*sync.Mutex),
	}
}

func (s *HistoryService) ownerLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.ownerLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.ownerLocks[userID] = lock
	}
	return lock
}

// AppendUserTurn persists the user half of an exchange. The window cap is
// not applied here; it is re-applied when the exchange completes.
func (s *HistoryService) AppendUserTurn(ctx context.Context, userID int64, input store.SituationalInput) (*store.ChatEntry, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: missing owner", ErrUnauthorized)
	}

	lock := s.ownerLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry := store.ChatEntry{
		UserID:    userID,
		IsUser:    true,
		UserInput: &input,
	}
	if err := s.dbStore.CreateEntry(ctx, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &entry, nil
}

// AppendAITurn persists the AI half of an exchange and re-applies the
// window cap. The AI entry's timestamp is assigned at insert time, so it is
// never earlier than the paired user entry's.
func (s *HistoryService) AppendAITurn(ctx context.Context, userID int64, generatedText string) (*store.ChatEntry, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: missing owner", ErrUnauthorized)
	}

	lock := s.ownerLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry := store.ChatEntry{
		UserID:     userID,
		IsUser:     false,
		AIResponse: generatedText,
	}
	if err := s.dbStore.CreateEntry(ctx, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := s.prune(ctx, userID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// prune deletes the oldest entries above the window cap in one bulk
// operation. Entries are identified by id, not timestamp, so ties cannot
// delete the wrong rows. The trim is strictly by count: it may remove the
// user half of an exchange while its AI half stays in the window.
// Caller must hold the owner lock.
func (s *HistoryService) prune(ctx context.Context, userID int64) error {
	entries, err := s.dbStore.GetEntriesAsc(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(entries) <= HistoryWindow {
		return nil
	}

	excess := entries[:len(entries)-HistoryWindow]
	ids := make([]string, len(excess))
	for i, entry := range excess {
		ids[i] = entry.ID
	}
	if err := s.dbStore.DeleteEntries(ctx, ids); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	log.Printf("Pruned %d oldest entries for user %d to maintain history window", len(ids), userID)
	return nil
}

// FetchRecent returns up to limit of the user's entries in chronological
// order, oldest first. The store query runs newest-first for efficiency and
// the result is reversed before return.
func (s *HistoryService) FetchRecent(ctx context.Context, userID int64, limit int) ([]store.ChatEntry, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: missing owner", ErrUnauthorized)
	}

	entries, err := s.dbStore.GetRecentEntries(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
