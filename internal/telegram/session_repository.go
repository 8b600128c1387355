package telegram

import (
	"context"
	"fmt"
	"time"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/storage"
)

// DefaultSessionTTL bounds how long scanned items wait for the user's review.
const DefaultSessionTTL = 30 * time.Minute

// Session holds pantry detections awaiting a keep or discard decision.
type Session struct {
	ChatID    int64               `json:"chatId"`
	Items     []domain.PantryItem `json:"items"`
	ExpiresAt time.Time           `json:"expiresAt"`
	CreatedAt time.Time           `json:"createdAt"`
}

// SessionRepository keeps one review session per chat in the key-value store.
type SessionRepository struct {
	kv  storage.KV
	ttl time.Duration
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(kv storage.KV, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRepository{kv: kv, ttl: ttl, now: time.Now}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("telegram-pending-%d", chatID)
}

// Create replaces any open session of the chat.
func (sr *SessionRepository) Create(ctx context.Context, chatID int64, items []domain.PantryItem) (Session, error) {
	now := sr.now()
	s := Session{
		ChatID:    chatID,
		Items:     append([]domain.PantryItem(nil), items...),
		ExpiresAt: now.Add(sr.ttl),
		CreatedAt: now,
	}
	if err := storage.SetJSON(ctx, sr.kv, sessionKey(chatID), s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// GetActive returns the chat's session, or nil when there is none or it has
// expired. Expired sessions are removed.
func (sr *SessionRepository) GetActive(ctx context.Context, chatID int64) (*Session, error) {
	s, ok, err := storage.GetJSON[Session](ctx, sr.kv, sessionKey(chatID))
	if err != nil || !ok {
		return nil, err
	}
	if !sr.now().Before(s.ExpiresAt) {
		return nil, sr.Delete(ctx, chatID)
	}
	return &s, nil
}

// Delete removes a session
func (sr *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	return sr.kv.Remove(ctx, sessionKey(chatID))
}
