package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

const conversationColumns = `id, user_id, user_input, ai_response, tension_level, affective_charge, platform, COALESCE(session_id, ''), created_at`

func (s *ConversationStore) Create(ctx context.Context, c *domain.Conversation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Platform == "" {
		c.Platform = domain.PlatformTelegram
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, user_input, ai_response, tension_level, affective_charge, platform, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.UserInput, c.AIResponse, c.TensionLevel, c.AffectiveCharge, c.Platform, c.SessionID, formatTime(c.CreatedAt),
	)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *ConversationStore) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *ConversationStore) ListRecentByUser(ctx context.Context, userID string, limit int) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations
		 WHERE user_id = ? AND platform NOT IN (?, ?)
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, domain.PlatformDream, domain.PlatformProactiveRumination, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectConversations(rows)
}

func (s *ConversationStore) LastUserActivity(ctx context.Context, userID string) (*time.Time, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM conversations
		 WHERE user_id = ? AND platform NOT IN (?, ?)`,
		userID, domain.PlatformDream, domain.PlatformProactiveRumination,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return parseNullTime(last), nil
}

func (s *ConversationStore) ListUnextracted(ctx context.Context, userID, agentInstance string, since time.Time, limit int) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations c
		 WHERE c.user_id = ?
		   AND c.platform NOT IN (?, ?)
		   AND c.created_at >= ?
		   AND NOT EXISTS (
		       SELECT 1 FROM agent_identity_extractions e
		       WHERE e.conversation_id = c.id AND e.agent_instance = ?
		   )
		 ORDER BY c.created_at ASC, c.id ASC
		 LIMIT ?`,
		userID, domain.PlatformDream, domain.PlatformProactiveRumination, formatTime(since), agentInstance, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectConversations(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var c domain.Conversation
	var createdAt string
	if err := row.Scan(&c.ID, &c.UserID, &c.UserInput, &c.AIResponse, &c.TensionLevel,
		&c.AffectiveCharge, &c.Platform, &c.SessionID, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func collectConversations(rows *sql.Rows) ([]domain.Conversation, error) {
	defer rows.Close()

	var results []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *c)
	}
	return results, rows.Err()
}

var _ domain.ConversationStore = (*ConversationStore)(nil)
