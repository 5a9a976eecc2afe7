package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// IdentityExtractionStore records which conversations identity consolidation has seen.
type IdentityExtractionStore struct {
	db *sql.DB
}

func NewIdentityExtractionStore(db *sql.DB) *IdentityExtractionStore {
	return &IdentityExtractionStore{db: db}
}

// Claim reserves a conversation for extraction. It reports false when another
// run already holds it.
func (s *IdentityExtractionStore) Claim(ctx context.Context, conversationID int64, agentInstance string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO agent_identity_extractions (conversation_id, agent_instance, extracted_at)
		 VALUES (?, ?, ?)`,
		conversationID, agentInstance, formatTime(at),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *IdentityExtractionStore) Complete(ctx context.Context, rec *domain.IdentityExtractionRecord) error {
	at := rec.ExtractedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE agent_identity_extractions
		 SET elements_count = ?, processing_time_ms = ?, error = ?, extracted_at = ?
		 WHERE conversation_id = ? AND agent_instance = ?`,
		rec.ElementsCount, rec.ProcessingTimeMs, rec.Error, formatTime(at),
		rec.ConversationID, rec.AgentInstance,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ domain.IdentityExtractionStore = (*IdentityExtractionStore)(nil)
