package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type CoreAttributeStore struct {
	db *sql.DB
}

func NewCoreAttributeStore(db *sql.DB) *CoreAttributeStore {
	return &CoreAttributeStore{db: db}
}

const coreAttributeColumns = `id, agent_instance, attribute_type, content, certainty, is_current,
	first_crystallized_at, last_reaffirmed_at, supporting_conversation_ids, emerged_in_relation_to`

// Create returns ErrConflict when a current attribute with the same content exists.
func (s *CoreAttributeStore) Create(ctx context.Context, a *domain.CoreAttribute) error {
	return insertCoreAttribute(ctx, s.db, a, nil)
}

func insertCoreAttribute(ctx context.Context, q queryer, a *domain.CoreAttribute, sourceInsightID *int64) error {
	now := time.Now().UTC()
	if a.FirstCrystallizedAt.IsZero() {
		a.FirstCrystallizedAt = now
	}
	if a.LastReaffirmedAt.IsZero() {
		a.LastReaffirmedAt = a.FirstCrystallizedAt
	}
	a.IsCurrent = true

	res, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO agent_identity_core
		 (agent_instance, attribute_type, content, certainty, is_current,
		  first_crystallized_at, last_reaffirmed_at, supporting_conversation_ids, emerged_in_relation_to, source_insight_id)
		 VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, ?)`,
		a.AgentInstance, string(a.AttributeType), a.Content, a.Certainty,
		formatTime(a.FirstCrystallizedAt), formatTime(a.LastReaffirmedAt),
		encodeJSON(a.SupportingConversationIDs), a.EmergedInRelationTo, int64PtrArg(sourceInsightID),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (s *CoreAttributeStore) FindCurrentByContent(ctx context.Context, agentInstance, content string) (*domain.CoreAttribute, error) {
	a, err := scanCoreAttribute(s.db.QueryRowContext(ctx,
		`SELECT `+coreAttributeColumns+` FROM agent_identity_core
		 WHERE agent_instance = ? AND content = ? AND is_current = 1`,
		agentInstance, content))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *CoreAttributeStore) Reaffirm(ctx context.Context, id, conversationID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agent_identity_core
		 SET last_reaffirmed_at = ?,
		     supporting_conversation_ids = json_insert(supporting_conversation_ids, '$[#]', ?)
		 WHERE id = ?`,
		formatTime(at), conversationID, id,
	)
	return err
}

func (s *CoreAttributeStore) ListCurrent(ctx context.Context, agentInstance string, limit int) ([]domain.CoreAttribute, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+coreAttributeColumns+` FROM agent_identity_core
		 WHERE agent_instance = ? AND is_current = 1
		 ORDER BY certainty DESC, last_reaffirmed_at DESC LIMIT ?`,
		agentInstance, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.CoreAttribute
	for rows.Next() {
		a, err := scanCoreAttribute(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *a)
	}
	return results, rows.Err()
}

func scanCoreAttribute(row rowScanner) (*domain.CoreAttribute, error) {
	var a domain.CoreAttribute
	var attrType, first, last, supporting string
	var current int
	if err := row.Scan(&a.ID, &a.AgentInstance, &attrType, &a.Content, &a.Certainty, &current,
		&first, &last, &supporting, &a.EmergedInRelationTo); err != nil {
		return nil, err
	}
	a.AttributeType = domain.AttributeType(attrType)
	a.IsCurrent = current == 1
	a.FirstCrystallizedAt = parseTime(first)
	a.LastReaffirmedAt = parseTime(last)
	a.SupportingConversationIDs = decodeJSON[int64](supporting)
	return &a, nil
}

var _ domain.CoreAttributeStore = (*CoreAttributeStore)(nil)
