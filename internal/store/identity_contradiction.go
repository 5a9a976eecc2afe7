package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// IdentityContradictionStore persists the agent's contradictions about itself.
type IdentityContradictionStore struct {
	db *sql.DB
}

func NewIdentityContradictionStore(db *sql.DB) *IdentityContradictionStore {
	return &IdentityContradictionStore{db: db}
}

const contradictionColumns = `id, agent_instance, pole_a, pole_b, contradiction_type, tension_level, salience,
	status, origin, source_tension_id, fed_to_rumination, first_detected_at, last_activated_at,
	supporting_conversation_ids`

func (s *IdentityContradictionStore) Create(ctx context.Context, c *domain.Contradiction) error {
	return insertContradiction(ctx, s.db, c)
}

func insertContradiction(ctx context.Context, q queryer, c *domain.Contradiction) error {
	now := time.Now().UTC()
	if c.FirstDetectedAt.IsZero() {
		c.FirstDetectedAt = now
	}
	if c.LastActivatedAt.IsZero() {
		c.LastActivatedAt = c.FirstDetectedAt
	}
	if c.Status == "" {
		c.Status = domain.ContradictionUnresolved
	}
	if c.Origin == "" {
		c.Origin = "conversation"
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO agent_identity_contradictions
		 (agent_instance, pole_a, pole_b, contradiction_type, tension_level, salience, status, origin,
		  source_tension_id, fed_to_rumination, first_detected_at, last_activated_at, supporting_conversation_ids)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.AgentInstance, c.PoleA, c.PoleB, c.ContradictionType, c.TensionLevel, c.Salience,
		string(c.Status), c.Origin, int64PtrArg(c.SourceTensionID), boolToInt(c.FedToRumination),
		formatTime(c.FirstDetectedAt), formatTime(c.LastActivatedAt), encodeJSON(c.SupportingConversationIDs),
	)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *IdentityContradictionStore) ListActive(ctx context.Context, agentInstance string, limit int) ([]domain.Contradiction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contradictionColumns+` FROM agent_identity_contradictions
		 WHERE agent_instance = ? AND status IN (?, ?)
		 ORDER BY salience DESC, last_activated_at DESC LIMIT ?`,
		agentInstance, string(domain.ContradictionUnresolved), string(domain.ContradictionIntegrating), limit,
	)
	if err != nil {
		return nil, err
	}
	return collectContradictions(rows)
}

func (s *IdentityContradictionStore) ListFeedbackCandidates(ctx context.Context, agentInstance string, minTension float64, activeSince time.Time) ([]domain.Contradiction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contradictionColumns+` FROM agent_identity_contradictions
		 WHERE agent_instance = ?
		   AND status IN (?, ?)
		   AND tension_level > ?
		   AND last_activated_at >= ?
		   AND fed_to_rumination = 0
		   AND source_tension_id IS NULL
		 ORDER BY tension_level DESC, id ASC`,
		agentInstance, string(domain.ContradictionUnresolved), string(domain.ContradictionIntegrating),
		minTension, formatTime(activeSince),
	)
	if err != nil {
		return nil, err
	}
	return collectContradictions(rows)
}

func collectContradictions(rows *sql.Rows) ([]domain.Contradiction, error) {
	defer rows.Close()

	var results []domain.Contradiction
	for rows.Next() {
		var c domain.Contradiction
		var status, first, last, supporting string
		var sourceTension sql.NullInt64
		var fed int
		if err := rows.Scan(&c.ID, &c.AgentInstance, &c.PoleA, &c.PoleB, &c.ContradictionType,
			&c.TensionLevel, &c.Salience, &status, &c.Origin, &sourceTension, &fed,
			&first, &last, &supporting); err != nil {
			return nil, err
		}
		c.Status = domain.ContradictionStatus(status)
		c.SourceTensionID = nullInt64Ptr(sourceTension)
		c.FedToRumination = fed == 1
		c.FirstDetectedAt = parseTime(first)
		c.LastActivatedAt = parseTime(last)
		c.SupportingConversationIDs = decodeJSON[int64](supporting)
		results = append(results, c)
	}
	return results, rows.Err()
}

var _ domain.IdentityContradictionStore = (*IdentityContradictionStore)(nil)
