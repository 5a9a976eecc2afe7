package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type PossibleSelfStore struct {
	db *sql.DB
}

func NewPossibleSelfStore(db *sql.DB) *PossibleSelfStore {
	return &PossibleSelfStore{db: db}
}

const possibleSelfColumns = `id, agent_instance, self_type, description, vividness, likelihood,
	motivational_impact, emotional_valence, status, first_imagined_at, last_revised_at`

func (s *PossibleSelfStore) Create(ctx context.Context, p *domain.PossibleSelf) error {
	return insertPossibleSelf(ctx, s.db, p)
}

func insertPossibleSelf(ctx context.Context, q queryer, p *domain.PossibleSelf) error {
	now := time.Now().UTC()
	if p.FirstImaginedAt.IsZero() {
		p.FirstImaginedAt = now
	}
	if p.LastRevisedAt.IsZero() {
		p.LastRevisedAt = p.FirstImaginedAt
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if p.MotivationalImpact == "" {
		p.MotivationalImpact = p.SelfType.MotivationalImpact()
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO agent_possible_selves
		 (agent_instance, self_type, description, vividness, likelihood, motivational_impact,
		  emotional_valence, status, first_imagined_at, last_revised_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AgentInstance, string(p.SelfType), p.Description, p.Vividness, p.Likelihood,
		p.MotivationalImpact, p.EmotionalValence, p.Status,
		formatTime(p.FirstImaginedAt), formatTime(p.LastRevisedAt),
	)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *PossibleSelfStore) FindActiveByDescription(ctx context.Context, agentInstance, description string) (*domain.PossibleSelf, error) {
	p, err := findActiveSelf(ctx, s.db, agentInstance, description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func findActiveSelf(ctx context.Context, q queryer, agentInstance, description string) (*domain.PossibleSelf, error) {
	return scanPossibleSelf(q.QueryRowContext(ctx,
		`SELECT `+possibleSelfColumns+` FROM agent_possible_selves
		 WHERE agent_instance = ? AND description = ? AND status = 'active'
		 ORDER BY id LIMIT 1`,
		agentInstance, description))
}

func (s *PossibleSelfStore) UpdateVividness(ctx context.Context, id int64, vividness float64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agent_possible_selves SET vividness = ?, last_revised_at = ? WHERE id = ?`,
		vividness, formatTime(at), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PossibleSelfStore) ListActive(ctx context.Context, agentInstance string, limit int) ([]domain.PossibleSelf, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+possibleSelfColumns+` FROM agent_possible_selves
		 WHERE agent_instance = ? AND status = 'active'
		 ORDER BY vividness DESC, id ASC LIMIT ?`,
		agentInstance, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.PossibleSelf
	for rows.Next() {
		p, err := scanPossibleSelf(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *p)
	}
	return results, rows.Err()
}

func scanPossibleSelf(row rowScanner) (*domain.PossibleSelf, error) {
	var p domain.PossibleSelf
	var selfType, first, last string
	if err := row.Scan(&p.ID, &p.AgentInstance, &selfType, &p.Description, &p.Vividness, &p.Likelihood,
		&p.MotivationalImpact, &p.EmotionalValence, &p.Status, &first, &last); err != nil {
		return nil, err
	}
	p.SelfType = domain.SelfType(selfType)
	p.FirstImaginedAt = parseTime(first)
	p.LastRevisedAt = parseTime(last)
	return &p, nil
}

var _ domain.PossibleSelfStore = (*PossibleSelfStore)(nil)
