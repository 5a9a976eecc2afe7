package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type RuminationLogStore struct {
	db *sql.DB
}

func NewRuminationLogStore(db *sql.DB) *RuminationLogStore {
	return &RuminationLogStore{db: db}
}

func (s *RuminationLogStore) Create(ctx context.Context, l *domain.RuminationLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rumination_log
		 (user_id, phase, operation, input_summary, output_summary,
		  affected_fragment_ids, affected_tension_ids, affected_insight_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, string(l.Phase), l.Operation, l.InputSummary, l.OutputSummary,
		encodeJSON(l.AffectedFragmentIDs), encodeJSON(l.AffectedTensionIDs), encodeJSON(l.AffectedInsightIDs),
		formatTime(l.CreatedAt),
	)
	if err != nil {
		return err
	}
	l.ID, err = res.LastInsertId()
	return err
}

func (s *RuminationLogStore) ListRecent(ctx context.Context, userID string, limit int) ([]domain.RuminationLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, phase, operation, input_summary, output_summary,
		        affected_fragment_ids, affected_tension_ids, affected_insight_ids, created_at
		 FROM rumination_log
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RuminationLog
	for rows.Next() {
		var l domain.RuminationLog
		var phase, frags, tensions, insights, createdAt string
		if err := rows.Scan(&l.ID, &l.UserID, &phase, &l.Operation, &l.InputSummary, &l.OutputSummary,
			&frags, &tensions, &insights, &createdAt); err != nil {
			return nil, err
		}
		l.Phase = domain.RuminationPhase(phase)
		l.AffectedFragmentIDs = decodeJSON[int64](frags)
		l.AffectedTensionIDs = decodeJSON[int64](tensions)
		l.AffectedInsightIDs = decodeJSON[int64](insights)
		l.CreatedAt = parseTime(createdAt)
		results = append(results, l)
	}
	return results, rows.Err()
}

var _ domain.RuminationLogStore = (*RuminationLogStore)(nil)
