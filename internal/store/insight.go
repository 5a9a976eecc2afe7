package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type InsightStore struct {
	db *sql.DB
}

func NewInsightStore(db *sql.DB) *InsightStore {
	return &InsightStore{db: db}
}

const insightColumns = `id, user_id, source_tension_id, insight_content, symbolic_interpretation, question_content,
	synthesis_level, depth_score, novelty_score, maturation_days, status, crystallized_at, delivered_at,
	exported_to_identity_id`

// CreateFromTension only succeeds while the source tension is still ready;
// a concurrent synthesis of the same tension gets ErrConflict.
func (s *InsightStore) CreateFromTension(ctx context.Context, in *domain.Insight) error {
	if in.CrystallizedAt.IsZero() {
		in.CrystallizedAt = time.Now().UTC()
	}
	if in.Status == "" {
		in.Status = domain.InsightReady
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE rumination_tensions SET status = ?, synthesis_generated_at = ?
			 WHERE id = ? AND status = ?`,
			string(domain.TensionSynthesized), formatTime(in.CrystallizedAt),
			in.SourceTensionID, string(domain.TensionReady),
		)
		if err != nil {
			return fmt.Errorf("mark tension synthesized: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrConflict
		}

		res, err = tx.ExecContext(ctx,
			`INSERT INTO rumination_insights
			 (user_id, source_tension_id, insight_content, symbolic_interpretation, question_content,
			  synthesis_level, depth_score, novelty_score, maturation_days, status, crystallized_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.UserID, in.SourceTensionID, in.InsightContent, in.SymbolicInterpretation, in.Question,
			string(in.SynthesisLevel), in.DepthScore, in.NoveltyScore, in.MaturationDays,
			string(in.Status), formatTime(in.CrystallizedAt),
		)
		if err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
		in.ID, err = res.LastInsertId()
		return err
	})
}

func (s *InsightStore) GetByID(ctx context.Context, id int64) (*domain.Insight, error) {
	in, err := scanInsight(s.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM rumination_insights WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return in, nil
}

func (s *InsightStore) ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]domain.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+insightColumns+` FROM rumination_insights
		 WHERE user_id = ? AND crystallized_at > ?
		 ORDER BY crystallized_at DESC, id DESC LIMIT ?`,
		userID, formatTime(since), limit,
	)
	if err != nil {
		return nil, err
	}
	return collectInsights(rows)
}

func (s *InsightStore) NextReady(ctx context.Context, userID string) (*domain.Insight, error) {
	in, err := scanInsight(s.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM rumination_insights
		 WHERE user_id = ? AND status = ?
		 ORDER BY depth_score DESC, crystallized_at ASC, id ASC
		 LIMIT 1`,
		userID, string(domain.InsightReady)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return in, nil
}

func (s *InsightStore) LastDeliveredAt(ctx context.Context, userID string) (*time.Time, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(delivered_at) FROM rumination_insights WHERE user_id = ? AND status = ?`,
		userID, string(domain.InsightDelivered),
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return parseNullTime(last), nil
}

func (s *InsightStore) CountDeliveredSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rumination_insights
		 WHERE user_id = ? AND status = ? AND delivered_at >= ?`,
		userID, string(domain.InsightDelivered), formatTime(since),
	).Scan(&n)
	return n, err
}

func (s *InsightStore) ClaimDelivery(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rumination_insights SET status = ?, delivered_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.InsightDelivered), formatTime(at), id, string(domain.InsightReady),
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

func (s *InsightStore) ListExportable(ctx context.Context, userID string) ([]domain.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+insightColumns+` FROM rumination_insights
		 WHERE user_id = ? AND synthesis_level = ? AND exported_to_identity_id IS NULL
		 ORDER BY crystallized_at ASC, id ASC`,
		userID, string(domain.SynthesisSymbolic),
	)
	if err != nil {
		return nil, err
	}
	return collectInsights(rows)
}

func (s *InsightStore) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	return countByStatus(ctx, s.db, "rumination_insights", userID)
}

func scanInsight(row rowScanner) (*domain.Insight, error) {
	var in domain.Insight
	var level, status, crystallized string
	var delivered sql.NullString
	var exported sql.NullInt64
	if err := row.Scan(&in.ID, &in.UserID, &in.SourceTensionID, &in.InsightContent, &in.SymbolicInterpretation,
		&in.Question, &level, &in.DepthScore, &in.NoveltyScore, &in.MaturationDays, &status,
		&crystallized, &delivered, &exported); err != nil {
		return nil, err
	}
	in.SynthesisLevel = domain.SynthesisLevel(level)
	in.Status = domain.InsightStatus(status)
	in.CrystallizedAt = parseTime(crystallized)
	in.DeliveredAt = parseNullTime(delivered)
	in.ExportedToIdentityID = nullInt64Ptr(exported)
	return &in, nil
}

func collectInsights(rows *sql.Rows) ([]domain.Insight, error) {
	defer rows.Close()

	var results []domain.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *in)
	}
	return results, rows.Err()
}

var _ domain.InsightStore = (*InsightStore)(nil)
