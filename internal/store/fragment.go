package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type FragmentStore struct {
	db *sql.DB
}

func NewFragmentStore(db *sql.DB) *FragmentStore {
	return &FragmentStore{db: db}
}

const fragmentColumns = `id, user_id, fragment_type, content, source_quote, context, emotional_weight,
	tension_level, COALESCE(source_conversation_id, 0), processed, created_at`

func (s *FragmentStore) Create(ctx context.Context, f *domain.Fragment) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	var convID any
	if f.SourceConversationID != 0 {
		convID = f.SourceConversationID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rumination_fragments
		 (user_id, fragment_type, content, source_quote, context, emotional_weight, tension_level,
		  source_conversation_id, processed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.UserID, string(f.FragmentType), f.Content, f.SourceQuote, f.Context, f.EmotionalWeight, f.TensionLevel,
		convID, boolToInt(f.Processed), formatTime(f.CreatedAt),
	)
	if err != nil {
		return err
	}
	f.ID, err = res.LastInsertId()
	return err
}

func (s *FragmentStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Fragment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fragmentColumns+` FROM rumination_fragments
		 WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	return collectFragments(rows)
}

func (s *FragmentStore) ListUnprocessed(ctx context.Context, userID string, limit int) ([]domain.Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fragmentColumns+` FROM rumination_fragments
		 WHERE user_id = ? AND processed = 0
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectFragments(rows)
}

func (s *FragmentStore) ListProcessed(ctx context.Context, userID string, limit int) ([]domain.Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fragmentColumns+` FROM rumination_fragments
		 WHERE user_id = ? AND processed = 1
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectFragments(rows)
}

func (s *FragmentStore) ListSince(ctx context.Context, userID string, since time.Time, limit int) ([]domain.Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fragmentColumns+` FROM rumination_fragments
		 WHERE user_id = ? AND created_at > ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, formatTime(since), limit,
	)
	if err != nil {
		return nil, err
	}
	return collectFragments(rows)
}

func (s *FragmentStore) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fragmentColumns+` FROM rumination_fragments
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectFragments(rows)
}

func (s *FragmentStore) MarkProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE rumination_fragments SET processed = 1 WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	return err
}

func (s *FragmentStore) ListRecurring(ctx context.Context, userID string, minOccurrences int, minAvgWeight float64) ([]domain.RecurringFragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content, COUNT(*) AS occurrences, AVG(emotional_weight) AS avg_weight
		 FROM rumination_fragments
		 WHERE user_id = ?
		 GROUP BY content
		 HAVING COUNT(*) >= ? AND AVG(emotional_weight) > ?
		 ORDER BY occurrences DESC, avg_weight DESC`,
		userID, minOccurrences, minAvgWeight,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RecurringFragment
	for rows.Next() {
		var r domain.RecurringFragment
		if err := rows.Scan(&r.Content, &r.Occurrences, &r.AvgWeight); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *FragmentStore) Count(ctx context.Context, userID string) (int, int, error) {
	var total, unprocessed int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN processed = 0 THEN 1 ELSE 0 END), 0)
		 FROM rumination_fragments WHERE user_id = ?`,
		userID,
	).Scan(&total, &unprocessed)
	return total, unprocessed, err
}

func collectFragments(rows *sql.Rows) ([]domain.Fragment, error) {
	defer rows.Close()

	var results []domain.Fragment
	for rows.Next() {
		var f domain.Fragment
		var fragType, createdAt string
		var processed int
		if err := rows.Scan(&f.ID, &f.UserID, &fragType, &f.Content, &f.SourceQuote, &f.Context,
			&f.EmotionalWeight, &f.TensionLevel, &f.SourceConversationID, &processed, &createdAt); err != nil {
			return nil, err
		}
		f.FragmentType = domain.FragmentType(fragType)
		f.Processed = processed == 1
		f.CreatedAt = parseTime(createdAt)
		results = append(results, f)
	}
	return results, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var _ domain.FragmentStore = (*FragmentStore)(nil)
