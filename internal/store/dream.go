package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type DreamStore struct {
	db *sql.DB
}

func NewDreamStore(db *sql.DB) *DreamStore {
	return &DreamStore{db: db}
}

func (s *DreamStore) Create(ctx context.Context, d *domain.Dream) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_dreams (user_id, dream_content, symbolic_theme, extracted_insight, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.UserID, d.DreamContent, d.SymbolicTheme, d.ExtractedInsight, formatTime(d.CreatedAt),
	)
	if err != nil {
		return err
	}
	d.ID, err = res.LastInsertId()
	return err
}

func (s *DreamStore) UpdateInsight(ctx context.Context, id int64, insight string) error {
	return s.update(ctx, `UPDATE agent_dreams SET extracted_insight = ? WHERE id = ?`, insight, id)
}

func (s *DreamStore) UpdateImage(ctx context.Context, id int64, url, prompt string) error {
	return s.update(ctx, `UPDATE agent_dreams SET image_url = ?, image_prompt = ? WHERE id = ?`, url, prompt, id)
}

func (s *DreamStore) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DreamStore) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Dream, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, dream_content, symbolic_theme, extracted_insight, image_url, image_prompt, created_at
		 FROM agent_dreams WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Dream
	for rows.Next() {
		var d domain.Dream
		var created string
		if err := rows.Scan(&d.ID, &d.UserID, &d.DreamContent, &d.SymbolicTheme, &d.ExtractedInsight,
			&d.ImageURL, &d.ImagePrompt, &created); err != nil {
			return nil, err
		}
		d.CreatedAt = parseTime(created)
		results = append(results, d)
	}
	return results, rows.Err()
}

// ResearchStore persists scholar articles in external_research.
type ResearchStore struct {
	db *sql.DB
}

func NewResearchStore(db *sql.DB) *ResearchStore {
	return &ResearchStore{db: db}
}

func (s *ResearchStore) Create(ctx context.Context, r *domain.Research) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO external_research (user_id, topic, source_url, raw_excerpt, synthesized_insight, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Topic, r.SourceURL, r.RawExcerpt, r.SynthesizedInsight, formatTime(r.CreatedAt),
	)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

// ExistsSince reports whether topic was researched at or after since. Topics
// compare case-insensitively.
func (s *ResearchStore) ExistsSince(ctx context.Context, userID, topic string, since time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM external_research
		 WHERE user_id = ? AND lower(topic) = lower(?) AND created_at >= ?`,
		userID, topic, formatTime(since),
	).Scan(&n)
	return n > 0, err
}

var (
	_ domain.DreamStore    = (*DreamStore)(nil)
	_ domain.ResearchStore = (*ResearchStore)(nil)
)
