package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// NarrativeStore keeps the agent's chapters. At most one chapter is open at a time.
type NarrativeStore struct {
	db *sql.DB
}

func NewNarrativeStore(db *sql.DB) *NarrativeStore {
	return &NarrativeStore{db: db}
}

const chapterColumns = `id, agent_instance, chapter_name, chapter_order, period_start, period_end,
	dominant_theme, emotional_tone, dominant_locus, agency_level, key_scenes`

func (s *NarrativeStore) Current(ctx context.Context, agentInstance string) (*domain.NarrativeChapter, error) {
	c, err := scanChapter(s.db.QueryRowContext(ctx,
		`SELECT `+chapterColumns+` FROM agent_narrative_chapters
		 WHERE agent_instance = ? AND period_end IS NULL
		 ORDER BY chapter_order DESC LIMIT 1`,
		agentInstance))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *NarrativeStore) List(ctx context.Context, agentInstance string) ([]domain.NarrativeChapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chapterColumns+` FROM agent_narrative_chapters
		 WHERE agent_instance = ? ORDER BY chapter_order ASC`,
		agentInstance,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.NarrativeChapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *c)
	}
	return results, rows.Err()
}

// Open closes the current chapter, if any, and starts c after it.
func (s *NarrativeStore) Open(ctx context.Context, c *domain.NarrativeChapter) error {
	if c.PeriodStart.IsZero() {
		c.PeriodStart = time.Now().UTC()
	}
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE agent_narrative_chapters SET period_end = ?
			 WHERE agent_instance = ? AND period_end IS NULL`,
			formatTime(c.PeriodStart), c.AgentInstance,
		); err != nil {
			return err
		}

		var maxOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(chapter_order) FROM agent_narrative_chapters WHERE agent_instance = ?`,
			c.AgentInstance,
		).Scan(&maxOrder); err != nil {
			return err
		}
		c.ChapterOrder = int(maxOrder.Int64) + 1
		c.PeriodEnd = nil

		res, err := tx.ExecContext(ctx,
			`INSERT INTO agent_narrative_chapters
			 (agent_instance, chapter_name, chapter_order, period_start, dominant_theme,
			  emotional_tone, dominant_locus, agency_level, key_scenes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.AgentInstance, c.ChapterName, c.ChapterOrder, formatTime(c.PeriodStart), c.DominantTheme,
			c.EmotionalTone, c.DominantLocus, c.AgencyLevel, encodeJSON(c.KeyScenes),
		)
		if err != nil {
			return err
		}
		c.ID, err = res.LastInsertId()
		return err
	})
}

func (s *NarrativeStore) AppendKeyScene(ctx context.Context, id int64, scene string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agent_narrative_chapters
		 SET key_scenes = json_insert(key_scenes, '$[#]', ?)
		 WHERE id = ?`,
		scene, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanChapter(row rowScanner) (*domain.NarrativeChapter, error) {
	var c domain.NarrativeChapter
	var start, scenes string
	var end sql.NullString
	if err := row.Scan(&c.ID, &c.AgentInstance, &c.ChapterName, &c.ChapterOrder, &start, &end,
		&c.DominantTheme, &c.EmotionalTone, &c.DominantLocus, &c.AgencyLevel, &scenes); err != nil {
		return nil, err
	}
	c.PeriodStart = parseTime(start)
	c.PeriodEnd = parseNullTime(end)
	c.KeyScenes = decodeJSON[string](scenes)
	return &c, nil
}

var _ domain.NarrativeStore = (*NarrativeStore)(nil)
