package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type TensionStore struct {
	db *sql.DB
}

func NewTensionStore(db *sql.DB) *TensionStore {
	return &TensionStore{db: db}
}

const tensionColumns = `id, user_id, tension_type,
	pole_a_content, pole_a_type, pole_a_fragment_ids,
	pole_b_content, pole_b_type, pole_b_fragment_ids,
	tension_description, intensity, status, maturity_score, evidence_count, revisit_count,
	connected_tension_ids, first_detected_at, last_revisited_at, last_evidence_at,
	synthesis_generated_at, exported_to_identity_id, exported_at, source_contradiction_id`

func (s *TensionStore) Create(ctx context.Context, t *domain.Tension) error {
	return insertTension(ctx, s.db, t)
}

func insertTension(ctx context.Context, q queryer, t *domain.Tension) error {
	if t.FirstDetectedAt.IsZero() {
		t.FirstDetectedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = domain.TensionActive
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO rumination_tensions
		 (user_id, tension_type,
		  pole_a_content, pole_a_type, pole_a_fragment_ids,
		  pole_b_content, pole_b_type, pole_b_fragment_ids,
		  tension_description, intensity, status, maturity_score, evidence_count, revisit_count,
		  connected_tension_ids, first_detected_at, last_evidence_at, source_contradiction_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.TensionType),
		t.PoleA.Content, t.PoleA.Type, encodeJSON(t.PoleA.FragmentIDs),
		t.PoleB.Content, t.PoleB.Type, encodeJSON(t.PoleB.FragmentIDs),
		t.Description, t.Intensity, string(t.Status), t.MaturityScore, t.EvidenceCount, t.RevisitCount,
		encodeJSON(t.ConnectedTensionIDs), formatTime(t.FirstDetectedAt), formatNullTime(t.LastEvidenceAt),
		int64PtrArg(t.SourceContradictionID),
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *TensionStore) GetByID(ctx context.Context, id int64) (*domain.Tension, error) {
	t, err := scanTension(s.db.QueryRowContext(ctx,
		`SELECT `+tensionColumns+` FROM rumination_tensions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TensionStore) ListByStatus(ctx context.Context, userID string, statuses ...domain.TensionStatus) ([]domain.Tension, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := []any{userID}
	for _, st := range statuses {
		args = append(args, string(st))
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tensionColumns+` FROM rumination_tensions
		 WHERE user_id = ? AND status IN (`+placeholders(len(statuses))+`)
		 ORDER BY first_detected_at ASC, id ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	return collectTensions(rows)
}

func (s *TensionStore) ListReady(ctx context.Context, userID string, limit int) ([]domain.Tension, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tensionColumns+` FROM rumination_tensions
		 WHERE user_id = ? AND status = ?
		 ORDER BY maturity_score DESC, intensity DESC, id ASC
		 LIMIT ?`,
		userID, string(domain.TensionReady), limit,
	)
	if err != nil {
		return nil, err
	}
	return collectTensions(rows)
}

func (s *TensionStore) CountOpen(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rumination_tensions WHERE user_id = ? AND status IN (?, ?, ?)`,
		userID, string(domain.TensionActive), string(domain.TensionMaturing), string(domain.TensionReady),
	).Scan(&n)
	return n, err
}

func (s *TensionStore) UpdateDigest(ctx context.Context, t *domain.Tension) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rumination_tensions
		 SET maturity_score = ?, revisit_count = ?, last_revisited_at = ?, status = ?,
		     evidence_count = ?, last_evidence_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		t.MaturityScore, t.RevisitCount, formatNullTime(t.LastRevisitedAt), string(t.Status),
		t.EvidenceCount, formatNullTime(t.LastEvidenceAt),
		t.ID, string(domain.TensionActive), string(domain.TensionMaturing),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListExportable skips tensions fed in from identity contradictions so they
// are never exported back as a second copy.
func (s *TensionStore) ListExportable(ctx context.Context, userID string, minMaturity float64) ([]domain.Tension, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tensionColumns+` FROM rumination_tensions
		 WHERE user_id = ?
		   AND maturity_score > ?
		   AND exported_to_identity_id IS NULL
		   AND source_contradiction_id IS NULL
		   AND status NOT IN (?, ?)
		 ORDER BY maturity_score DESC, id ASC`,
		userID, minMaturity, string(domain.TensionResolved), string(domain.TensionArchived),
	)
	if err != nil {
		return nil, err
	}
	return collectTensions(rows)
}

func (s *TensionStore) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	return countByStatus(ctx, s.db, "rumination_tensions", userID)
}

func countByStatus(ctx context.Context, db *sql.DB, table, userID string) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM `+table+` WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanTension(row rowScanner) (*domain.Tension, error) {
	var t domain.Tension
	var tensionType, status, aIDs, bIDs, connected, firstDetected string
	var lastRevisited, lastEvidence, synthesized, exportedAt sql.NullString
	var exportedTo, sourceContradiction sql.NullInt64

	if err := row.Scan(&t.ID, &t.UserID, &tensionType,
		&t.PoleA.Content, &t.PoleA.Type, &aIDs,
		&t.PoleB.Content, &t.PoleB.Type, &bIDs,
		&t.Description, &t.Intensity, &status, &t.MaturityScore, &t.EvidenceCount, &t.RevisitCount,
		&connected, &firstDetected, &lastRevisited, &lastEvidence,
		&synthesized, &exportedTo, &exportedAt, &sourceContradiction); err != nil {
		return nil, err
	}

	t.TensionType = domain.TensionType(tensionType)
	t.Status = domain.TensionStatus(status)
	t.PoleA.FragmentIDs = decodeJSON[int64](aIDs)
	t.PoleB.FragmentIDs = decodeJSON[int64](bIDs)
	t.ConnectedTensionIDs = decodeJSON[int64](connected)
	t.FirstDetectedAt = parseTime(firstDetected)
	t.LastRevisitedAt = parseNullTime(lastRevisited)
	t.LastEvidenceAt = parseNullTime(lastEvidence)
	t.SynthesisGeneratedAt = parseNullTime(synthesized)
	t.ExportedToIdentityID = nullInt64Ptr(exportedTo)
	t.ExportedAt = parseNullTime(exportedAt)
	t.SourceContradictionID = nullInt64Ptr(sourceContradiction)
	return &t, nil
}

func collectTensions(rows *sql.Rows) ([]domain.Tension, error) {
	defer rows.Close()

	var results []domain.Tension
	for rows.Next() {
		t, err := scanTension(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *t)
	}
	return results, rows.Err()
}

var _ domain.TensionStore = (*TensionStore)(nil)
