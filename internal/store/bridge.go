package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// BridgeStore moves material between the rumination and identity tables.
// Each transfer reads its marker, writes the target row and sets the marker
// inside one IMMEDIATE transaction, so concurrent bridge runs cannot both
// claim the same source row.
type BridgeStore struct {
	db *sql.DB
}

func NewBridgeStore(db *sql.DB) *BridgeStore {
	return &BridgeStore{db: db}
}

// ExportTension turns a mature tension into an identity contradiction.
func (s *BridgeStore) ExportTension(ctx context.Context, tensionID int64, c *domain.Contradiction) (domain.ClaimOutcome, error) {
	outcome := domain.ClaimSkipped
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var marker sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT exported_to_identity_id FROM rumination_tensions WHERE id = ?`, tensionID,
		).Scan(&marker); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if marker.Valid {
			return nil
		}

		c.SourceTensionID = &tensionID
		if err := insertContradiction(ctx, tx, c); err != nil {
			return fmt.Errorf("insert contradiction: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE rumination_tensions SET exported_to_identity_id = ?, exported_at = ? WHERE id = ?`,
			c.ID, formatTime(c.FirstDetectedAt), tensionID,
		); err != nil {
			return fmt.Errorf("mark tension exported: %w", err)
		}
		outcome = domain.ClaimInserted
		return nil
	})
	if err != nil {
		return domain.ClaimSkipped, err
	}
	return outcome, nil
}

// ExportInsight crystallizes a symbolic insight into a core attribute. When a
// current attribute already carries the same content, the insight is marked
// with 0 so it is not retried.
func (s *BridgeStore) ExportInsight(ctx context.Context, insightID int64, a *domain.CoreAttribute) (domain.ClaimOutcome, error) {
	outcome := domain.ClaimSkipped
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var marker sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT exported_to_identity_id FROM rumination_insights WHERE id = ?`, insightID,
		).Scan(&marker); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if marker.Valid {
			return nil
		}

		var exportedID int64
		err := insertCoreAttribute(ctx, tx, a, &insightID)
		switch {
		case errors.Is(err, ErrConflict):
			outcome = domain.ClaimDeduplicated
		case err != nil:
			return fmt.Errorf("insert core attribute: %w", err)
		default:
			exportedID = a.ID
			outcome = domain.ClaimInserted
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE rumination_insights SET exported_to_identity_id = ? WHERE id = ?`,
			exportedID, insightID,
		); err != nil {
			return fmt.Errorf("mark insight exported: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.ClaimSkipped, err
	}
	return outcome, nil
}

// AdoptPossibleSelf inserts p unless an active self with the same description exists.
func (s *BridgeStore) AdoptPossibleSelf(ctx context.Context, p *domain.PossibleSelf) (domain.ClaimOutcome, error) {
	outcome := domain.ClaimSkipped
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := findActiveSelf(ctx, tx, p.AgentInstance, p.Description)
		switch {
		case err == nil:
			p.ID = existing.ID
			outcome = domain.ClaimDeduplicated
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if err := insertPossibleSelf(ctx, tx, p); err != nil {
			return fmt.Errorf("insert possible self: %w", err)
		}
		outcome = domain.ClaimInserted
		return nil
	})
	if err != nil {
		return domain.ClaimSkipped, err
	}
	return outcome, nil
}

// FeedContradiction flags the contradiction as fed and opens t in its place.
func (s *BridgeStore) FeedContradiction(ctx context.Context, contradictionID int64, t *domain.Tension) (domain.ClaimOutcome, error) {
	outcome := domain.ClaimSkipped
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE agent_identity_contradictions SET fed_to_rumination = 1
			 WHERE id = ? AND fed_to_rumination = 0`,
			contradictionID,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		t.SourceContradictionID = &contradictionID
		if err := insertTension(ctx, tx, t); err != nil {
			return fmt.Errorf("insert tension: %w", err)
		}
		outcome = domain.ClaimInserted
		return nil
	})
	if err != nil {
		return domain.ClaimSkipped, err
	}
	return outcome, nil
}

var _ domain.BridgeStore = (*BridgeStore)(nil)
