package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type AgencyStore struct {
	db *sql.DB
}

func NewAgencyStore(db *sql.DB) *AgencyStore {
	return &AgencyStore{db: db}
}

func (s *AgencyStore) Create(ctx context.Context, e *domain.AgencyEvent) error {
	if e.EventDate.IsZero() {
		e.EventDate = time.Now().UTC()
	}
	var convID any
	if e.ConversationID != 0 {
		convID = e.ConversationID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_agency_memory
		 (agent_instance, event_description, conversation_id, event_date, agency_type, locus,
		  responsibility, impact_on_identity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.AgentInstance, e.EventDescription, convID, formatTime(e.EventDate), e.AgencyType, e.Locus,
		e.Responsibility, e.ImpactOnIdentity,
	)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

var _ domain.AgencyStore = (*AgencyStore)(nil)
