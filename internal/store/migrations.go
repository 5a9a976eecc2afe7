package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates every table and index. Statements are idempotent and run in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          TEXT    NOT NULL,
			user_input       TEXT    NOT NULL,
			ai_response      TEXT    NOT NULL DEFAULT '',
			tension_level    REAL    NOT NULL DEFAULT 0,
			affective_charge REAL    NOT NULL DEFAULT 0,
			platform         TEXT    NOT NULL DEFAULT 'telegram',
			session_id       TEXT,
			created_at       TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS rumination_fragments (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id                TEXT    NOT NULL,
			fragment_type          TEXT    NOT NULL,
			content                TEXT    NOT NULL,
			source_quote           TEXT    NOT NULL DEFAULT '',
			context                TEXT    NOT NULL DEFAULT '',
			emotional_weight       REAL    NOT NULL DEFAULT 0,
			tension_level          REAL    NOT NULL DEFAULT 0,
			source_conversation_id INTEGER,
			processed              INTEGER NOT NULL DEFAULT 0,
			created_at             TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_user_processed ON rumination_fragments(user_id, processed)`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_user_created ON rumination_fragments(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS rumination_tensions (
			id                      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id                 TEXT    NOT NULL,
			tension_type            TEXT    NOT NULL,
			pole_a_content          TEXT    NOT NULL,
			pole_a_type             TEXT    NOT NULL DEFAULT '',
			pole_a_fragment_ids     TEXT    NOT NULL DEFAULT '[]',
			pole_b_content          TEXT    NOT NULL,
			pole_b_type             TEXT    NOT NULL DEFAULT '',
			pole_b_fragment_ids     TEXT    NOT NULL DEFAULT '[]',
			tension_description     TEXT    NOT NULL DEFAULT '',
			intensity               REAL    NOT NULL DEFAULT 0,
			status                  TEXT    NOT NULL DEFAULT 'active',
			maturity_score          REAL    NOT NULL DEFAULT 0,
			evidence_count          INTEGER NOT NULL DEFAULT 0,
			revisit_count           INTEGER NOT NULL DEFAULT 0,
			connected_tension_ids   TEXT    NOT NULL DEFAULT '[]',
			first_detected_at       TEXT    NOT NULL DEFAULT (datetime('now')),
			last_revisited_at       TEXT,
			last_evidence_at        TEXT,
			synthesis_generated_at  TEXT,
			exported_to_identity_id INTEGER,
			exported_at             TEXT,
			source_contradiction_id INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tensions_user_status ON rumination_tensions(user_id, status)`,

		`CREATE TABLE IF NOT EXISTS rumination_insights (
			id                      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id                 TEXT    NOT NULL,
			source_tension_id       INTEGER NOT NULL REFERENCES rumination_tensions(id),
			insight_content         TEXT    NOT NULL,
			symbolic_interpretation TEXT    NOT NULL DEFAULT '',
			question_content        TEXT    NOT NULL DEFAULT '',
			synthesis_level         TEXT    NOT NULL DEFAULT 'reflective',
			depth_score             REAL    NOT NULL DEFAULT 0.5,
			novelty_score           REAL    NOT NULL DEFAULT 0.8,
			maturation_days         INTEGER NOT NULL DEFAULT 0,
			status                  TEXT    NOT NULL DEFAULT 'ready',
			crystallized_at         TEXT    NOT NULL DEFAULT (datetime('now')),
			delivered_at            TEXT,
			exported_to_identity_id INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_user_status ON rumination_insights(user_id, status)`,

		`CREATE TABLE IF NOT EXISTS rumination_log (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id               TEXT    NOT NULL,
			phase                 TEXT    NOT NULL,
			operation             TEXT    NOT NULL,
			input_summary         TEXT    NOT NULL DEFAULT '',
			output_summary        TEXT    NOT NULL DEFAULT '',
			affected_fragment_ids TEXT    NOT NULL DEFAULT '[]',
			affected_tension_ids  TEXT    NOT NULL DEFAULT '[]',
			affected_insight_ids  TEXT    NOT NULL DEFAULT '[]',
			created_at            TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rumination_log_user ON rumination_log(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS agent_identity_core (
			id                          INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_instance              TEXT    NOT NULL,
			attribute_type              TEXT    NOT NULL,
			content                     TEXT    NOT NULL,
			certainty                   REAL    NOT NULL DEFAULT 0.5,
			is_current                  INTEGER NOT NULL DEFAULT 1,
			first_crystallized_at       TEXT    NOT NULL DEFAULT (datetime('now')),
			last_reaffirmed_at          TEXT    NOT NULL DEFAULT (datetime('now')),
			supporting_conversation_ids TEXT    NOT NULL DEFAULT '[]',
			emerged_in_relation_to      TEXT    NOT NULL DEFAULT '',
			source_insight_id           INTEGER
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_identity_core_current
			ON agent_identity_core(agent_instance, content) WHERE is_current = 1`,

		`CREATE TABLE IF NOT EXISTS agent_identity_contradictions (
			id                          INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_instance              TEXT    NOT NULL,
			pole_a                      TEXT    NOT NULL,
			pole_b                      TEXT    NOT NULL,
			contradiction_type          TEXT    NOT NULL DEFAULT '',
			tension_level               REAL    NOT NULL DEFAULT 0,
			salience                    REAL    NOT NULL DEFAULT 0,
			status                      TEXT    NOT NULL DEFAULT 'unresolved',
			origin                      TEXT    NOT NULL DEFAULT 'conversation',
			source_tension_id           INTEGER,
			fed_to_rumination           INTEGER NOT NULL DEFAULT 0,
			first_detected_at           TEXT    NOT NULL DEFAULT (datetime('now')),
			last_activated_at           TEXT    NOT NULL DEFAULT (datetime('now')),
			supporting_conversation_ids TEXT    NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_identity_contradictions_status
			ON agent_identity_contradictions(agent_instance, status)`,

		`CREATE TABLE IF NOT EXISTS agent_possible_selves (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_instance      TEXT    NOT NULL,
			self_type           TEXT    NOT NULL,
			description         TEXT    NOT NULL,
			vividness           REAL    NOT NULL DEFAULT 0.5,
			likelihood          REAL    NOT NULL DEFAULT 0.5,
			motivational_impact TEXT    NOT NULL DEFAULT '',
			emotional_valence   TEXT    NOT NULL DEFAULT '',
			status              TEXT    NOT NULL DEFAULT 'active',
			first_imagined_at   TEXT    NOT NULL DEFAULT (datetime('now')),
			last_revised_at     TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_possible_selves_active
			ON agent_possible_selves(agent_instance, status)`,

		`CREATE TABLE IF NOT EXISTS agent_narrative_chapters (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_instance      TEXT    NOT NULL,
			chapter_name        TEXT    NOT NULL,
			chapter_order       INTEGER NOT NULL,
			period_start        TEXT    NOT NULL DEFAULT (datetime('now')),
			period_end          TEXT,
			dominant_theme      TEXT    NOT NULL DEFAULT '',
			emotional_tone      TEXT    NOT NULL DEFAULT '',
			dominant_locus      TEXT    NOT NULL DEFAULT '',
			agency_level        REAL    NOT NULL DEFAULT 0.5,
			key_scenes          TEXT    NOT NULL DEFAULT '[]',
			narrative_coherence REAL    NOT NULL DEFAULT 0.5
		)`,
		`CREATE INDEX IF NOT EXISTS idx_narrative_chapters_order
			ON agent_narrative_chapters(agent_instance, chapter_order)`,

		`CREATE TABLE IF NOT EXISTS agent_agency_memory (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_instance     TEXT    NOT NULL,
			event_description  TEXT    NOT NULL,
			conversation_id    INTEGER,
			event_date         TEXT    NOT NULL DEFAULT (datetime('now')),
			agency_type        TEXT    NOT NULL DEFAULT '',
			locus              TEXT    NOT NULL DEFAULT '',
			responsibility     REAL    NOT NULL DEFAULT 0,
			impact_on_identity REAL    NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS agent_identity_extractions (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id    INTEGER NOT NULL,
			agent_instance     TEXT    NOT NULL,
			elements_count     INTEGER NOT NULL DEFAULT 0,
			processing_time_ms INTEGER NOT NULL DEFAULT 0,
			error              TEXT    NOT NULL DEFAULT '',
			extracted_at       TEXT    NOT NULL DEFAULT (datetime('now')),
			UNIQUE (conversation_id, agent_instance)
		)`,

		`CREATE TABLE IF NOT EXISTS agent_dreams (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id           TEXT    NOT NULL,
			dream_content     TEXT    NOT NULL,
			symbolic_theme    TEXT    NOT NULL DEFAULT '',
			extracted_insight TEXT    NOT NULL DEFAULT '',
			image_url         TEXT    NOT NULL DEFAULT '',
			image_prompt      TEXT    NOT NULL DEFAULT '',
			created_at        TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS external_research (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             TEXT    NOT NULL,
			topic               TEXT    NOT NULL,
			source_url          TEXT    NOT NULL DEFAULT '',
			raw_excerpt         TEXT    NOT NULL DEFAULT '',
			synthesized_insight TEXT    NOT NULL DEFAULT '',
			created_at          TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_external_research_topic ON external_research(user_id, topic)`,
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i, err)
		}
	}
	return nil
}
