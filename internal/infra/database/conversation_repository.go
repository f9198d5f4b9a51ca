package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/previdas/kommo-bridge/internal/entity"
)

// Backend Postgres opcional dos stores de estado (escolhido quando
// DATABASE_URL está setada). Tabelas esperadas:
//
//	conversations(contact_id int primary key, conversation_id text,
//	  salesperson text, practice_area text, "trigger" text, lead_id int,
//	  initiated_by_automation bool, first_reply_received bool, active bool,
//	  created_at timestamptz, paused_at timestamptz, resumed_at timestamptz,
//	  first_reply_at timestamptz, lead_snapshot jsonb)
//	bot_status(contact_id int primary key, active bool, updated_at timestamptz)

type ConversationRepository struct {
	DB *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

func (r *ConversationRepository) Get(ctx context.Context, contactID int) (*entity.ConversationState, error) {
	query := `
		SELECT contact_id, conversation_id, salesperson, practice_area, "trigger",
		       lead_id, initiated_by_automation, first_reply_received, active,
		       created_at, paused_at, resumed_at, first_reply_at, lead_snapshot
		FROM conversations
		WHERE contact_id = $1
	`

	var state entity.ConversationState
	var trigger string
	var snapshot []byte

	err := r.DB.QueryRowContext(ctx, query, contactID).Scan(
		&state.ContactID,
		&state.ConversationID,
		&state.Salesperson,
		&state.PracticeArea,
		&trigger,
		&state.LeadID,
		&state.InitiatedByAutomation,
		&state.FirstReplyReceived,
		&state.Active,
		&state.CreatedAt,
		&state.PausedAt,
		&state.ResumedAt,
		&state.FirstReplyAt,
		&snapshot,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state.Trigger = entity.Trigger(trigger)
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &state.LeadSnapshot); err != nil {
			state.LeadSnapshot = nil
		}
	}
	return &state, nil
}

func (r *ConversationRepository) Save(ctx context.Context, state *entity.ConversationState) error {
	snapshot, err := json.Marshal(state.LeadSnapshot)
	if err != nil {
		snapshot = []byte("{}")
	}

	query := `
		INSERT INTO conversations (
			contact_id, conversation_id, salesperson, practice_area, "trigger",
			lead_id, initiated_by_automation, first_reply_received, active,
			created_at, paused_at, resumed_at, first_reply_at, lead_snapshot
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (contact_id)
		DO UPDATE SET
			conversation_id = EXCLUDED.conversation_id,
			salesperson = EXCLUDED.salesperson,
			practice_area = EXCLUDED.practice_area,
			"trigger" = EXCLUDED."trigger",
			lead_id = EXCLUDED.lead_id,
			initiated_by_automation = EXCLUDED.initiated_by_automation,
			first_reply_received = EXCLUDED.first_reply_received,
			active = EXCLUDED.active,
			paused_at = EXCLUDED.paused_at,
			resumed_at = EXCLUDED.resumed_at,
			first_reply_at = EXCLUDED.first_reply_at,
			lead_snapshot = EXCLUDED.lead_snapshot
	`

	_, err = r.DB.ExecContext(ctx, query,
		state.ContactID,
		state.ConversationID,
		state.Salesperson,
		state.PracticeArea,
		string(state.Trigger),
		state.LeadID,
		state.InitiatedByAutomation,
		state.FirstReplyReceived,
		state.Active,
		state.CreatedAt,
		state.PausedAt,
		state.ResumedAt,
		state.FirstReplyAt,
		snapshot,
	)
	return err
}

func (r *ConversationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

type BotStatusRepository struct {
	DB *sql.DB
}

func NewBotStatusRepository(db *sql.DB) *BotStatusRepository {
	return &BotStatusRepository{DB: db}
}

// IsActive retorna true para contato sem linha (ativo por padrão).
func (r *BotStatusRepository) IsActive(ctx context.Context, contactID int) (bool, error) {
	var active bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT active FROM bot_status WHERE contact_id = $1`, contactID,
	).Scan(&active)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return active, nil
}

func (r *BotStatusRepository) SetActive(ctx context.Context, contactID int, active bool) error {
	query := `
		INSERT INTO bot_status (contact_id, active, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (contact_id)
		DO UPDATE SET active = EXCLUDED.active, updated_at = NOW()
	`
	_, err := r.DB.ExecContext(ctx, query, contactID, active)
	return err
}

func (r *BotStatusRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bot_status`).Scan(&count)
	return count, err
}
