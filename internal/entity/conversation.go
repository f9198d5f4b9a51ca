package entity

import (
	"context"
	"time"
)

// AuthorKind identifica quem escreveu a mensagem recebida no webhook.
type AuthorKind string

const (
	AuthorContact  AuthorKind = "contact"
	AuthorOperator AuthorKind = "operator"
	AuthorSystem   AuthorKind = "system"
)

// Trigger descreve o evento de negócio que originou a conversa.
type Trigger string

const (
	TriggerFormSubmitted      Trigger = "form_submitted"
	TriggerMaterialDownloaded Trigger = "material_downloaded"
	TriggerMeetingScheduled   Trigger = "meeting_scheduled"
	TriggerManual             Trigger = "manual"
)

// InboundEvent é a forma normalizada de um webhook de chat do Kommo.
// Construído a cada chamada, nunca persistido.
type InboundEvent struct {
	ContactID      int        `json:"contact_id"`
	ConversationID string     `json:"conversation_id"`
	MessageText    string     `json:"message_text"`
	AuthorKind     AuthorKind `json:"author_kind"`
	Timestamp      time.Time  `json:"timestamp"`
}

type ConversationState struct {
	ContactID             int               `json:"contact_id"`
	ConversationID        string            `json:"conversation_id"`
	Salesperson           string            `json:"salesperson,omitempty"`
	PracticeArea          string            `json:"practice_area,omitempty"`
	Trigger               Trigger           `json:"trigger,omitempty"`
	LeadID                int               `json:"lead_id,omitempty"`
	InitiatedByAutomation bool              `json:"initiated_by_automation"`
	FirstReplyReceived    bool              `json:"first_reply_received"`
	Active                bool              `json:"active"`
	CreatedAt             time.Time         `json:"created_at"`
	PausedAt              *time.Time        `json:"paused_at,omitempty"`
	ResumedAt             *time.Time        `json:"resumed_at,omitempty"`
	FirstReplyAt          *time.Time        `json:"first_reply_at,omitempty"`
	LeadSnapshot          map[string]string `json:"lead_snapshot,omitempty"`
}

// MarkFirstReply vira a flag de primeira resposta uma única vez.
// Chamadas seguintes não alteram o timestamp original.
func (c *ConversationState) MarkFirstReply(at time.Time) bool {
	if c.FirstReplyReceived {
		return false
	}
	c.FirstReplyReceived = true
	c.FirstReplyAt = &at
	return true
}

// ConversationStore guarda o estado de conversa por contato.
// Get retorna (nil, nil) quando o contato nunca teve conversa iniciada.
type ConversationStore interface {
	Get(ctx context.Context, contactID int) (*ConversationState, error)
	Save(ctx context.Context, state *ConversationState) error
	Count(ctx context.Context) (int, error)
}

// BotStatusStore guarda a flag "respostas automáticas ativas" por contato.
// Contato nunca visto é ativo por padrão.
type BotStatusStore interface {
	IsActive(ctx context.Context, contactID int) (bool, error)
	SetActive(ctx context.Context, contactID int, active bool) error
	Count(ctx context.Context) (int, error)
}
