package usecase

import (
	"context"

	"github.com/previdas/kommo-bridge/internal/infra/integration/kommo"
	"github.com/previdas/kommo-bridge/internal/infra/integration/n8n"
)

// CRMClient é o contrato com o Kommo consumido pelos usecases.
type CRMClient interface {
	Configured() bool
	GetContact(ctx context.Context, contactID int) (*kommo.Contact, error)
	GetLeadByContact(ctx context.Context, contactID int) (*kommo.Lead, error)
	SendMessage(ctx context.Context, conversationID, text string) error
	SendMessageToContact(ctx context.Context, contactID int, text string) error
	UpdateLeadField(ctx context.Context, leadID int, fieldName, value string) error
}

// EngineClient é o contrato com o motor de automação (n8n).
type EngineClient interface {
	Configured() bool
	Forward(ctx context.Context, payload n8n.EnginePayload) (map[string]any, error)
}
