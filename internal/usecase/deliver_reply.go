package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/infra/http/middleware"
)

// EngineReply é a resposta gerada pelo n8n para uma conversa.
type EngineReply struct {
	ConversationID string         `json:"conversation_id"`
	ResponseText   string         `json:"response_text"`
	ShouldSend     bool           `json:"should_send"`
	ShouldHandoff  bool           `json:"should_handoff"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type DeliverReplyOutput struct {
	Status          string         `json:"status"`
	Message         string         `json:"message"`
	ConversationID  string         `json:"conversation_id"`
	HandoffRequired bool           `json:"handoff_required,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// DeliverReplyUseCase entrega a resposta do motor de automação de volta ao
// canal de mensagens, validando as flags antes de qualquer chamada externa.
type DeliverReplyUseCase struct {
	CRM CRMClient
}

func NewDeliverReplyUseCase(crm CRMClient) *DeliverReplyUseCase {
	return &DeliverReplyUseCase{CRM: crm}
}

func (uc *DeliverReplyUseCase) Execute(ctx context.Context, reply EngineReply) DeliverReplyOutput {
	log.Info().Str("conversation_id", reply.ConversationID).Msg("📥 Resposta do n8n recebida")

	if !reply.ShouldSend {
		log.Info().Str("conversation_id", reply.ConversationID).Msg("⏸️ Mensagem não enviada conforme instrução do n8n")
		middleware.RecordReplyDelivery(StatusSkipped)
		return DeliverReplyOutput{
			Status:         StatusSkipped,
			Message:        "Mensagem não enviada conforme instrução do n8n",
			ConversationID: reply.ConversationID,
		}
	}

	if err := uc.deliver(ctx, reply); err != nil {
		middleware.RecordReplyDelivery(StatusError)

		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			log.Warn().Str("conversation_id", reply.ConversationID).Msg("⚠️ " + domainErr.Message)
			return DeliverReplyOutput{
				Status:         StatusError,
				Message:        domainErr.Message,
				ConversationID: reply.ConversationID,
				Error:          domainErr.Code,
			}
		}

		middleware.RecordIntegrationError("kommo")
		log.Error().Err(err).Str("conversation_id", reply.ConversationID).Msg("❌ Erro ao enviar resposta via Kommo")
		return DeliverReplyOutput{
			Status:         StatusError,
			Message:        "Erro ao enviar via Kommo",
			ConversationID: reply.ConversationID,
			Error:          err.Error(),
		}
	}

	// Handoff é só um gancho registrado: nenhuma transição de estado é
	// disparada automaticamente a partir dele.
	if reply.ShouldHandoff {
		middleware.RecordHandoffFlag()
		log.Info().Str("conversation_id", reply.ConversationID).Msg("🔄 Handoff recomendado para a conversa")
	}

	middleware.RecordReplyDelivery(StatusSent)
	return DeliverReplyOutput{
		Status:          StatusSent,
		Message:         "Resposta enviada com sucesso via Kommo",
		ConversationID:  reply.ConversationID,
		HandoffRequired: reply.ShouldHandoff,
		Metadata:        reply.Metadata,
	}
}

// deliver valida e envia. Regra de negócio violada vira *DomainError,
// falha de transporte vira *TechnicalError embrulhando a causa.
func (uc *DeliverReplyUseCase) deliver(ctx context.Context, reply EngineReply) error {
	if strings.TrimSpace(reply.ResponseText) == "" {
		return &DomainError{Code: ReasonEmptyText, Message: "Texto da resposta está vazio"}
	}

	if err := uc.CRM.SendMessage(ctx, reply.ConversationID, reply.ResponseText); err != nil {
		return &TechnicalError{Code: "kommo_send_failed", Message: err.Error(), Err: err}
	}
	return nil
}
