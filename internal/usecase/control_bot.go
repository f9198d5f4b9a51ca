package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/http/middleware"
)

// ControlBotUseCase implementa pausar/reativar/status por contato.
// O cache em memória é a autoridade para as decisões deste processo: a
// sincronização do campo bot_ativo no Kommo é melhor esforço e nunca faz a
// operação falhar — retomar o atendimento vale mais que o sync perfeito.
type ControlBotUseCase struct {
	Conversations entity.ConversationStore
	BotStatus     entity.BotStatusStore
	CRM           CRMClient
}

func NewControlBotUseCase(
	conversations entity.ConversationStore,
	botStatus entity.BotStatusStore,
	crm CRMClient,
) *ControlBotUseCase {
	return &ControlBotUseCase{
		Conversations: conversations,
		BotStatus:     botStatus,
		CRM:           crm,
	}
}

type ControlResult struct {
	Status    string `json:"status"`
	ContactID int    `json:"contact_id"`
	BotActive bool   `json:"bot_active"`
	Changed   bool   `json:"changed"`
	Timestamp string `json:"timestamp"`
}

// Pause desliga as respostas automáticas para o contato. Idempotente:
// pausar duas vezes seguidas equivale a pausar uma.
func (uc *ControlBotUseCase) Pause(ctx context.Context, contactID int) ControlResult {
	now := time.Now()
	result := ControlResult{
		Status:    "paused",
		ContactID: contactID,
		BotActive: false,
		Timestamp: now.Format(time.RFC3339),
	}

	active, err := uc.BotStatus.IsActive(ctx, contactID)
	if err != nil {
		log.Error().Err(err).Int("contact_id", contactID).Msg("❌ Erro ao ler status do bot")
		active = true
	}
	if !active {
		log.Info().Int("contact_id", contactID).Msg("⏸️ Bot já estava pausado para o contato")
		return result
	}

	if err := uc.BotStatus.SetActive(ctx, contactID, false); err != nil {
		log.Error().Err(err).Int("contact_id", contactID).Msg("❌ Erro ao pausar bot no store")
	}
	uc.syncConversationFlag(ctx, contactID, false, now)
	uc.syncCRMField(ctx, contactID, "false")
	uc.notifyContact(ctx, contactID, "🤖 Bot pausado. Vendedor assumindo conversa.")

	middleware.RecordBotControl("pause")
	log.Info().Int("contact_id", contactID).Msg("⏸️ Bot pausado para o contato")

	result.Changed = true
	return result
}

// Resume religa as respostas automáticas. Simétrico ao Pause.
func (uc *ControlBotUseCase) Resume(ctx context.Context, contactID int) ControlResult {
	now := time.Now()
	result := ControlResult{
		Status:    "resumed",
		ContactID: contactID,
		BotActive: true,
		Timestamp: now.Format(time.RFC3339),
	}

	active, err := uc.BotStatus.IsActive(ctx, contactID)
	if err != nil {
		log.Error().Err(err).Int("contact_id", contactID).Msg("❌ Erro ao ler status do bot")
		active = true
	}
	if active {
		log.Info().Int("contact_id", contactID).Msg("▶️ Bot já estava ativo para o contato")
		return result
	}

	if err := uc.BotStatus.SetActive(ctx, contactID, true); err != nil {
		log.Error().Err(err).Int("contact_id", contactID).Msg("❌ Erro ao reativar bot no store")
	}
	uc.syncConversationFlag(ctx, contactID, true, now)
	uc.syncCRMField(ctx, contactID, "true")
	uc.notifyContact(ctx, contactID, "🤖 Bot reativado. Assumindo atendimento automático.")

	middleware.RecordBotControl("resume")
	log.Info().Int("contact_id", contactID).Msg("▶️ Bot reativado para o contato")

	result.Changed = true
	return result
}

type BotStatusReport struct {
	ContactID    int                       `json:"contact_id"`
	BotActive    bool                      `json:"bot_active"`
	ContactName  string                    `json:"contact_name"`
	LeadID       int                       `json:"lead_id,omitempty"`
	LeadStatus   string                    `json:"lead_status"`
	Conversation *entity.ConversationState `json:"conversation,omitempty"`
	Timestamp    string                    `json:"timestamp"`
}

// Summary monta o texto enviado ao vendedor no comando #status.
func (r BotStatusReport) Summary() string {
	activeLabel := "❌ Não"
	if r.BotActive {
		activeLabel = "✅ Sim"
	}
	contactName := r.ContactName
	if contactName == "" {
		contactName = "N/A"
	}
	leadID := "N/A"
	if r.LeadID != 0 {
		leadID = fmt.Sprintf("%d", r.LeadID)
	}
	leadStatus := r.LeadStatus
	if leadStatus == "" {
		leadStatus = "N/A"
	}
	return fmt.Sprintf("🤖 Status do Bot\nContato: %s\nBot Ativo: %s\nLead ID: %s\nStatus Lead: %s",
		contactName, activeLabel, leadID, leadStatus)
}

// Status lê o estado atual sem mutar nada.
func (uc *ControlBotUseCase) Status(ctx context.Context, contactID int) BotStatusReport {
	active, err := uc.BotStatus.IsActive(ctx, contactID)
	if err != nil {
		log.Error().Err(err).Int("contact_id", contactID).Msg("❌ Erro ao ler status do bot")
		active = true
	}

	report := BotStatusReport{
		ContactID: contactID,
		BotActive: active,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	conv, err := uc.Conversations.Get(ctx, contactID)
	if err != nil {
		log.Error().Err(err).Int("contact_id", contactID).Msg("❌ Erro ao ler estado da conversa")
	} else if conv != nil {
		report.Conversation = conv
		report.LeadID = conv.LeadID
	}

	if uc.CRM.Configured() {
		if contact, err := uc.CRM.GetContact(ctx, contactID); err == nil && contact != nil {
			report.ContactName = contact.Name
		}
		if lead, err := uc.CRM.GetLeadByContact(ctx, contactID); err == nil && lead != nil {
			report.LeadID = lead.ID
			report.LeadStatus = lead.StatusName
		}
	}

	return report
}

func (uc *ControlBotUseCase) syncConversationFlag(ctx context.Context, contactID int, active bool, at time.Time) {
	conv, err := uc.Conversations.Get(ctx, contactID)
	if err != nil || conv == nil {
		return
	}

	conv.Active = active
	if active {
		conv.ResumedAt = &at
	} else {
		conv.PausedAt = &at
	}
	if err := uc.Conversations.Save(ctx, conv); err != nil {
		log.Error().Err(err).Int("contact_id", contactID).Msg("❌ Erro ao gravar flag da conversa")
	}
}

// syncCRMField espelha o estado no campo bot_ativo do lead. Falha aqui é
// logada e engolida: o cache local decide, não o Kommo.
func (uc *ControlBotUseCase) syncCRMField(ctx context.Context, contactID int, value string) {
	if !uc.CRM.Configured() {
		return
	}

	lead, err := uc.CRM.GetLeadByContact(ctx, contactID)
	if err != nil || lead == nil {
		log.Warn().Int("contact_id", contactID).Msg("⚠️ Lead não encontrado, mantendo apenas cache local")
		return
	}
	if err := uc.CRM.UpdateLeadField(ctx, lead.ID, "bot_ativo", value); err != nil {
		middleware.RecordIntegrationError("kommo")
		log.Warn().Err(err).Int("lead_id", lead.ID).Msg("⚠️ Falha ao sincronizar bot_ativo no Kommo")
	}
}

func (uc *ControlBotUseCase) notifyContact(ctx context.Context, contactID int, text string) {
	if !uc.CRM.Configured() {
		return
	}
	if err := uc.CRM.SendMessageToContact(ctx, contactID, text); err != nil {
		log.Warn().Err(err).Int("contact_id", contactID).Msg("⚠️ Falha ao enviar confirmação ao contato")
	}
}
