package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/http/middleware"
	"github.com/previdas/kommo-bridge/internal/infra/integration/kommo"
	"github.com/previdas/kommo-bridge/internal/infra/integration/n8n"
)

// Comandos reconhecidos em mensagens de operador. Qualquer outro texto de
// operador é ignorado sem efeito colateral.
const (
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandStatus = "status"
	CommandHelp   = "help"
)

// WebhookResult é o resultado marcado da classificação de um webhook.
type WebhookResult struct {
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	Command        string `json:"command,omitempty"`
	ContactID      int    `json:"contact_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

type ProcessWebhookUseCase struct {
	Conversations entity.ConversationStore
	BotStatus     entity.BotStatusStore
	Registry      entity.SalespersonRegistry
	CRM           CRMClient
	Engine        EngineClient
	Control       *ControlBotUseCase
}

func NewProcessWebhookUseCase(
	conversations entity.ConversationStore,
	botStatus entity.BotStatusStore,
	registry entity.SalespersonRegistry,
	crm CRMClient,
	engine EngineClient,
	control *ControlBotUseCase,
) *ProcessWebhookUseCase {
	return &ProcessWebhookUseCase{
		Conversations: conversations,
		BotStatus:     botStatus,
		Registry:      registry,
		CRM:           crm,
		Engine:        engine,
		Control:       control,
	}
}

// Execute classifica e processa um webhook bruto do Kommo. Nunca retorna
// erro Go: toda falha vira um resultado marcado, e o webhook já foi aceito.
func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, raw map[string]any) WebhookResult {
	event, ok := ExtractInboundEvent(raw)
	if !ok {
		log.Info().Msg("ℹ️ Webhook recebido mas não é mensagem de chat")
		return uc.done(WebhookResult{Status: StatusIgnored, Reason: ReasonNotChatMessage})
	}

	if event.ContactID == 0 || strings.TrimSpace(event.MessageText) == "" {
		log.Warn().Int("contact_id", event.ContactID).Msg("⚠️ Webhook sem contato ou sem texto, ignorando")
		return uc.done(WebhookResult{Status: StatusIgnored, Reason: ReasonInvalidData})
	}

	log.Info().
		Int("contact_id", event.ContactID).
		Str("conversation_id", event.ConversationID).
		Str("autor", string(event.AuthorKind)).
		Msg("📨 Processando mensagem de chat")

	switch event.AuthorKind {
	case entity.AuthorOperator:
		return uc.done(uc.handleOperatorMessage(ctx, event))
	case entity.AuthorContact:
		return uc.done(uc.handleContactMessage(ctx, event))
	default:
		return uc.done(WebhookResult{
			Status:    StatusIgnored,
			Reason:    ReasonSystemAuthor,
			ContactID: event.ContactID,
		})
	}
}

func (uc *ProcessWebhookUseCase) done(res WebhookResult) WebhookResult {
	middleware.RecordClassification(res.Status, res.Reason)
	return res
}

// MatchCommand compara o texto, sem diferenciar maiúsculas, com o
// vocabulário fixo de comandos dos vendedores.
func MatchCommand(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(t, "#pausar"), strings.Contains(t, "#pause"):
		return CommandPause, true
	case strings.Contains(t, "#voltar"), strings.Contains(t, "#resume"), strings.Contains(t, "#reativar"):
		return CommandResume, true
	case strings.Contains(t, "#status"):
		return CommandStatus, true
	case strings.Contains(t, "#help"):
		return CommandHelp, true
	default:
		return "", false
	}
}

// handleOperatorMessage trata comandos de vendedor. Comando reconhecido
// mexe no estado do bot e nunca é encaminhado ao n8n.
func (uc *ProcessWebhookUseCase) handleOperatorMessage(ctx context.Context, event *entity.InboundEvent) WebhookResult {
	command, ok := MatchCommand(event.MessageText)
	if !ok {
		return WebhookResult{
			Status:    StatusIgnored,
			Reason:    ReasonNotCommand,
			ContactID: event.ContactID,
		}
	}

	log.Info().Str("comando", command).Int("contact_id", event.ContactID).Msg("🔧 Processando comando especial")

	switch command {
	case CommandPause:
		uc.Control.Pause(ctx, event.ContactID)
	case CommandResume:
		uc.Control.Resume(ctx, event.ContactID)
	case CommandStatus:
		report := uc.Control.Status(ctx, event.ContactID)
		uc.sendOperatorReply(ctx, event.ContactID, report.Summary())
	case CommandHelp:
		uc.sendOperatorReply(ctx, event.ContactID, HelpMessage)
	}

	return WebhookResult{
		Status:    StatusCommand,
		Command:   command,
		ContactID: event.ContactID,
	}
}

// HelpMessage é o texto devolvido ao vendedor no comando #help.
const HelpMessage = `🤖 Comandos disponíveis

#pausar - Pausa o bot para este contato
#voltar - Reativa o bot para este contato
#status - Mostra status atual do bot
#help - Mostra esta ajuda

O bot só responde quando está ativo.`

// sendOperatorReply devolve uma mensagem informativa na conversa do contato.
// Melhor esforço: falha só gera log.
func (uc *ProcessWebhookUseCase) sendOperatorReply(ctx context.Context, contactID int, text string) {
	if err := uc.CRM.SendMessageToContact(ctx, contactID, text); err != nil {
		middleware.RecordIntegrationError("kommo")
		log.Warn().Err(err).Int("contact_id", contactID).Msg("⚠️ Falha ao enviar resposta de comando")
	}
}

// handleContactMessage é o caminho principal: flip de primeira resposta,
// trava de pausa, trava de área e encaminhamento ao n8n.
func (uc *ProcessWebhookUseCase) handleContactMessage(ctx context.Context, event *entity.InboundEvent) WebhookResult {
	conv, err := uc.Conversations.Get(ctx, event.ContactID)
	if err != nil {
		log.Error().Err(err).Int("contact_id", event.ContactID).Msg("❌ Erro ao ler estado da conversa")
		conv = nil
	}

	if conv != nil && conv.InitiatedByAutomation {
		if conv.MarkFirstReply(event.Timestamp) {
			if err := uc.Conversations.Save(ctx, conv); err != nil {
				log.Error().Err(err).Int("contact_id", event.ContactID).Msg("❌ Erro ao gravar primeira resposta")
			} else {
				log.Info().Int("contact_id", event.ContactID).Msg("🎉 Primeira resposta do contato registrada")
			}
		}
	}

	active, err := uc.BotStatus.IsActive(ctx, event.ContactID)
	if err != nil {
		log.Error().Err(err).Int("contact_id", event.ContactID).Msg("❌ Erro ao ler status do bot, assumindo ativo")
		active = true
	}
	if !active {
		log.Info().Int("contact_id", event.ContactID).Msg("⏸️ Bot pausado para o contato, ignorando mensagem")
		return WebhookResult{Status: StatusIgnored, Reason: ReasonBotPaused, ContactID: event.ContactID}
	}

	lead, contactName := uc.lookupLeadContext(ctx, event.ContactID)

	area := ""
	if conv != nil {
		area = conv.PracticeArea
	}
	if area == "" && lead != nil {
		area = kommo.CustomFieldString(lead.CustomFieldsValues, "area_atuacao")
	}
	if area == "" {
		area = AreaUnknown
	}
	if !IsEligibleArea(area) {
		log.Info().Str("area", area).Int("contact_id", event.ContactID).Msg("🚫 Área não elegível para atendimento automático")
		return WebhookResult{Status: StatusIgnored, Reason: ReasonAreaNotEligible, ContactID: event.ContactID}
	}

	payload := uc.buildEnginePayload(ctx, event, conv, lead, contactName, area)

	if _, err := uc.Engine.Forward(ctx, payload); err != nil {
		middleware.RecordEngineForward("error")
		middleware.RecordIntegrationError("n8n")
		log.Error().Err(err).Str("conversation_id", payload.ConversationID).Msg("❌ Erro ao enviar para n8n")
		return WebhookResult{
			Status:         StatusError,
			ContactID:      event.ContactID,
			ConversationID: payload.ConversationID,
			Error:          err.Error(),
		}
	}
	middleware.RecordEngineForward("success")

	return WebhookResult{
		Status:         StatusProcessed,
		ContactID:      event.ContactID,
		ConversationID: payload.ConversationID,
	}
}

// lookupLeadContext enriquece o evento com lead e nome do contato.
// Qualquer falha aqui é tolerada: o encaminhamento segue sem o contexto.
func (uc *ProcessWebhookUseCase) lookupLeadContext(ctx context.Context, contactID int) (*kommo.Lead, string) {
	if !uc.CRM.Configured() {
		return nil, ""
	}

	lead, err := uc.CRM.GetLeadByContact(ctx, contactID)
	if err != nil {
		middleware.RecordIntegrationError("kommo")
		log.Warn().Err(err).Int("contact_id", contactID).Msg("⚠️ Falha ao buscar lead do contato")
	}

	var contactName string
	contact, err := uc.CRM.GetContact(ctx, contactID)
	if err != nil {
		middleware.RecordIntegrationError("kommo")
		log.Warn().Err(err).Int("contact_id", contactID).Msg("⚠️ Falha ao buscar contato")
	} else if contact != nil {
		contactName = contact.Name
	}

	return lead, contactName
}

func (uc *ProcessWebhookUseCase) buildEnginePayload(
	ctx context.Context,
	event *entity.InboundEvent,
	conv *entity.ConversationState,
	lead *kommo.Lead,
	contactName, area string,
) n8n.EnginePayload {
	conversationID := event.ConversationID
	if conversationID == "" && conv != nil {
		conversationID = conv.ConversationID
	}

	payload := n8n.EnginePayload{
		ConversationID: conversationID,
		ContactID:      event.ContactID,
		MessageText:    event.MessageText,
		Timestamp:      event.Timestamp.Format(time.RFC3339),
		ChatType:       "whatsapp",
		ContactName:    contactName,
		VendorContext:  &n8n.VendorContext{PracticeArea: area},
	}
	if lead != nil {
		payload.LeadID = lead.ID
	}

	if conv != nil {
		payload.ProactiveContext = &n8n.ProactiveContext{
			InitiatedByAutomation: conv.InitiatedByAutomation,
			Trigger:               string(conv.Trigger),
			FirstReplyReceived:    conv.FirstReplyReceived,
			InitiatedAt:           conv.CreatedAt.Format(time.RFC3339),
		}
		if conv.LeadID != 0 {
			payload.LeadID = conv.LeadID
		}
		if conv.Salesperson != "" {
			entry := uc.Registry.Resolve(ctx, conv.Salesperson)
			payload.VendorContext = &n8n.VendorContext{
				Salesperson:  entry.Name,
				ChannelID:    entry.OutboundChannelID,
				DisplayName:  entry.DisplayName,
				PracticeArea: area,
			}
		}
	}

	return payload
}
