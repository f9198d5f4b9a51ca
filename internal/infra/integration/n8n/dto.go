package n8n

// EnginePayload é o corpo enviado ao webhook do n8n para cada mensagem
// elegível de contato.
type EnginePayload struct {
	ConversationID   string            `json:"conversation_id"`
	ContactID        int               `json:"contact_id"`
	MessageText      string            `json:"message_text"`
	Timestamp        string            `json:"timestamp"`
	ChatType         string            `json:"chat_type"`
	LeadID           int               `json:"lead_id,omitempty"`
	ContactName      string            `json:"contact_name,omitempty"`
	ProactiveContext *ProactiveContext `json:"proactive_context,omitempty"`
	VendorContext    *VendorContext    `json:"vendor_context,omitempty"`
}

// ProactiveContext carrega o estado da conversa iniciada pelo sistema.
type ProactiveContext struct {
	InitiatedByAutomation bool   `json:"initiated_by_automation"`
	Trigger               string `json:"trigger,omitempty"`
	FirstReplyReceived    bool   `json:"first_reply_received"`
	InitiatedAt           string `json:"initiated_at,omitempty"`
}

// VendorContext carrega o roteamento do vendedor responsável.
type VendorContext struct {
	Salesperson  string `json:"salesperson"`
	ChannelID    string `json:"channel_id"`
	DisplayName  string `json:"display_name"`
	PracticeArea string `json:"practice_area,omitempty"`
}
