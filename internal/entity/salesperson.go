package entity

import "context"

// SalespersonEntry guarda os metadados de roteamento de um vendedor.
type SalespersonEntry struct {
	Name              string `json:"name"`
	DisplayName       string `json:"display_name"`
	OutboundChannelID string `json:"outbound_channel_id"`
	Email             string `json:"email,omitempty"`
	IsVerifiedSource  bool   `json:"is_verified_source"`
	PracticeArea      string `json:"practice_area,omitempty"`
}

// SalespersonRegistry resolve o nome de um vendedor para sua entrada de
// roteamento. Resolve nunca retorna nil: nome desconhecido gera uma
// entrada sintetizada.
type SalespersonRegistry interface {
	Resolve(ctx context.Context, name string) *SalespersonEntry
	AddManual(entry SalespersonEntry)
	Count() int
}
