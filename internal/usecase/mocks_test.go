package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/integration/kommo"
	"github.com/previdas/kommo-bridge/internal/infra/integration/n8n"
)

// MockCRMClient
type MockCRMClient struct {
	mock.Mock
}

func (m *MockCRMClient) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCRMClient) GetContact(ctx context.Context, contactID int) (*kommo.Contact, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kommo.Contact), args.Error(1)
}

func (m *MockCRMClient) GetLeadByContact(ctx context.Context, contactID int) (*kommo.Lead, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kommo.Lead), args.Error(1)
}

func (m *MockCRMClient) SendMessage(ctx context.Context, conversationID, text string) error {
	args := m.Called(ctx, conversationID, text)
	return args.Error(0)
}

func (m *MockCRMClient) SendMessageToContact(ctx context.Context, contactID int, text string) error {
	args := m.Called(ctx, contactID, text)
	return args.Error(0)
}

func (m *MockCRMClient) UpdateLeadField(ctx context.Context, leadID int, fieldName, value string) error {
	args := m.Called(ctx, leadID, fieldName, value)
	return args.Error(0)
}

// MockEngineClient
type MockEngineClient struct {
	mock.Mock
}

func (m *MockEngineClient) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEngineClient) Forward(ctx context.Context, payload n8n.EnginePayload) (map[string]any, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

// stubRegistry resolve nomes a partir de um mapa fixo, sintetizando
// entradas para nomes desconhecidos como o registro real faz.
type stubRegistry struct {
	entries map[string]entity.SalespersonEntry
}

func newStubRegistry(entries ...entity.SalespersonEntry) *stubRegistry {
	r := &stubRegistry{entries: make(map[string]entity.SalespersonEntry)}
	for _, e := range entries {
		r.entries[e.Name] = e
	}
	return r
}

func (r *stubRegistry) Resolve(ctx context.Context, name string) *entity.SalespersonEntry {
	if e, ok := r.entries[name]; ok {
		return &e
	}
	return &entity.SalespersonEntry{
		Name:              name,
		DisplayName:       name,
		OutboundChannelID: "chan_stub",
	}
}

func (r *stubRegistry) AddManual(entry entity.SalespersonEntry) {
	r.entries[entry.Name] = entry
}

func (r *stubRegistry) Count() int {
	return len(r.entries)
}
