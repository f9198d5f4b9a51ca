package handlers

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/previdas/kommo-bridge/internal/infra/integration/kommo"
)

// mockCRM cobre o contrato usecase.CRMClient nos testes de handler.
type mockCRM struct {
	mock.Mock
}

func (m *mockCRM) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockCRM) GetContact(ctx context.Context, contactID int) (*kommo.Contact, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kommo.Contact), args.Error(1)
}

func (m *mockCRM) GetLeadByContact(ctx context.Context, contactID int) (*kommo.Lead, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kommo.Lead), args.Error(1)
}

func (m *mockCRM) SendMessage(ctx context.Context, conversationID, text string) error {
	args := m.Called(ctx, conversationID, text)
	return args.Error(0)
}

func (m *mockCRM) SendMessageToContact(ctx context.Context, contactID int, text string) error {
	args := m.Called(ctx, contactID, text)
	return args.Error(0)
}

func (m *mockCRM) UpdateLeadField(ctx context.Context, leadID int, fieldName, value string) error {
	args := m.Called(ctx, leadID, fieldName, value)
	return args.Error(0)
}

// fakeDispatcher captura o corpo despachado em vez de processar.
type fakeDispatcher struct {
	dispatched []map[string]any
	fail       bool
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, raw map[string]any) error {
	if d.fail {
		return errors.New("fila indisponível")
	}
	d.dispatched = append(d.dispatched, raw)
	return nil
}
