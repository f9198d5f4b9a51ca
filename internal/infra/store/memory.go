package store

import (
	"context"
	"sync"

	"github.com/previdas/kommo-bridge/internal/entity"
)

// Implementações em memória dos stores de estado. São o backend padrão:
// todo o estado vive no processo e morre com ele. Os mapas compartilhados
// são protegidos por mutex; a semântica continua last-writer-wins.

type MemoryConversationStore struct {
	mu    sync.RWMutex
	items map[int]entity.ConversationState
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		items: make(map[int]entity.ConversationState),
	}
}

func (s *MemoryConversationStore) Get(ctx context.Context, contactID int) (*entity.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.items[contactID]
	if !ok {
		return nil, nil
	}

	// Cópia para o chamador não mutar o mapa por fora do Save
	copied := state
	if state.LeadSnapshot != nil {
		copied.LeadSnapshot = make(map[string]string, len(state.LeadSnapshot))
		for k, v := range state.LeadSnapshot {
			copied.LeadSnapshot[k] = v
		}
	}
	return &copied, nil
}

func (s *MemoryConversationStore) Save(ctx context.Context, state *entity.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[state.ContactID] = *state
	return nil
}

func (s *MemoryConversationStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items), nil
}

type MemoryBotStatusStore struct {
	mu     sync.RWMutex
	status map[int]bool
}

func NewMemoryBotStatusStore() *MemoryBotStatusStore {
	return &MemoryBotStatusStore{
		status: make(map[int]bool),
	}
}

// IsActive retorna true para contatos nunca vistos (ativo por padrão).
func (s *MemoryBotStatusStore) IsActive(ctx context.Context, contactID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active, ok := s.status[contactID]
	if !ok {
		return true, nil
	}
	return active, nil
}

func (s *MemoryBotStatusStore) SetActive(ctx context.Context, contactID int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status[contactID] = active
	return nil
}

func (s *MemoryBotStatusStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.status), nil
}
