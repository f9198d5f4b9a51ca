package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/previdas/kommo-bridge/internal/entity"
)

func TestMemoryConversationStore_GetInexistente(t *testing.T) {
	s := NewMemoryConversationStore()

	conv, err := s.Get(context.Background(), 1)

	assert.NoError(t, err)
	assert.Nil(t, conv)
}

func TestMemoryConversationStore_SaveEGet(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	state := &entity.ConversationState{
		ContactID:      10,
		ConversationID: "conv_10_1",
		Salesperson:    "carlos",
		Active:         true,
		CreatedAt:      time.Now(),
		LeadSnapshot:   map[string]string{"name": "João"},
	}
	assert.NoError(t, s.Save(ctx, state))

	got, err := s.Get(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, "conv_10_1", got.ConversationID)
	assert.Equal(t, "carlos", got.Salesperson)

	count, _ := s.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestMemoryConversationStore_GetDevolveCopia(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	s.Save(ctx, &entity.ConversationState{
		ContactID:    20,
		LeadSnapshot: map[string]string{"name": "Maria"},
	})

	first, _ := s.Get(ctx, 20)
	first.Salesperson = "mutado"
	first.LeadSnapshot["name"] = "mutado"

	second, _ := s.Get(ctx, 20)
	assert.Empty(t, second.Salesperson)
	assert.Equal(t, "Maria", second.LeadSnapshot["name"])
}

func TestMemoryConversationStore_SaveSobrescreve(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	s.Save(ctx, &entity.ConversationState{ContactID: 30, ConversationID: "a"})
	s.Save(ctx, &entity.ConversationState{ContactID: 30, ConversationID: "b"})

	got, _ := s.Get(ctx, 30)
	assert.Equal(t, "b", got.ConversationID)

	count, _ := s.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestMemoryBotStatusStore_AtivoPorPadrao(t *testing.T) {
	s := NewMemoryBotStatusStore()

	active, err := s.IsActive(context.Background(), 99)

	assert.NoError(t, err)
	assert.True(t, active)

	count, _ := s.Count(context.Background())
	assert.Equal(t, 0, count)
}

func TestMemoryBotStatusStore_SetEGet(t *testing.T) {
	s := NewMemoryBotStatusStore()
	ctx := context.Background()

	s.SetActive(ctx, 5, false)
	active, _ := s.IsActive(ctx, 5)
	assert.False(t, active)

	s.SetActive(ctx, 5, true)
	active, _ = s.IsActive(ctx, 5)
	assert.True(t, active)

	count, _ := s.Count(ctx)
	assert.Equal(t, 1, count)
}
