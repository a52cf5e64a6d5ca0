package services

import (
	"context"
	"nextext/contract"
	"nextext/domain"
)

type IChatService interface {
	History(ctx context.Context, me, other domain.UserID) ([]domain.Message, error)
	Online() []domain.UserID
}

// ChatService exposes the read side of messaging over REST.
// Writes only happen through websocket sessions.
type ChatService struct {
	users    contract.IUserRepository
	gateway  contract.IMessageGateway
	registry contract.ISessionRegistry
}

func NewChatService(users contract.IUserRepository, gateway contract.IMessageGateway, registry contract.ISessionRegistry) *ChatService {
	return &ChatService{users: users, gateway: gateway, registry: registry}
}

// History returns the conversation between me and other in ascending id order.
// An unknown peer yields errors.ErrUserNotFound.
func (s *ChatService) History(ctx context.Context, me, other domain.UserID) ([]domain.Message, error) {
	if _, err := s.users.GetByID(ctx, other); err != nil {
		return nil, err
	}
	return s.gateway.ListBetween(ctx, me, other)
}

func (s *ChatService) Online() []domain.UserID {
	return s.registry.ListOnline()
}
