package moderation

import (
	"context"
	"log/slog"
	"nextext/contract"
	"nextext/domain"
)

// CensoringGateway masks forbidden words before the wrapped gateway stores a message,
// so every recipient sees the same stored content.
type CensoringGateway struct {
	next      contract.IMessageGateway
	moderator *Moderator
	log       *slog.Logger
}

func NewCensoringGateway(next contract.IMessageGateway, moderator *Moderator, log *slog.Logger) *CensoringGateway {
	return &CensoringGateway{next: next, moderator: moderator, log: log}
}

func (g *CensoringGateway) Create(ctx context.Context, sender, recipient domain.UserID, content string) (domain.Message, error) {
	censored, words := g.moderator.Censor(content)
	if len(words) > 0 {
		g.log.Info("Message censored", "sender_id", sender, "recipient_id", recipient, "words", len(words))
	}
	return g.next.Create(ctx, sender, recipient, censored)
}

func (g *CensoringGateway) ListBetween(ctx context.Context, a, b domain.UserID) ([]domain.Message, error) {
	return g.next.ListBetween(ctx, a, b)
}
