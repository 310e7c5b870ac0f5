package contract

import (
	"context"

	"github.com/ashebbar-dev/Ojas-EB/internal/entity"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/specification"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
}
