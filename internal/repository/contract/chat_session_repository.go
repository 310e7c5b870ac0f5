package contract

import (
	"context"

	"github.com/ashebbar-dev/Ojas-EB/internal/entity"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/specification"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
}
