package secondary

import (
	"context"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// EmailSender delivers one batch of email through a transactional mail provider.
type EmailSender interface {
	Send(ctx context.Context, batch entity.EmailBatch) error
}
