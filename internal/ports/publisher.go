package ports

import (
	"context"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// OutcomePublisher is notified with the outcomes of each persisted batch.
type OutcomePublisher interface {
	Publish(ctx context.Context, outcomes []domain.Outcome) error
	Name() string
}
