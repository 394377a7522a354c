// Package notify delivers best-effort Telegram push notifications for
// marketplace events (new bid, executor chosen). The client is an explicit,
// injected collaborator owned by the composition root; a no-op
// implementation stands in when no bot token is configured and in tests.
// Delivery failures are logged and swallowed: they must never affect the
// outcome of the operation that triggered them.
package notify

import (
	"context"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

// Notifier pushes marketplace events to the parties involved.
// Implementations must be safe for concurrent use and must not return
// errors for delivery failures; sends are fire-and-forget by contract.
type Notifier interface {
	// NewResponse tells the order's customer that an executor placed a bid.
	NewResponse(ctx context.Context, order *domain.Order, customer, executor *domain.User)
	// ExecutorChosen tells the executor they were selected for the order.
	ExecutorChosen(ctx context.Context, order *domain.Order, customer, executor *domain.User)
}

// Noop is a Notifier that does nothing. Used when the bot token is unset
// and as the default collaborator in tests.
type Noop struct{}

// NewResponse implements Notifier.
func (Noop) NewResponse(context.Context, *domain.Order, *domain.User, *domain.User) {}

// ExecutorChosen implements Notifier.
func (Noop) ExecutorChosen(context.Context, *domain.Order, *domain.User, *domain.User) {}
