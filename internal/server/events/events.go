// Package events is the outbound notification port for account activity.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sevr/internal/logging"
)

type Signup struct {
	UserID string
	Email  string
	At     time.Time
}

// Notifier receives account events. Implementations must not block the
// caller for long; delivery is best effort.
type Notifier interface {
	UserSignedUp(ctx context.Context, e Signup)
}

type Nop struct{}

func (Nop) UserSignedUp(context.Context, Signup) {}

// LogNotifier records events in the application log.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) UserSignedUp(ctx context.Context, e Signup) {
	n.logger.Info(ctx, "user signed up", "user_id", e.UserID, "email", e.Email, "at", e.At)
}
