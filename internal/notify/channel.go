package notify

import (
	"context"

	"ai-image-service/internal/models"
)

// Channel is one notification transport. Send reports delivery as a boolean
// and must never let a transport error escape its boundary.
type Channel interface {
	Name() string
	Send(ctx context.Context, ev models.Event) bool
}
