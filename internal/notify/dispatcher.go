package notify

import (
	"context"
	"log/slog"

	"ai-image-service/internal/models"
	"ai-image-service/internal/telemetry"
)

// Result records the delivery outcome for one channel.
type Result struct {
	Channel string
	OK      bool
}

// Dispatcher fans each event out to every configured channel. A channel
// failure never prevents another channel from receiving the event and never
// propagates to the caller. Zero channels is a valid configuration.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher builds a dispatcher over the active channels.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Dispatch delivers the event to all channels in turn and returns the
// per-channel outcomes. Delivery is at-least-once, best effort per channel.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event) []Result {
	results := make([]Result, 0, len(d.channels))
	for _, ch := range d.channels {
		ok := send(ctx, ch, ev)
		if ok {
			telemetry.EventsPublished.WithLabelValues(ch.Name()).Inc()
		} else {
			telemetry.EventsFailed.WithLabelValues(ch.Name()).Inc()
			slog.Warn("event delivery failed", "channel", ch.Name(), "topic", ev.Topic())
		}
		results = append(results, Result{Channel: ch.Name(), OK: ok})
	}
	return results
}

// send isolates a misbehaving channel; a panic is logged and counted as a
// failed delivery.
func send(ctx context.Context, ch Channel, ev models.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("channel panicked", "channel", ch.Name(), "topic", ev.Topic(), "panic", r)
			ok = false
		}
	}()
	return ch.Send(ctx, ev)
}
