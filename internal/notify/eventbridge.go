package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"ai-image-service/internal/config"
	"ai-image-service/internal/models"
)

const eventBridgeTimeout = 2 * time.Second

type eventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgeChannel publishes structured entries to the durable event bus.
// It never retries; redelivery is the bus's responsibility.
type EventBridgeChannel struct {
	client eventBridgeAPI
	bus    string
	source string
}

// NewEventBridge builds the channel from the default AWS credential chain.
func NewEventBridge(ctx context.Context, cfg config.Config) (*EventBridgeChannel, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}
	slog.Info("eventbridge channel initialized", "bus", cfg.EventBusName)
	return &EventBridgeChannel{
		client: eventbridge.NewFromConfig(awsCfg),
		bus:    cfg.EventBusName,
		source: cfg.EventSource,
	}, nil
}

func (c *EventBridgeChannel) Name() string { return "eventbridge" }

// Send puts a single entry on the bus.
func (c *EventBridgeChannel) Send(ctx context.Context, ev models.Event) bool {
	detail, err := json.Marshal(ev.Detail())
	if err != nil {
		slog.Error("marshal eventbridge detail", "detail_type", ev.DetailType(), "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, eventBridgeTimeout)
	defer cancel()

	out, err := c.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			Source:       aws.String(c.source),
			DetailType:   aws.String(ev.DetailType()),
			Detail:       aws.String(string(detail)),
			EventBusName: aws.String(c.bus),
		}},
	})
	if err != nil {
		slog.Error("eventbridge put failed", "detail_type", ev.DetailType(), "error", err)
		return false
	}
	if out.FailedEntryCount > 0 {
		slog.Error("eventbridge entry rejected", "detail_type", ev.DetailType(), "failed", out.FailedEntryCount)
		return false
	}
	return true
}
