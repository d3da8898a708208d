package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"

	"ai-image-service/internal/models"
)

type fakeEventBridge struct {
	input  *eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridge) PutEvents(_ context.Context, input *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &eventbridge.PutEventsOutput{FailedEntryCount: 0}, nil
}

func TestEventBridgeSend(t *testing.T) {
	fake := &fakeEventBridge{}
	ch := &EventBridgeChannel{client: fake, bus: "ai-events", source: "fluxer.ai-service"}

	ok := ch.Send(context.Background(), models.FailedEvent{
		JobID: "job-1", UserID: "user-1", Err: "OOM", Timestamp: time.Now(),
	})
	if !ok {
		t.Fatal("expected successful send")
	}

	if len(fake.input.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(fake.input.Entries))
	}
	entry := fake.input.Entries[0]
	if aws.ToString(entry.DetailType) != "AI Generation Failed" {
		t.Fatalf("unexpected detail type %s", aws.ToString(entry.DetailType))
	}
	if aws.ToString(entry.EventBusName) != "ai-events" {
		t.Fatalf("unexpected bus %s", aws.ToString(entry.EventBusName))
	}
	if aws.ToString(entry.Source) != "fluxer.ai-service" {
		t.Fatalf("unexpected source %s", aws.ToString(entry.Source))
	}

	var detail map[string]any
	if err := json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail); err != nil {
		t.Fatalf("detail is not json: %v", err)
	}
	if detail["error"] != "OOM" {
		t.Fatalf("expected error OOM in detail, got %v", detail["error"])
	}
}

func TestEventBridgeReportsRejectedEntry(t *testing.T) {
	fake := &fakeEventBridge{output: &eventbridge.PutEventsOutput{FailedEntryCount: 1}}
	ch := &EventBridgeChannel{client: fake, bus: "ai-events", source: "src"}

	if ok := ch.Send(context.Background(), models.CompletedEvent{JobID: "j", UserID: "u", Timestamp: time.Now()}); ok {
		t.Fatal("expected false when the bus rejects the entry")
	}
}

func TestEventBridgeReportsTransportError(t *testing.T) {
	fake := &fakeEventBridge{err: errors.New("connection refused")}
	ch := &EventBridgeChannel{client: fake, bus: "ai-events", source: "src"}

	if ok := ch.Send(context.Background(), models.CompletedEvent{JobID: "j", UserID: "u", Timestamp: time.Now()}); ok {
		t.Fatal("expected false on transport error")
	}
}
