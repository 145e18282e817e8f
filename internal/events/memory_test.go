package events

import (
	"context"
	"testing"
	"time"

	"videomcq/models"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemory_PublishSubscribe(t *testing.T) {
	bus := NewMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "v1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	other, _ := bus.Subscribe(ctx, "v2")

	segs := []models.TranscriptSegment{{ID: "segment-1", EndTime: 30, SegmentNumber: 1}}
	_ = bus.Publish(ctx, TranscriptProgress("v1", segs, 25))
	_ = bus.Publish(ctx, MCQProgress("v1", 1, 3))

	e := receive(t, ch)
	if e.Kind != KindTranscriptProgress || *e.Percent != 25 || e.SegmentCount != 1 || e.Segment.ID != "segment-1" {
		t.Errorf("first event = %+v", e)
	}
	e = receive(t, ch)
	if e.Kind != KindMCQProgress || e.Current != 1 || e.Total != 3 {
		t.Errorf("second event = %+v", e)
	}

	select {
	case e := <-other:
		t.Errorf("v2 subscriber got %+v", e)
	default:
	}
}

func TestMemory_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewMemory(2)
	ctx := context.Background()
	ch, _ := bus.Subscribe(ctx, "v")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = bus.Publish(ctx, MCQProgress("v", i+1, 10))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if got := receive(t, ch); got.Current != 1 {
		t.Errorf("first buffered event current = %d, want 1", got.Current)
	}
}

func TestMemory_CancelClosesChannel(t *testing.T) {
	bus := NewMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := bus.Subscribe(ctx, "v")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	// Publishing after the subscriber left must not panic.
	_ = bus.Publish(context.Background(), MCQProgress("v", 1, 1))
}

func TestEvent_Terminal(t *testing.T) {
	tests := []struct {
		e    Event
		want bool
	}{
		{State("v", models.StageCompleted, models.VideoStatusCompleted, ""), true},
		{State("v", models.StageTranscription, models.VideoStatusError, "boom"), true},
		{State("v", models.StageTranscription, models.VideoStatusProcessing, ""), false},
		{MCQProgress("v", 1, 2), false},
	}
	for _, tt := range tests {
		if got := tt.e.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s/%s) = %v, want %v", tt.e.Kind, tt.e.Status, got, tt.want)
		}
	}
}
