package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan FrameCapturedEvent, 1)

	unsub := bus.Subscribe(func(e FrameCapturedEvent) {
		received <- e
	})
	defer unsub()

	event := FrameCapturedEvent{
		Path:      "frames/test00000001.ppm",
		Sequence:  1,
		Bytes:     153600,
		Timestamp: time.Now(),
	}
	bus.Publish(event)

	got := <-received
	if got.Path != event.Path {
		t.Errorf("Expected path %s, got %s", event.Path, got.Path)
	}
	if got.Sequence != 1 {
		t.Errorf("Expected sequence 1, got %d", got.Sequence)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan FrameSkippedEvent, 1)
	received2 := make(chan FrameSkippedEvent, 1)

	unsub1 := bus.Subscribe(func(e FrameSkippedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e FrameSkippedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(FrameSkippedEvent{Reason: "no buffer ready"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CaptureErrorEvent, 1)

	unsub := bus.Subscribe(func(e CaptureErrorEvent) {
		received <- e
	})

	bus.Publish(CaptureErrorEvent{DevicePath: "/dev/video0"})
	<-received

	unsub()

	bus.Publish(CaptureErrorEvent{DevicePath: "/dev/video1"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_UnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(s string) {})
	if unsub == nil {
		t.Fatal("Subscribe returned nil unsubscribe")
	}
	unsub()
}
