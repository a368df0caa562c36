package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/induslabs/concierge/domain/entities"
)

func TestSessionStartsInVoiceMode(t *testing.T) {
	controller := NewModeController(newFakeTransport(), NewConversationStore(), testLogger())

	if controller.Mode() != ModeVoice {
		t.Errorf("Expected initial mode voice, got %s", controller.Mode())
	}
}

func TestSendTextEntersTextModeAndDisablesMicOnce(t *testing.T) {
	transport := newFakeTransport()
	store := NewConversationStore()
	controller := NewModeController(transport, store, testLogger())

	if err := controller.SendText(context.Background(), "hi"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if controller.Mode() != ModeText {
		t.Errorf("Expected text mode after SendText, got %s", controller.Mode())
	}

	mic := transport.micHistory()
	if len(mic) != 1 || mic[0] != false {
		t.Errorf("Expected exactly one mic-disable call, got %v", mic)
	}

	// Unmuting flips back to voice and re-enables the mic exactly once.
	controller.ToggleMic(false)
	if controller.Mode() != ModeVoice {
		t.Errorf("Expected voice mode after unmute, got %s", controller.Mode())
	}
	mic = transport.micHistory()
	if len(mic) != 2 || mic[1] != true {
		t.Errorf("Expected exactly one mic-enable call after unmute, got %v", mic)
	}
}

func TestSendTextOptimisticallyInsertsLocalItem(t *testing.T) {
	transport := newFakeTransport()
	store := NewConversationStore()
	controller := NewModeController(transport, store, testLogger())

	if err := controller.SendText(context.Background(), "hello agent"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	snapshot := store.SnapshotOrdered()
	if len(snapshot) != 1 {
		t.Fatalf("Expected 1 local item, got %d", len(snapshot))
	}
	if snapshot[0].Sender != entities.SenderUser || snapshot[0].Text != "hello agent" {
		t.Errorf("Unexpected local item: %+v", snapshot[0])
	}

	published := transport.published(TopicChat)
	if len(published) != 1 || string(published[0].payload) != "hello agent" {
		t.Errorf("Expected text published on chat topic, got %+v", published)
	}
}

func TestSendTextRejectsTrimmedEmpty(t *testing.T) {
	transport := newFakeTransport()
	store := NewConversationStore()
	controller := NewModeController(transport, store, testLogger())

	if err := controller.SendText(context.Background(), "   "); err != nil {
		t.Errorf("Expected empty text to be a silent no-op, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected no item for empty text, got %d", store.Len())
	}
	if controller.Mode() != ModeVoice {
		t.Errorf("Expected mode unchanged for empty text, got %s", controller.Mode())
	}
}

func TestSendTextPublishFailureKeepsLocalItem(t *testing.T) {
	transport := newFakeTransport()
	transport.publishErr = errors.New("link down")
	store := NewConversationStore()
	controller := NewModeController(transport, store, testLogger())

	err := controller.SendText(context.Background(), "hi")
	if err == nil {
		t.Error("Expected publish failure to propagate")
	}
	if store.Len() != 1 {
		t.Errorf("Expected optimistic item to stand after publish failure, got %d", store.Len())
	}
}

func TestMuteInTextModeLeavesModeUnchanged(t *testing.T) {
	transport := newFakeTransport()
	controller := NewModeController(transport, NewConversationStore(), testLogger())

	controller.EnterTextMode()
	controller.ToggleMic(true)

	if controller.Mode() != ModeText {
		t.Errorf("Expected mute to leave text mode unchanged, got %s", controller.Mode())
	}
	mic := transport.micHistory()
	if len(mic) != 2 || mic[1] != false {
		t.Errorf("Expected mic disabled by mute, got %v", mic)
	}
}

func TestUnmuteWhileAlreadyVoiceReenablesMic(t *testing.T) {
	transport := newFakeTransport()
	controller := NewModeController(transport, NewConversationStore(), testLogger())

	// Mute without leaving voice mode, then unmute.
	controller.ToggleMic(true)
	controller.ToggleMic(false)

	mic := transport.micHistory()
	if len(mic) != 2 || mic[0] != false || mic[1] != true {
		t.Errorf("Expected disable then enable, got %v", mic)
	}
	if controller.Mode() != ModeVoice {
		t.Errorf("Expected voice mode, got %s", controller.Mode())
	}
}
