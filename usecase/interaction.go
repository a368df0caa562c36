package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/induslabs/concierge/domain/entities"
	"github.com/induslabs/concierge/domain/repositories"
)

// TopicChat is the canonical topic for outgoing user text.
const TopicChat = "lk.chat"

// InteractionMode is the exclusive input mode of the session.
type InteractionMode string

const (
	ModeVoice InteractionMode = "voice"
	ModeText  InteractionMode = "text"
)

// ModeController maintains the exclusive voice/text mode and drives mic
// enablement as a side effect of mode transitions. Sessions start in voice
// mode.
type ModeController struct {
	transport repositories.Transport
	store     *ConversationStore
	logger    *zap.Logger

	mu   sync.Mutex
	mode InteractionMode
}

// NewModeController creates a controller in voice mode.
func NewModeController(transport repositories.Transport, store *ConversationStore, logger *zap.Logger) *ModeController {
	return &ModeController{
		transport: transport,
		store:     store,
		logger:    logger,
		mode:      ModeVoice,
	}
}

// Mode returns the current interaction mode.
func (c *ModeController) Mode() InteractionMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// EnterTextMode switches to text mode, disabling the microphone.
func (c *ModeController) EnterTextMode() {
	c.setMode(ModeText)
}

// ToggleMic mutes or unmutes the microphone. Unmuting forces voice mode
// first; muting leaves the mode unchanged, so muting while in text mode is a
// state no-op.
func (c *ModeController) ToggleMic(mute bool) {
	if mute {
		if err := c.transport.SetMicrophoneEnabled(false); err != nil {
			c.logger.Warn("failed to disable microphone", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	alreadyVoice := c.mode == ModeVoice
	c.mu.Unlock()

	if alreadyVoice {
		// Mode transition side effects don't fire without a transition, so
		// re-enable the mic directly.
		if err := c.transport.SetMicrophoneEnabled(true); err != nil {
			c.logger.Warn("failed to enable microphone", zap.Error(err))
		}
		return
	}
	c.setMode(ModeVoice)
}

// SendText publishes user text on the chat topic and optimistically inserts
// it into the store so the UI never stalls on round-trip latency. The local
// item stands even when the publish fails; the error is returned for the
// caller to retry at its discretion. Trimmed-empty text is a no-op.
func (c *ModeController) SendText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.setMode(ModeText)

	c.store.Upsert(entities.Item{
		ID:        "local-" + uuid.NewString(),
		Sender:    entities.SenderUser,
		Kind:      entities.KindText,
		Timestamp: time.Now().UnixMilli(),
		Text:      text,
	})

	return c.transport.PublishReliable(ctx, TopicChat, []byte(text))
}

// setMode transitions the mode, issuing the mic side effect exactly once per
// transition (enabled iff the new mode is voice).
func (c *ModeController) setMode(mode InteractionMode) {
	c.mu.Lock()
	if c.mode == mode {
		c.mu.Unlock()
		return
	}
	c.mode = mode
	c.mu.Unlock()

	if err := c.transport.SetMicrophoneEnabled(mode == ModeVoice); err != nil {
		c.logger.Warn("failed to switch microphone with mode",
			zap.String("mode", string(mode)), zap.Error(err))
	}
	c.logger.Info("interaction mode changed", zap.String("mode", string(mode)))
}
