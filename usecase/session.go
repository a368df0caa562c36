package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/induslabs/concierge/domain/entities"
	"github.com/induslabs/concierge/domain/repositories"
)

// SessionConfig tunes session-wide timing and the initial viewport.
type SessionConfig struct {
	Decoder        DecoderConfig
	ResizeDebounce time.Duration
	Viewport       entities.Viewport
}

// DefaultSessionConfig returns production timings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Decoder:        DefaultDecoderConfig(),
		ResizeDebounce: time.Second,
		Viewport:       entities.Viewport{Width: 1280, Height: 800},
	}
}

// Session assembles the conversation store, decoder, lifecycle managers,
// mode controller and context syncer over one transport, and binds the
// transport callbacks. The presentation layer consumes Messages and drives
// SendText/ToggleMic/Resize.
type Session struct {
	store     *ConversationStore
	decoder   *Decoder
	ephemeral *EphemeralScheduler
	mode      *ModeController
	syncer    *ContextSyncer
	identity  *IdentityRecord
	logger    *zap.Logger
}

// NewSession wires a session over the transport. The identity record is
// loaded from (and written through to) identityStore.
func NewSession(
	transport repositories.Transport,
	identityStore repositories.IdentityStore,
	cfg SessionConfig,
	logger *zap.Logger,
) (*Session, error) {
	identity, err := LoadIdentityRecord(identityStore)
	if err != nil {
		return nil, err
	}

	store := NewConversationStore()
	streams := NewStreamLifecycle(store, logger)
	ephemeral := NewEphemeralScheduler(store, logger)
	decoder := NewDecoder(store, streams, ephemeral, identity,
		transport.LocalIdentity(), cfg.Decoder, logger)
	mode := NewModeController(transport, store, logger)
	syncer := NewContextSyncer(transport, store, identity,
		cfg.Viewport, cfg.ResizeDebounce, logger)

	decoder.SetStreamCompleteFunc(syncer.HandleStreamComplete)

	return &Session{
		store:     store,
		decoder:   decoder,
		ephemeral: ephemeral,
		mode:      mode,
		syncer:    syncer,
		identity:  identity,
		logger:    logger,
	}, nil
}

// Handlers returns the callback set to register with the transport.
func (s *Session) Handlers() repositories.TransportHandlers {
	return repositories.TransportHandlers{
		OnTranscription:   s.decoder.HandleTranscription,
		OnData:            s.decoder.HandleData,
		OnConnectionState: s.syncer.HandleConnectionState,
		OnAgentPresence:   s.syncer.HandleAgentPresence,
	}
}

// Messages returns the conversation items in display order.
func (s *Session) Messages() []entities.Item {
	return s.store.SnapshotOrdered()
}

// Mode returns the current interaction mode.
func (s *Session) Mode() InteractionMode {
	return s.mode.Mode()
}

// SendText routes outgoing user text; see ModeController.SendText.
func (s *Session) SendText(ctx context.Context, text string) error {
	return s.mode.SendText(ctx, text)
}

// ToggleMic mutes or unmutes the microphone; see ModeController.ToggleMic.
func (s *Session) ToggleMic(mute bool) {
	s.mode.ToggleMic(mute)
}

// Resize reports a viewport change; the resulting sync is debounced.
func (s *Session) Resize(viewport entities.Viewport) {
	s.syncer.HandleResize(viewport)
}

// Identity returns the current user identity facts.
func (s *Session) Identity() entities.UserIdentity {
	return s.identity.Snapshot()
}

// Close cancels all pending timers. A canceled timer can never mutate a
// store belonging to a torn-down session.
func (s *Session) Close() {
	s.syncer.Close()
	s.ephemeral.Close()
	s.logger.Info("session closed")
}
