package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"github.com/induslabs/concierge/domain/entities"
	"github.com/induslabs/concierge/domain/repositories"
)

// Outbound topics for the snapshot protocol.
const (
	TopicContextSync = "ui.context"
	TopicUserContext = "user.context"
)

const summaryLimit = 100

// ContextSnapshot is the outbound summary of what the user currently sees,
// letting the agent reason about visible UI without server-side UI state.
type ContextSnapshot struct {
	Type           string          `json:"type"`
	Timestamp      int64           `json:"timestamp"`
	Viewport       ViewportContext `json:"viewport"`
	ActiveElements []ActiveElement `json:"active_elements"`
}

// ViewportContext describes the viewport and its rendering capabilities.
type ViewportContext struct {
	Screen       entities.ScreenClass `json:"screen"`
	Density      string               `json:"density"`
	Capabilities Capabilities         `json:"capabilities"`
}

// Capabilities enumerates what the client can render.
type Capabilities struct {
	CanRenderCards       bool `json:"canRenderCards"`
	MaxVisibleCards      int  `json:"maxVisibleCards"`
	SupportsRichUI       bool `json:"supportsRichUI"`
	SupportsDynamicMedia bool `json:"supportsDynamicMedia"`
}

// ActiveElement summarizes one visible item for the agent.
type ActiveElement struct {
	ID      string            `json:"id"`
	Kind    entities.ItemKind `json:"kind"`
	Title   string            `json:"title"`
	Summary string            `json:"summary"`
}

// UserContextSnapshot carries the persisted identity facts alongside the UI
// snapshot, on its own topic.
type UserContextSnapshot struct {
	Type      string                `json:"type"`
	Timestamp int64                 `json:"timestamp"`
	UserInfo  entities.UserIdentity `json:"user_info"`
}

// ContextSyncer builds and reliably publishes context snapshots. Triggers:
// connection establishment with a known agent audio presence (once per
// connection), debounced viewport resizes, and stream-complete signals.
// Snapshots always read the store at fire time, never a stale capture.
type ContextSyncer struct {
	transport repositories.Transport
	store     *ConversationStore
	identity  *IdentityRecord
	logger    *zap.Logger

	mu            sync.Mutex
	viewport      entities.Viewport
	connected     bool
	agentPresent  bool
	syncPerformed bool
	closed        bool

	debounced func(func())
}

// NewContextSyncer creates a syncer. window is the resize debounce quiet
// period.
func NewContextSyncer(
	transport repositories.Transport,
	store *ConversationStore,
	identity *IdentityRecord,
	viewport entities.Viewport,
	window time.Duration,
	logger *zap.Logger,
) *ContextSyncer {
	return &ContextSyncer{
		transport: transport,
		store:     store,
		identity:  identity,
		logger:    logger,
		viewport:  viewport,
		debounced: debounce.New(window),
	}
}

// HandleConnectionState reacts to transport connect/disconnect transitions.
// A disconnect re-arms the once-per-connection initial sync.
func (s *ContextSyncer) HandleConnectionState(state repositories.ConnectionState) {
	s.mu.Lock()
	s.connected = state == repositories.ConnectionStateConnected
	if !s.connected {
		s.syncPerformed = false
		s.agentPresent = false
	}
	s.mu.Unlock()

	s.maybeInitialSync()
}

// HandleAgentPresence records whether an agent audio track is known.
func (s *ContextSyncer) HandleAgentPresence(present bool) {
	s.mu.Lock()
	s.agentPresent = present
	s.mu.Unlock()

	s.maybeInitialSync()
}

// maybeInitialSync fires the initial snapshot exactly once per connection
// lifetime, once both the connection and the agent presence are known.
func (s *ContextSyncer) maybeInitialSync() {
	s.mu.Lock()
	ready := s.connected && s.agentPresent && !s.syncPerformed && !s.closed
	if ready {
		s.syncPerformed = true
	}
	s.mu.Unlock()

	if !ready {
		return
	}
	s.logger.Info("agent joined, performing initial context sync")
	if err := s.SyncNow(context.Background()); err != nil {
		s.logger.Warn("initial context sync failed", zap.Error(err))
	}
}

// HandleResize records the new viewport and schedules a debounced sync; only
// the last resize in a burst publishes.
func (s *ContextSyncer) HandleResize(viewport entities.Viewport) {
	s.mu.Lock()
	s.viewport = viewport
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}
	s.debounced(func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		if err := s.SyncNow(context.Background()); err != nil {
			s.logger.Warn("resize context sync failed", zap.Error(err))
		}
	})
}

// HandleStreamComplete publishes immediately when a flashcard stream ends;
// the agent's next turn may depend on the snapshot.
func (s *ContextSyncer) HandleStreamComplete() {
	if err := s.SyncNow(context.Background()); err != nil {
		s.logger.Warn("stream-complete context sync failed", zap.Error(err))
	}
}

// Close stops future debounced publishes.
func (s *ContextSyncer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// SyncNow builds both snapshot payloads from the current store contents and
// publishes them reliably.
func (s *ContextSyncer) SyncNow(ctx context.Context) error {
	if s.transport.State() != repositories.ConnectionStateConnected {
		return nil
	}

	s.mu.Lock()
	viewport := s.viewport
	s.mu.Unlock()

	now := time.Now().UnixMilli()
	snapshot := ContextSnapshot{
		Type:      "ui.context_sync",
		Timestamp: now,
		Viewport: ViewportContext{
			Screen:  viewport.Class(),
			Density: viewport.Density(),
			Capabilities: Capabilities{
				CanRenderCards:       true,
				MaxVisibleCards:      viewport.MaxVisibleCards(),
				SupportsRichUI:       true,
				SupportsDynamicMedia: true,
			},
		},
		ActiveElements: activeElements(s.store.SnapshotOrdered()),
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding context snapshot: %w", err)
	}
	if err := s.transport.PublishReliable(ctx, TopicContextSync, payload); err != nil {
		return fmt.Errorf("publishing context snapshot: %w", err)
	}

	userSnapshot := UserContextSnapshot{
		Type:      "user.context_sync",
		Timestamp: now,
		UserInfo:  s.identity.Snapshot(),
	}
	userPayload, err := json.Marshal(userSnapshot)
	if err != nil {
		return fmt.Errorf("encoding user context: %w", err)
	}
	if err := s.transport.PublishReliable(ctx, TopicUserContext, userPayload); err != nil {
		return fmt.Errorf("publishing user context: %w", err)
	}

	s.logger.Debug("context sync published",
		zap.Int("activeElements", len(snapshot.ActiveElements)),
		zap.String("screen", string(snapshot.Viewport.Screen)))
	return nil
}

// activeElements summarizes the stored flashcards in display order.
func activeElements(items []entities.Item) []ActiveElement {
	elements := make([]ActiveElement, 0)
	for _, item := range items {
		if item.Kind != entities.KindFlashcard || item.Card == nil {
			continue
		}
		elements = append(elements, ActiveElement{
			ID:      item.ID,
			Kind:    item.Kind,
			Title:   item.Card.Title,
			Summary: ellipsize(item.Card.Value, summaryLimit),
		})
	}
	return elements
}

func ellipsize(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
