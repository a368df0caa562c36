package usecase

import (
	"go.uber.org/zap"

	"github.com/induslabs/concierge/domain/entities"
)

// StreamLifecycle tracks the active generation of streamed flashcards. The
// agent renders one logical answer as a stream of cards sharing a stream id;
// a card from a new stream replaces the previous answer's cards, while cards
// of the current stream accumulate.
type StreamLifecycle struct {
	store  *ConversationStore
	logger *zap.Logger
}

// NewStreamLifecycle creates a lifecycle manager over the given store.
func NewStreamLifecycle(store *ConversationStore, logger *zap.Logger) *StreamLifecycle {
	return &StreamLifecycle{store: store, logger: logger}
}

// Insert adds a flashcard item, evicting every stored flashcard first when
// the new card opens a different generation. Cards without a stream id never
// trigger eviction and accumulate alongside whatever is present.
func (l *StreamLifecycle) Insert(item entities.Item) {
	if item.Kind != entities.KindFlashcard || item.Card == nil {
		return
	}

	newStream := item.Card.StreamID
	currentStream, hasCards := l.store.LatestFlashcardStreamID()

	if newStream != "" && hasCards && currentStream != "" && newStream != currentStream {
		removed := l.store.RemoveKind(entities.KindFlashcard)
		l.logger.Info("replacing flashcard generation",
			zap.String("oldStream", currentStream),
			zap.String("newStream", newStream),
			zap.Int("evicted", len(removed)))
	}

	l.store.Upsert(item)
}
