package usecase

import (
	"sort"
	"sync"

	"github.com/induslabs/concierge/domain/entities"
)

// ConversationStore owns all conversation items, keyed by id. All mutations
// go through Upsert/Remove so the ordered view is always derived from a
// single source of truth.
type ConversationStore struct {
	mu    sync.Mutex
	items map[string]storedItem
	seq   uint64
}

type storedItem struct {
	item entities.Item
	seq  uint64
}

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{items: make(map[string]storedItem)}
}

// Upsert inserts or replaces the item under its id. Returns true when the
// store changed; re-inserting a field-for-field identical item is a no-op.
func (s *ConversationStore) Upsert(item entities.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if ok && existing.item.Equal(item) {
		return false
	}

	seq := existing.seq
	if !ok {
		s.seq++
		seq = s.seq
	}
	s.items[item.ID] = storedItem{item: item, seq: seq}
	return true
}

// Remove deletes the item by id. Removing an absent id is a no-op.
func (s *ConversationStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

// RemoveKind deletes every item of the given kind and returns the removed
// ids.
func (s *ConversationStore) RemoveKind(kind entities.ItemKind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, stored := range s.items {
		if stored.item.Kind == kind {
			delete(s.items, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// SnapshotOrdered returns all items sorted ascending by timestamp. Items
// with equal timestamps keep their insertion order.
func (s *ConversationStore) SnapshotOrdered() []entities.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]storedItem, 0, len(s.items))
	for _, it := range s.items {
		stored = append(stored, it)
	}
	sort.Slice(stored, func(i, j int) bool {
		if stored[i].item.Timestamp != stored[j].item.Timestamp {
			return stored[i].item.Timestamp < stored[j].item.Timestamp
		}
		return stored[i].seq < stored[j].seq
	})

	items := make([]entities.Item, len(stored))
	for i, it := range stored {
		items[i] = it.item
	}
	return items
}

// Get returns the item under id, if present.
func (s *ConversationStore) Get(id string) (entities.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[id]
	return stored.item, ok
}

// Len returns the number of stored items.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// LatestFlashcardStreamID returns the stream id of the most recently
// inserted flashcard, and whether any flashcard is stored at all.
func (s *ConversationStore) LatestFlashcardStreamID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		found   bool
		bestSeq uint64
		stream  string
	)
	for _, stored := range s.items {
		if stored.item.Kind != entities.KindFlashcard {
			continue
		}
		if !found || stored.seq > bestSeq {
			found = true
			bestSeq = stored.seq
			if stored.item.Card != nil {
				stream = stored.item.Card.StreamID
			}
		}
	}
	return stream, found
}
