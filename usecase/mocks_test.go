package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/induslabs/concierge/domain/entities"
	"github.com/induslabs/concierge/domain/repositories"
)

// fakeTransport records publishes and microphone calls for assertions.
type fakeTransport struct {
	mu         sync.Mutex
	state      repositories.ConnectionState
	identity   string
	publishes  []publishedMessage
	micCalls   []bool
	publishErr error
}

type publishedMessage struct {
	topic   string
	payload []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		state:    repositories.ConnectionStateConnected,
		identity: "local-user",
	}
}

func (f *fakeTransport) PublishReliable(ctx context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	copied := make([]byte, len(payload))
	copy(copied, payload)
	f.publishes = append(f.publishes, publishedMessage{topic: topic, payload: copied})
	return nil
}

func (f *fakeTransport) SetMicrophoneEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.micCalls = append(f.micCalls, enabled)
	return nil
}

func (f *fakeTransport) State() repositories.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeTransport) LocalIdentity() string {
	return f.identity
}

func (f *fakeTransport) setState(state repositories.ConnectionState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}

func (f *fakeTransport) published(topic string) []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedMessage
	for _, p := range f.publishes {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeTransport) micHistory() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.micCalls))
	copy(out, f.micCalls)
	return out
}

// memoryIdentityStore keeps identity facts in memory for tests.
type memoryIdentityStore struct {
	mu       sync.Mutex
	identity entities.UserIdentity
	saves    int
}

func newMemoryIdentityStore(identity entities.UserIdentity) *memoryIdentityStore {
	if identity.ID == "" {
		identity.ID = "device-test"
	}
	return &memoryIdentityStore{identity: identity}
}

func (m *memoryIdentityStore) Load() (entities.UserIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity, nil
}

func (m *memoryIdentityStore) Save(identity entities.UserIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = identity
	m.saves++
	return nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
