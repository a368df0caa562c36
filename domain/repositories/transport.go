package repositories

import "context"

// ConnectionState is the coarse transport connection state.
type ConnectionState string

const (
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateDisconnected ConnectionState = "disconnected"
)

// TranscriptionSegment is one unit of speech-to-text output delivered by the
// transport, progressively refined from interim to final under a stable ID.
type TranscriptionSegment struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	Final           bool   `json:"final"`
	FirstReceivedAt int64  `json:"first_received_at"` // Unix milliseconds
}

// Transport abstracts the real-time audio + data channel connecting the
// client to the agent. Inbound traffic is delivered through the callbacks
// registered with SetHandlers; all callbacks for one delivery run to
// completion before the next one is dispatched.
type Transport interface {
	// PublishReliable sends a payload on a topic using the transport's
	// reliable delivery mode.
	PublishReliable(ctx context.Context, topic string, payload []byte) error
	// SetMicrophoneEnabled enables or disables the local microphone track.
	SetMicrophoneEnabled(enabled bool) error
	// State reports the current connection state.
	State() ConnectionState
	// LocalIdentity returns the local participant's identity string.
	LocalIdentity() string
}

// TransportHandlers receives inbound transport events.
type TransportHandlers struct {
	// OnTranscription delivers transcription segments with the identity of
	// the speaking participant.
	OnTranscription func(segments []TranscriptionSegment, participantIdentity string)
	// OnData delivers an opaque payload tagged with its topic and sender.
	OnData func(payload []byte, participantIdentity string, topic string)
	// OnConnectionState reports connect/disconnect transitions.
	OnConnectionState func(state ConnectionState)
	// OnAgentPresence reports whether an agent audio track is known.
	OnAgentPresence func(present bool)
}
