// Package transport connects the session core to the agent gateway over a
// WebSocket carrying transcription and data-channel frames.
package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/induslabs/concierge/domain/repositories"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the peer.
	maxMessageSize = 512 * 1024
)

// Inbound frame types relayed by the gateway.
const (
	frameTranscription = "transcription"
	frameData          = "data"
	frameAgentPresence = "agent_presence"
)

// Outbound frame types.
const (
	framePublish       = "publish"
	frameSetMicrophone = "set_microphone"
)

// frame is the JSON envelope exchanged with the gateway. Payload bytes are
// base64 so opaque data-channel messages survive the JSON framing.
type frame struct {
	Type        string                              `json:"type"`
	Participant string                              `json:"participant,omitempty"`
	Topic       string                              `json:"topic,omitempty"`
	Payload     string                              `json:"payload,omitempty"`
	Segments    []repositories.TranscriptionSegment `json:"segments,omitempty"`
	Present     bool                                `json:"present,omitempty"`
	Enabled     bool                                `json:"enabled,omitempty"`
}

// Client is a WebSocket implementation of the transport port. Inbound frames
// are dispatched to the registered handlers one at a time, preserving
// arrival order.
type Client struct {
	url           string
	localIdentity string
	logger        *zap.Logger

	handlers repositories.TransportHandlers

	mu      sync.Mutex
	conn    *websocket.Conn
	state   repositories.ConnectionState
	writeMu sync.Mutex

	done chan struct{}
}

// NewClient creates a client for the gateway at url. localIdentity is the
// identity the gateway assigned to this participant.
func NewClient(url, localIdentity string, logger *zap.Logger) *Client {
	return &Client{
		url:           url,
		localIdentity: localIdentity,
		logger:        logger,
		state:         repositories.ConnectionStateDisconnected,
	}
}

// SetHandlers registers the inbound event callbacks. Must be called before
// Connect.
func (c *Client) SetHandlers(handlers repositories.TransportHandlers) {
	c.handlers = handlers
}

// Connect dials the gateway and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing gateway: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = repositories.ConnectionStateConnected
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.logger.Info("transport connected", zap.String("url", c.url))
	if c.handlers.OnConnectionState != nil {
		c.handlers.OnConnectionState(repositories.ConnectionStateConnected)
	}

	go c.readPump(conn)
	go c.pingLoop(conn)
	return nil
}

// Close tears the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// State reports the current connection state.
func (c *Client) State() repositories.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LocalIdentity returns the local participant identity.
func (c *Client) LocalIdentity() string {
	return c.localIdentity
}

// PublishReliable sends a payload on a topic. The gateway forwards it using
// the room's reliable delivery mode.
func (c *Client) PublishReliable(ctx context.Context, topic string, payload []byte) error {
	return c.writeFrame(frame{
		Type:    framePublish,
		Topic:   topic,
		Payload: base64.StdEncoding.EncodeToString(payload),
	})
}

// SetMicrophoneEnabled asks the gateway to enable or disable the local
// microphone track.
func (c *Client) SetMicrophoneEnabled(enabled bool) error {
	return c.writeFrame(frame{Type: frameSetMicrophone, Enabled: enabled})
}

func (c *Client) writeFrame(f frame) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if conn == nil || state != repositories.ConnectionStateConnected {
		return fmt.Errorf("transport not connected")
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// readPump reads frames until the connection drops and dispatches them in
// arrival order.
func (c *Client) readPump(conn *websocket.Conn) {
	defer c.markDisconnected(conn)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("transport read failed", zap.Error(err))
			}
			return
		}
		c.dispatch(message)
	}
}

func (c *Client) dispatch(message []byte) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		c.logger.Warn("dropping malformed gateway frame", zap.Error(err))
		return
	}

	switch f.Type {
	case frameTranscription:
		if c.handlers.OnTranscription != nil {
			c.handlers.OnTranscription(f.Segments, f.Participant)
		}
	case frameData:
		if c.handlers.OnData == nil {
			return
		}
		payload, err := base64.StdEncoding.DecodeString(f.Payload)
		if err != nil {
			c.logger.Warn("dropping data frame with bad payload encoding", zap.Error(err))
			return
		}
		c.handlers.OnData(payload, f.Participant, f.Topic)
	case frameAgentPresence:
		if c.handlers.OnAgentPresence != nil {
			c.handlers.OnAgentPresence(f.Present)
		}
	default:
		c.logger.Debug("ignoring unknown gateway frame", zap.String("type", f.Type))
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (c *Client) markDisconnected(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	active := c.conn == conn
	if active {
		c.conn = nil
		c.state = repositories.ConnectionStateDisconnected
		if c.done != nil {
			close(c.done)
			c.done = nil
		}
	}
	c.mu.Unlock()

	// A pump left over from a replaced connection must not report a
	// disconnect for the live one.
	if !active {
		return
	}
	c.logger.Info("transport disconnected")
	if c.handlers.OnConnectionState != nil {
		c.handlers.OnConnectionState(repositories.ConnectionStateDisconnected)
	}
}
