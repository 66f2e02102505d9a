package connection

import (
	"encoding/binary"
	"errors"
	"net/http"
	"soundcapture/internal/capturer"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	headerSize   = 8 // big endian pts
	writeTimeout = 2 * time.Second
)

var (
	ErrBroadcasterClosed = errors.New("broadcaster closed")
	ErrShortMessage      = errors.New("message shorter than pts header")
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    1024,
	WriteBufferSize:   1024 * 10,
	EnableCompression: false, // Disable compression for audio
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans captured frames out to every connected websocket client.
// Each frame is one binary message: 8 byte big endian pts followed by the payload.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	buffer  int
	dropped atomic.Uint64
	logger  zerolog.Logger
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 1
	}
	return &Broadcaster{
		clients: make(map[*client]struct{}),
		buffer:  buffer,
		logger:  log.With().Str("component", "broadcast").Logger(),
	}
}

func EncodeMessage(f capturer.Frame) []byte {
	msg := make([]byte, headerSize+len(f.Data))
	binary.BigEndian.PutUint64(msg, uint64(f.PTS))
	copy(msg[headerSize:], f.Data)
	return msg
}

func DecodeMessage(msg []byte) (int64, []byte, error) {
	if len(msg) < headerSize {
		return 0, nil, ErrShortMessage
	}
	return int64(binary.BigEndian.Uint64(msg)), msg[headerSize:], nil
}

// HandleWebsocket upgrades the request and keeps the client registered until it disconnects.
func (b *Broadcaster) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade initial GET request to a websocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, b.buffer)}
	if !b.register(c) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "capture finished"))
		conn.Close()
		return
	}
	b.logger.Info().Str("remote", r.RemoteAddr).Msg("Client connected")

	go b.writeLoop(c)

	// clients only listen; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	b.unregister(c)
	b.logger.Info().Str("remote", r.RemoteAddr).Msg("Client disconnected")
}

func (b *Broadcaster) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			b.logger.Debug().Err(err).Msg("Write error")
			b.unregister(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "capture finished"))
}

func (b *Broadcaster) register(c *client) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.clients[c] = struct{}{}
	return true
}

func (b *Broadcaster) unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

// WriteFrame queues f for every client. A client whose queue is full misses the frame.
func (b *Broadcaster) WriteFrame(f capturer.Frame) error {
	msg := EncodeMessage(f)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBroadcasterClosed
	}
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close disconnects every client after its queue drains.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
	b.logger.Info().Uint64("dropped", b.dropped.Load()).Msg("Broadcaster closed")
	return nil
}
