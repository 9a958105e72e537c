package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Frame is the wire envelope pushed to live-update subscribers.
type Frame struct {
	Type string   `json:"type"`
	Data Snapshot `json:"data"`
}

// Broadcaster pushes periodic snapshots to websocket subscribers. Every
// subscriber runs its own timer, so one slow or closing connection never
// affects the others.
type Broadcaster struct {
	provider *Provider
	interval time.Duration
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewBroadcaster(provider *Provider, interval time.Duration, logger zerolog.Logger) *Broadcaster {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Broadcaster{
		provider: provider,
		interval: interval,
		logger:   logger.With().Str("component", "broadcast").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams stats frames until the peer
// goes away. The first frame is sent immediately; later frames follow the
// configured interval.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The request context dies with the handshake response; the subscriber
	// needs its own lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	go b.watchClose(conn, cancel)
	b.stream(ctx, conn)
	cancel()
	_ = conn.Close()
}

// watchClose drains the client side of the socket. The protocol needs no
// client messages; a read error is how we learn about disconnects.
func (b *Broadcaster) watchClose(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) stream(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	if err := b.push(conn); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.push(conn); err != nil {
				return
			}
		}
	}
}

func (b *Broadcaster) push(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(Frame{Type: "stats", Data: b.provider.Sample()})
}
