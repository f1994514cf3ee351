package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rxmcp/internal/mcp"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// handleWS upgrades the connection and serves JSON-RPC messages over it
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	id := s.sessions.Add(cancel)
	defer s.sessions.Remove(id)

	logger := s.logger.With().Str("session", id).Str("remoteAddr", r.RemoteAddr).Logger()
	logger.Info().Msg("new WebSocket connection")

	client := newWSClient(conn, s.dispatcher, s.cfg.MaxBodySize, logger)
	client.Run(ctx)
}

// wsClient is one WebSocket connection
type wsClient struct {
	conn       *websocket.Conn
	dispatcher *mcp.Dispatcher
	readLimit  int64
	logger     zerolog.Logger

	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
	inflight  sync.WaitGroup
}

func newWSClient(conn *websocket.Conn, dispatcher *mcp.Dispatcher, readLimit int64, logger zerolog.Logger) *wsClient {
	return &wsClient{
		conn:       conn,
		dispatcher: dispatcher,
		readLimit:  readLimit,
		logger:     logger,
		sendChan:   make(chan []byte, sendBuffer),
		closeChan:  make(chan struct{}),
	}
}

// Run starts the write loop and blocks in the read loop until the connection ends
func (c *wsClient) Run(ctx context.Context) {
	if c.readLimit > 0 {
		c.conn.SetReadLimit(c.readLimit)
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump(ctx)
	c.readPump(ctx)
	c.inflight.Wait()
}

func (c *wsClient) readPump(ctx context.Context) {
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeChan:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("read error")
			}
			return
		}

		// Tool calls may wait on upstream retries; keep reading meanwhile
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			if reply := c.dispatcher.HandleMessage(ctx, data); reply != nil {
				c.send(reply)
			}
		}()
	}
}

func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-c.closeChan:
			return
		case data := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send queues a reply; replies to a closed connection are dropped
func (c *wsClient) send(data []byte) {
	select {
	case c.sendChan <- data:
	case <-c.closeChan:
	}
}

// Close closes the connection
func (c *wsClient) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		c.conn.Close()
		c.logger.Debug().Msg("client closed")
	})
}
