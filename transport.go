package main

import (
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn    *websocket.Conn
	send    chan any
	id      string
	limiter *rate.Limiter

	// mu guards closed so that send and close cannot race; the send
	// channel is only ever closed through closeSend.
	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan any, 32),
		id:      uuid.NewString(),
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// trySend queues a message for this client and reports whether it was
// accepted. A full buffer or an already-closed client drops the message;
// acting on a false return (dropping the client) is up to the caller.
func (c *Client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once, no matter how many of
// the disconnect, reconnect, reaper and overflow paths reach it.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump(cfg *Config, rm *RoomManager) {
	defer func() {
		rm.disconnect(c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			c.trySend(ErrorMessage{Type: "error_message", Message: "Too many requests"})
			continue
		}

		c.dispatch(cfg, rm, msg)
	}
}

func (c *Client) dispatch(cfg *Config, rm *RoomManager, msg ClientMessage) {
	var err *intentError

	switch msg.Type {
	case "create_room":
		_, err = rm.createRoom(c, msg.PlayerName)
	case "join_room":
		err = rm.joinRoom(c, msg.RoomCode, msg.PlayerName)
	case "reconnect_to_room":
		if err = rm.reconnect(c, msg.RoomCode, msg.PlayerName); err != nil {
			c.trySend(ReconnectFailedMessage{Type: "reconnect_failed", Message: err.message})
			logf(cfg, "GAMES: Rejected %s (%s): %s", msg.Type, err.kind, err.message)
			return
		}
	case "update_settings":
		err = rm.updateSettings(c, msg)
	case "start_game":
		err = rm.startGame(c)
	case "reveal_word":
		err = rm.revealWord(c)
	case "submit_clue":
		err = rm.submitClue(c, msg.Clue)
	case "cast_vote":
		err = rm.castVote(c, msg.TargetID)
	case "restart_game":
		err = rm.restartGame(c)
	default:
		// ignore unknown types
	}

	if err != nil {
		c.trySend(ErrorMessage{Type: "error_message", Message: err.message})
		logf(cfg, "GAMES: Rejected %s (%s): %s", msg.Type, err.kind, err.message)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWSForManager(cfg *Config, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := newClient(conn)

		go client.writePump()
		client.readPump(cfg, rm)
	}
}

// qrHandler generates a PNG QR code for a room's join URL.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomCode := ps.ByName("roomcode")
	if roomCode == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr/:roomcode; strip the QR suffix to get the game page.
	path := strings.TrimSuffix(r.URL.Path, "/qr/"+roomCode)

	url := scheme + "://" + r.Host + path + "?room=" + roomCode

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func serveGamePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = io.WriteString(w, newPage("Imposter", "Connect a client to ./ws to play."))
	}
}

// registerImposterGame sets up routes so that:
//   - $path                  → HTML landing page
//   - $path/ws               → WebSocket carrying the game protocol
//   - $path/qr/:roomcode     → PNG QR code for that room's join URL
func registerImposterGame(cfg *Config, path string, mux *httprouter.Router) *RoomManager {
	rm := newRoomManager(cfg)

	mux.GET(cfg.prefix+path, serveGamePage(cfg))

	mux.GET(cfg.prefix+path+"/ws", serveWSForManager(cfg, rm))

	mux.GET(cfg.prefix+path+"/qr/:roomcode", qrHandler)

	return rm
}
