package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	phaseLobby    = "lobby"
	phaseReveal   = "reveal"
	phaseChat     = "chat"
	phaseVoting   = "voting"
	phaseRevote   = "revote"
	phaseResult   = "result"
	phaseGameOver = "game_over"
)

const (
	rolePlayer   = "player"
	roleImposter = "imposter"

	modeDifferentWord = "different_word"
	modeNoWord        = "no_word"

	categoryRandom = "random"

	minPlayers = 3
)

// Player identity is the stable ID assigned at join time; the websocket
// connection it currently speaks through is a replaceable handle, swapped
// on reconnect. Votes, clues and host tracking all key on ID, never Conn.
type Player struct {
	ID          string
	Conn        string
	Name        string
	Role        string // "", rolePlayer or roleImposter
	Word        *string
	Alive       bool
	HasRevealed bool
}

// Clue is one entry in a room's append-only clue log.
type Clue struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Clue       string `json:"clue"`
	Round      int    `json:"round"`
}

type Room struct {
	mu sync.Mutex

	code    string
	hostID  string // stable player id of the current host
	players []*Player
	clients map[*Client]bool

	phase          string
	impostersCount int
	category       string
	mode           string

	round       int
	turnIndex   int
	clues       []Clue
	votes       map[string]string // voter player id -> target player id
	tiedPlayers []string
	isRevote    bool

	actualWord     string
	imposterWord   string
	hint           string
	actualCategory string

	gameOverData *GameOverMessage

	// At most one live turn timer; turnEpoch guards against a stale
	// callback that fired just before being stopped.
	turnTimer *time.Timer
	turnEpoch int

	createdAt  time.Time
	lastActive time.Time

	cfg *Config
}

func newRoom(cfg *Config, code string) *Room {
	now := time.Now()
	return &Room{
		code:           code,
		clients:        make(map[*Client]bool),
		phase:          phaseLobby,
		impostersCount: 1,
		category:       categoryRandom,
		mode:           modeDifferentWord,
		round:          1,
		votes:          make(map[string]string),
		createdAt:      now,
		lastActive:     now,
		cfg:            cfg,
	}
}

func newPlayer(connID, name string) *Player {
	return &Player{
		ID:    uuid.NewString(),
		Conn:  connID,
		Name:  name,
		Alive: true,
	}
}

func (r *Room) touchLocked() {
	r.lastActive = time.Now()
}

func (r *Room) playerByConnLocked(connID string) *Player {
	for _, p := range r.players {
		if p.Conn == connID {
			return p
		}
	}
	return nil
}

func (r *Room) playerByIDLocked(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerByNameLocked(name string) *Player {
	for _, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (r *Room) alivePlayersLocked() []*Player {
	alive := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

func (r *Room) publicPlayerLocked(p *Player) PublicPlayer {
	return PublicPlayer{
		ID:          p.ID,
		Name:        p.Name,
		Alive:       p.Alive,
		HasRevealed: p.HasRevealed,
	}
}

func (r *Room) snapshotLocked() RoomUpdateMessage {
	players := make([]PublicPlayer, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, r.publicPlayerLocked(p))
	}

	clues := r.clues
	if clues == nil {
		clues = []Clue{}
	}
	tied := r.tiedPlayers
	if tied == nil {
		tied = []string{}
	}

	return RoomUpdateMessage{
		Type:           "room_update",
		RoomCode:       r.code,
		HostID:         r.hostID,
		Players:        players,
		Phase:          r.phase,
		Category:       r.category,
		Mode:           r.mode,
		ImpostersCount: r.impostersCount,
		TurnIndex:      r.turnIndex,
		Round:          r.round,
		Clues:          clues,
		TiedPlayers:    tied,
		IsRevote:       r.isRevote,
	}
}

// broadcastLocked sends msg to every connected client of the room,
// dropping clients whose send buffers are full.
func (r *Room) broadcastLocked(msg any) {
	for client := range r.clients {
		if !client.trySend(msg) {
			delete(r.clients, client)
			client.closeSend()
		}
	}
}

func (r *Room) broadcastUpdateLocked() {
	r.broadcastLocked(r.snapshotLocked())
}

// sendToPlayerLocked delivers a private payload to the connection a
// player is currently bound to, if any.
func (r *Room) sendToPlayerLocked(p *Player, msg any) {
	for client := range r.clients {
		if client.id != p.Conn {
			continue
		}
		if !client.trySend(msg) {
			delete(r.clients, client)
			client.closeSend()
		}
		return
	}
}

// closeAll disconnects all clients of this room (used by the reaper).
func (r *Room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTurnTimerLocked()

	for c := range r.clients {
		c.closeSend()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(r.clients, c)
	}
}

// RoomManager owns every room (keyed by code) and the identity tracker
// mapping connection ids to the room they are bound to.
type RoomManager struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	memberships map[string]string // connection id -> room code
	cfg         *Config
}

func newRoomManager(cfg *Config) *RoomManager {
	rm := &RoomManager{
		rooms:       make(map[string]*Room),
		memberships: make(map[string]string),
		cfg:         cfg,
	}
	if cfg.sessionTimeout > 0 {
		go rm.reaperLoop()
	}
	return rm
}

// newRoomCodeLocked generates a crypto-random 6-letter room code and ensures
// it doesn't collide with existing rooms. Caller holds rm.mu.
func (rm *RoomManager) newRoomCodeLocked() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 6)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		if _, exists := rm.rooms[code]; !exists {
			return code
		}
	}
}

func (rm *RoomManager) lookupRoom(code string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.rooms[code]
}

// roomFor resolves the room a connection is currently bound to.
func (rm *RoomManager) roomFor(c *Client) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code, ok := rm.memberships[c.id]
	if !ok {
		return nil
	}
	return rm.rooms[code]
}

func (rm *RoomManager) bind(connID, code string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.memberships[connID] = code
}

func (rm *RoomManager) unbind(connID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.memberships, connID)
}

// createRoom allocates a room in lobby phase with the creating player
// as host and binds the connection to it.
func (rm *RoomManager) createRoom(c *Client, playerName string) (*Room, *intentError) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return nil, validationError("Player name is required")
	}

	rm.mu.Lock()
	code := rm.newRoomCodeLocked()
	room := newRoom(rm.cfg, code)
	rm.rooms[code] = room
	rm.memberships[c.id] = code
	rm.mu.Unlock()

	room.mu.Lock()
	defer room.mu.Unlock()

	host := newPlayer(c.id, name)
	room.hostID = host.ID
	room.players = append(room.players, host)
	room.clients[c] = true

	c.trySend(RoomCreatedMessage{Type: "room_created", RoomCode: code})
	room.broadcastUpdateLocked()

	logf(rm.cfg, "GAMES: Player %q created room %s", name, code)

	return room, nil
}

// joinRoom appends a new player to a lobby-phase room.
func (rm *RoomManager) joinRoom(c *Client, roomCode, playerName string) *intentError {
	name := strings.TrimSpace(playerName)
	if roomCode == "" || name == "" {
		return validationError("Room code and player name are required")
	}

	code := strings.ToUpper(roomCode)
	room := rm.lookupRoom(code)
	if room == nil {
		return notFoundError("Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != phaseLobby {
		return phaseError("Game already started")
	}
	if room.playerByNameLocked(name) != nil {
		return stateError("Name already taken in this room")
	}

	room.touchLocked()
	room.players = append(room.players, newPlayer(c.id, name))
	room.clients[c] = true
	rm.bind(c.id, code)

	c.trySend(RoomJoinedMessage{Type: "room_joined", RoomCode: code})
	room.broadcastUpdateLocked()

	logf(rm.cfg, "GAMES: Player %q joined room %s", name, code)

	return nil
}

// reconnect rebinds an existing player (matched by name, the stable
// identity clients persist) to a fresh connection. Votes and host
// status key on the player id, so only the connection handle changes.
func (rm *RoomManager) reconnect(c *Client, roomCode, playerName string) *intentError {
	name := strings.TrimSpace(playerName)
	if roomCode == "" || name == "" {
		return validationError("Invalid reconnection data")
	}

	code := strings.ToUpper(roomCode)
	room := rm.lookupRoom(code)
	if room == nil {
		return notFoundError("Room no longer exists")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player := room.playerByNameLocked(name)
	if player == nil {
		return notFoundError("Player not found in room")
	}

	// Drop any client still registered under the stale connection.
	for client := range room.clients {
		if client.id == player.Conn && client != c {
			delete(room.clients, client)
			client.closeSend()
		}
	}
	rm.unbind(player.Conn)

	player.Conn = c.id
	room.clients[c] = true
	rm.bind(c.id, code)
	room.touchLocked()

	if room.phase != phaseLobby && player.Role != "" {
		room.sendRoleLocked(player)
	}
	if room.phase == phaseGameOver && room.gameOverData != nil {
		c.trySend(*room.gameOverData)
	}

	c.trySend(ReconnectSuccessMessage{Type: "reconnect_success", RoomCode: code})
	room.broadcastUpdateLocked()

	logf(rm.cfg, "GAMES: Player %q reconnected to room %s", name, code)

	return nil
}

// disconnect detaches a connection. The player entry stays in the room
// so a later reconnect can reclaim it; abandoned rooms are removed by
// the reaper instead.
func (rm *RoomManager) disconnect(c *Client) {
	room := rm.roomFor(c)
	rm.unbind(c.id)

	// closeSend is idempotent: the reconnect and reaper paths may have
	// already closed this client before its readPump exits.
	if room == nil {
		c.closeSend()
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if _, ok := room.clients[c]; ok {
		delete(room.clients, c)
	}
	c.closeSend()

	if p := room.playerByConnLocked(c.id); p != nil {
		logf(rm.cfg, "GAMES: Player %q disconnected from room %s", p.Name, room.code)
	}
}

// reaperLoop periodically removes rooms that have been idle longer than
// the configured session timeout. Lock order is always room then
// manager, so idle checks happen outside the manager lock.
func (rm *RoomManager) reaperLoop() {
	ticker := time.NewTicker(rm.cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-rm.cfg.sessionTimeout)

		rm.mu.Lock()
		candidates := make(map[string]*Room, len(rm.rooms))
		for code, room := range rm.rooms {
			candidates[code] = room
		}
		rm.mu.Unlock()

		for code, room := range candidates {
			room.mu.Lock()
			idle := room.lastActive.Before(cutoff)
			room.mu.Unlock()

			if !idle {
				continue
			}

			rm.mu.Lock()
			delete(rm.rooms, code)
			for conn, memberCode := range rm.memberships {
				if memberCode == code {
					delete(rm.memberships, conn)
				}
			}
			rm.mu.Unlock()

			logf(rm.cfg, "GAMES: Reaped idle room %s", code)

			go room.closeAll()
		}
	}
}
