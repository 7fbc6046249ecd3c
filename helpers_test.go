package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// testConfig keeps the phase-transition delays short enough to wait on
// and the turn timer long enough to stay inert.
func testConfig() *Config {
	return &Config{
		turnTimeout: 5 * time.Second,
		revealDelay: 15 * time.Millisecond,
		voteDelay:   15 * time.Millisecond,
		resultDelay: 15 * time.Millisecond,
	}
}

// newTestClient builds a client without a websocket behind it; the send
// channel is large enough to absorb every broadcast in a test.
func newTestClient() *Client {
	return &Client{
		send:    make(chan any, 256),
		id:      uuid.NewString(),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

// makeRoom creates a room with the first name as host and joins the rest.
func makeRoom(t *testing.T, rm *RoomManager, names ...string) (*Room, map[string]*Client) {
	t.Helper()

	clients := make(map[string]*Client, len(names))

	host := newTestClient()
	room, ierr := rm.createRoom(host, names[0])
	require.Nil(t, ierr)
	clients[names[0]] = host

	for _, name := range names[1:] {
		c := newTestClient()
		require.Nil(t, rm.joinRoom(c, room.code, name))
		clients[name] = c
	}

	return room, clients
}

func intPtr(n int) *int {
	return &n
}

func cluesSnapshot(r *Room) []Clue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Clue(nil), r.clues...)
}

func roomPhase(r *Room) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func roomRound(r *Room) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

func playerByName(r *Room, name string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerByNameLocked(name)
}

// forceRoles overwrites the random assignment with a scripted one
// (different_word mode, Animals Lion/Tiger) so tests can steer outcomes.
func forceRoles(r *Room, imposters ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actualCategory = "Animals"
	r.actualWord = "Lion"
	r.imposterWord = "Tiger"
	r.hint = "Big cat"

	set := make(map[string]bool, len(imposters))
	for _, name := range imposters {
		set[name] = true
	}

	for _, p := range r.players {
		if set[p.Name] {
			p.Role = roleImposter
			p.Word = strPtr(r.imposterWord)
		} else {
			p.Role = rolePlayer
			p.Word = strPtr(r.actualWord)
		}
	}
}

// revealAll confirms every player's reveal and waits for the chat phase.
func revealAll(t *testing.T, rm *RoomManager, room *Room, clients map[string]*Client) {
	t.Helper()

	for _, c := range clients {
		require.Nil(t, rm.revealWord(c))
	}

	require.Eventually(t, func() bool {
		return roomPhase(room) == phaseChat
	}, time.Second, 2*time.Millisecond)
}

// submitAllClues plays out one full clue round in turn order and waits
// for the voting phase.
func submitAllClues(t *testing.T, rm *RoomManager, room *Room, clients map[string]*Client) {
	t.Helper()

	for {
		room.mu.Lock()
		if room.phase != phaseChat {
			room.mu.Unlock()
			break
		}
		current := room.players[room.turnIndex]
		done := room.hasClueThisRoundLocked(current.ID)
		room.mu.Unlock()

		if done {
			break
		}

		require.Nil(t, rm.submitClue(clients[current.Name], "clue from "+current.Name))
	}

	require.Eventually(t, func() bool {
		return roomPhase(room) == phaseVoting
	}, time.Second, 2*time.Millisecond)
}

// drainClient empties a client's send buffer and returns everything
// queued so far.
func drainClient(c *Client) []any {
	var out []any
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func messagesOf[T any](msgs []any) []T {
	var out []T
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
