package main

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	rm := newRoomManager(testConfig())

	host := newTestClient()
	room, ierr := rm.createRoom(host, "Alice")
	require.Nil(t, ierr)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{6}$`), room.code)
	assert.Equal(t, phaseLobby, roomPhase(room))
	assert.Equal(t, 1, room.impostersCount)
	assert.Equal(t, categoryRandom, room.category)
	assert.Equal(t, modeDifferentWord, room.mode)
	assert.Equal(t, 1, room.round)

	alice := playerByName(room, "Alice")
	require.NotNil(t, alice)
	assert.Equal(t, alice.ID, room.hostID)
	assert.True(t, alice.Alive)
	assert.Equal(t, host.id, alice.Conn)

	// The connection is bound to the room for subsequent intents.
	assert.Same(t, room, rm.roomFor(host))
	assert.Same(t, room, rm.lookupRoom(room.code))

	created := messagesOf[RoomCreatedMessage](drainClient(host))
	require.Len(t, created, 1)
	assert.Equal(t, room.code, created[0].RoomCode)
}

func TestCreateRoomRequiresName(t *testing.T) {
	rm := newRoomManager(testConfig())

	_, ierr := rm.createRoom(newTestClient(), "   ")
	require.NotNil(t, ierr)
	assert.Equal(t, errValidation, ierr.kind)
}

func TestJoinRoom(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, _ := makeRoom(t, rm, "Alice")

	bob := newTestClient()
	require.Nil(t, rm.joinRoom(bob, room.code, " Bob "))

	require.Len(t, room.players, 2)
	assert.Equal(t, "Bob", room.players[1].Name)
	assert.Same(t, room, rm.roomFor(bob))

	joined := messagesOf[RoomJoinedMessage](drainClient(bob))
	require.Len(t, joined, 1)
	assert.Equal(t, room.code, joined[0].RoomCode)
}

func TestJoinRoomLowercaseCode(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, _ := makeRoom(t, rm, "Alice")

	bob := newTestClient()
	require.Nil(t, rm.joinRoom(bob, strings.ToLower(room.code), "Bob"))
	assert.Len(t, room.players, 2)
}

func TestJoinRoomErrors(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, clients := makeRoom(t, rm, "Alice", "Bob", "Carol")

	ierr := rm.joinRoom(newTestClient(), "ZZZZZZ", "Dave")
	require.NotNil(t, ierr)
	assert.Equal(t, errNotFound, ierr.kind)

	ierr = rm.joinRoom(newTestClient(), room.code, "alice")
	require.NotNil(t, ierr)
	assert.Equal(t, errState, ierr.kind)
	assert.Equal(t, "Name already taken in this room", ierr.message)

	ierr = rm.joinRoom(newTestClient(), room.code, "")
	require.NotNil(t, ierr)
	assert.Equal(t, errValidation, ierr.kind)

	require.Nil(t, rm.startGame(clients["Alice"]))

	ierr = rm.joinRoom(newTestClient(), room.code, "Dave")
	require.NotNil(t, ierr)
	assert.Equal(t, errPhase, ierr.kind)
}

func TestDisconnectKeepsPlayer(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, clients := makeRoom(t, rm, "Alice", "Bob")

	rm.disconnect(clients["Bob"])

	// The player entry stays so a reconnect can reclaim it; only the
	// connection binding is gone.
	assert.NotNil(t, playerByName(room, "Bob"))
	assert.Nil(t, rm.roomFor(clients["Bob"]))
}

func TestReconnect(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, clients := makeRoom(t, rm, "Alice", "Bob", "Carol")

	require.Nil(t, rm.startGame(clients["Alice"]))
	forceRoles(room, "Bob")

	bob := playerByName(room, "Bob")
	oldConn := bob.Conn
	slot := 1

	rm.disconnect(clients["Bob"])

	fresh := newTestClient()
	require.Nil(t, rm.reconnect(fresh, room.code, "  bob "))

	assert.Equal(t, fresh.id, bob.Conn)
	assert.NotEqual(t, oldConn, bob.Conn)
	assert.Same(t, room, rm.roomFor(fresh))

	// Same player object in the same turn slot, assignment intact.
	assert.Same(t, bob, room.players[slot])
	assert.Equal(t, roleImposter, bob.Role)
	require.NotNil(t, bob.Word)
	assert.Equal(t, "Tiger", *bob.Word)

	msgs := drainClient(fresh)

	roles := messagesOf[RoleAssignedMessage](msgs)
	require.Len(t, roles, 1)
	assert.Equal(t, roleImposter, roles[0].Role)
	require.NotNil(t, roles[0].Word)
	assert.Equal(t, "Tiger", *roles[0].Word)
	require.NotNil(t, roles[0].Hint)
	assert.Equal(t, "Big cat", *roles[0].Hint)

	success := messagesOf[ReconnectSuccessMessage](msgs)
	require.Len(t, success, 1)
	assert.Equal(t, room.code, success[0].RoomCode)
}

func TestDisconnectAfterReconnect(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, clients := makeRoom(t, rm, "Alice", "Bob")

	stale := clients["Bob"]
	fresh := newTestClient()
	require.Nil(t, rm.reconnect(fresh, room.code, "Bob"))

	// The stale socket's readPump exits after the rebind and runs its
	// deferred disconnect; the already-closed client must be a no-op,
	// however many times it fires.
	rm.disconnect(stale)
	rm.disconnect(stale)

	assert.Same(t, room, rm.roomFor(fresh))
	assert.Equal(t, fresh.id, playerByName(room, "Bob").Conn)
}

func TestDisconnectAfterRoomReaped(t *testing.T) {
	cfg := testConfig()
	cfg.sessionTimeout = 30 * time.Millisecond
	rm := newRoomManager(cfg)

	room, clients := makeRoom(t, rm, "Alice")

	require.Eventually(t, func() bool {
		return rm.lookupRoom(room.code) == nil
	}, time.Second, 5*time.Millisecond)

	// The reaper's closeAll may already have closed the host's channel
	// by the time its readPump exit reaches disconnect.
	rm.disconnect(clients["Alice"])

	assert.Nil(t, rm.roomFor(clients["Alice"]))
	assert.False(t, clients["Alice"].trySend(ErrorMessage{}))
}

func TestReconnectErrors(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, _ := makeRoom(t, rm, "Alice", "Bob")

	ierr := rm.reconnect(newTestClient(), "", "")
	require.NotNil(t, ierr)
	assert.Equal(t, errValidation, ierr.kind)

	ierr = rm.reconnect(newTestClient(), "ZZZZZZ", "Bob")
	require.NotNil(t, ierr)
	assert.Equal(t, errNotFound, ierr.kind)
	assert.Equal(t, "Room no longer exists", ierr.message)

	ierr = rm.reconnect(newTestClient(), room.code, "Dave")
	require.NotNil(t, ierr)
	assert.Equal(t, errNotFound, ierr.kind)
	assert.Equal(t, "Player not found in room", ierr.message)
}

func TestReconnectHostKeepsHost(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, clients := makeRoom(t, rm, "Alice", "Bob", "Carol")

	alice := playerByName(room, "Alice")
	rm.disconnect(clients["Alice"])

	fresh := newTestClient()
	require.Nil(t, rm.reconnect(fresh, room.code, "Alice"))

	// Host status keys on the stable player id, so it survives the
	// connection swap.
	assert.Equal(t, alice.ID, room.hostID)
	require.Nil(t, rm.startGame(fresh))
	assert.Equal(t, phaseReveal, roomPhase(room))
}

func TestReconnectAfterGameOver(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, clients := makeRoom(t, rm, "Alice", "Bob", "Carol")

	require.Nil(t, rm.startGame(clients["Alice"]))
	forceRoles(room, "Bob")

	room.mu.Lock()
	bob := room.playerByNameLocked("Bob")
	bob.Alive = false
	room.phase = phaseResult
	room.checkWinLocked()
	room.mu.Unlock()

	require.Equal(t, phaseGameOver, roomPhase(room))

	rm.disconnect(clients["Carol"])

	fresh := newTestClient()
	require.Nil(t, rm.reconnect(fresh, room.code, "Carol"))

	over := messagesOf[GameOverMessage](drainClient(fresh))
	require.Len(t, over, 1)
	assert.Equal(t, "players", over[0].Winner)
	assert.Equal(t, "Lion", over[0].ActualWord)
}

func TestReaperRemovesIdleRooms(t *testing.T) {
	cfg := testConfig()
	cfg.sessionTimeout = 30 * time.Millisecond
	rm := newRoomManager(cfg)

	room, _ := makeRoom(t, rm, "Alice")

	require.Eventually(t, func() bool {
		return rm.lookupRoom(room.code) == nil
	}, time.Second, 5*time.Millisecond)
}
