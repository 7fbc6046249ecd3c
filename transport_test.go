package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlowClientDroppedMidSession(t *testing.T) {
	rm := newRoomManager(testConfig())
	room, clients := makeRoom(t, rm, "Alice", "Bob", "Carol")

	bob := clients["Bob"]
	for bob.trySend(RoomUpdateMessage{}) {
	}

	room.mu.Lock()
	room.broadcastUpdateLocked()
	_, present := room.clients[bob]
	room.mu.Unlock()

	assert.False(t, present, "overflowed client is dropped from the room")

	// The websocket is still open, so late intents keep arriving; the
	// error ack must be dropped rather than sent on the closed channel.
	ierr := rm.submitClue(bob, "late")
	require.NotNil(t, ierr)
	assert.False(t, bob.trySend(ErrorMessage{Type: "error_message", Message: ierr.message}))
}

func TestCloseSendIdempotent(t *testing.T) {
	c := newTestClient()

	assert.True(t, c.trySend("first"))

	c.closeSend()
	c.closeSend()

	assert.False(t, c.trySend("after close"))
}
