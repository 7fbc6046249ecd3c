// Imposter game state machine.
//
// Players join a room, receive secret word assignments, exchange clues in
// turn order, then vote to eliminate suspected imposters round by round:
//
//	lobby -> reveal -> chat -> voting [-> revote] -> result -> chat | game_over
//
// All mutation of a room happens behind its mutex; timers re-enter via
// guard-then-act callbacks that verify the phase (and, for the turn timer,
// an epoch counter) before touching anything.

package main

import (
	"strings"
	"time"
)

const timeoutClue = "[Timeout - No clue given]"

func strPtr(s string) *string {
	return &s
}

// updateSettings validates and applies fields independently in order
// imposters -> category -> mode; a later field's failure does not roll
// back an earlier field's already-applied change.
func (rm *RoomManager) updateSettings(c *Client, msg ClientMessage) *intentError {
	room := rm.roomFor(c)
	if room == nil {
		return notFoundError("Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player := room.playerByConnLocked(c.id)
	if player == nil || player.ID != room.hostID {
		return authorizationError("Only host can update settings")
	}
	if room.phase != phaseLobby {
		return phaseError("Cannot update settings after game started")
	}

	room.touchLocked()

	if msg.ImpostersCount != nil {
		count := *msg.ImpostersCount
		if count < 1 || count >= len(room.players) {
			return validationError("Invalid imposter count")
		}
		room.impostersCount = count
	}

	if msg.Category != "" {
		if msg.Category != categoryRandom && !validCategory(msg.Category) {
			return validationError("Invalid category")
		}
		room.category = msg.Category
	}

	if msg.Mode != "" {
		if msg.Mode != modeDifferentWord && msg.Mode != modeNoWord {
			return validationError("Invalid game mode")
		}
		room.mode = msg.Mode
	}

	room.broadcastUpdateLocked()

	return nil
}

func (rm *RoomManager) startGame(c *Client) *intentError {
	room := rm.roomFor(c)
	if room == nil {
		return notFoundError("Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player := room.playerByConnLocked(c.id)
	if player == nil || player.ID != room.hostID {
		return authorizationError("Only host can start game")
	}
	if room.phase != phaseLobby {
		return phaseError("Game already started")
	}
	if len(room.players) < minPlayers {
		return stateError("Need at least 3 players to start")
	}
	if room.impostersCount >= len(room.players) {
		return stateError("Too many imposters")
	}

	room.touchLocked()
	room.assignRolesLocked()
	room.phase = phaseReveal
	room.broadcastLocked(PhaseChangedMessage{Type: "phase_changed", Phase: phaseReveal})
	room.broadcastUpdateLocked()

	logf(rm.cfg, "GAMES: Game started in room %s with %d players", room.code, len(room.players))

	return nil
}

func (rm *RoomManager) revealWord(c *Client) *intentError {
	room := rm.roomFor(c)
	if room == nil {
		return notFoundError("Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != phaseReveal {
		return phaseError("Not in reveal phase")
	}

	player := room.playerByConnLocked(c.id)
	if player == nil {
		return notFoundError("Player not found in room")
	}

	room.touchLocked()
	player.HasRevealed = true
	room.broadcastUpdateLocked()

	for _, p := range room.players {
		if !p.HasRevealed {
			return nil
		}
	}

	time.AfterFunc(room.cfg.revealDelay, func() {
		room.mu.Lock()
		defer room.mu.Unlock()

		if room.phase != phaseReveal {
			return
		}
		room.beginChatLocked()
	})

	return nil
}

func (rm *RoomManager) submitClue(c *Client, clue string) *intentError {
	room := rm.roomFor(c)
	if room == nil {
		return notFoundError("Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != phaseChat {
		return phaseError("Not in chat phase")
	}

	player := room.playerByConnLocked(c.id)
	if player == nil || !player.Alive {
		return stateError("You are not alive")
	}
	if room.players[room.turnIndex].ID != player.ID {
		return stateError("Not your turn")
	}
	if room.hasClueThisRoundLocked(player.ID) {
		return stateError("Already submitted clue this round")
	}

	room.touchLocked()
	room.clues = append(room.clues, Clue{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Clue:       strings.TrimSpace(clue),
		Round:      room.round,
	})

	room.broadcastUpdateLocked()
	room.nextTurnLocked()

	return nil
}

func (rm *RoomManager) castVote(c *Client, targetID string) *intentError {
	room := rm.roomFor(c)
	if room == nil {
		return notFoundError("Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != phaseVoting && room.phase != phaseRevote {
		return phaseError("Not in voting phase")
	}

	voter := room.playerByConnLocked(c.id)
	if voter == nil || !voter.Alive {
		return stateError("You are not alive")
	}
	if room.phase == phaseRevote && room.isTiedLocked(voter.ID) {
		return stateError("Tied players cannot vote in revote")
	}
	if targetID == voter.ID {
		return validationError("Cannot vote for yourself")
	}

	target := room.playerByIDLocked(targetID)
	if target == nil || !target.Alive {
		return stateError("Invalid vote target")
	}
	if room.phase == phaseRevote && !room.isTiedLocked(targetID) {
		return stateError("Can only vote for tied players")
	}
	if _, voted := room.votes[voter.ID]; voted {
		return stateError("Already voted")
	}

	room.touchLocked()
	room.votes[voter.ID] = targetID

	eligible := room.eligibleVotersLocked()
	room.broadcastLocked(VoteCastMessage{
		Type:           "vote_cast",
		VoterID:        voter.ID,
		VotesSubmitted: len(room.votes),
		TotalAlive:     len(eligible),
	})

	if len(room.votes) == len(eligible) {
		room.tallyVotesLocked()
	}

	return nil
}

func (rm *RoomManager) restartGame(c *Client) *intentError {
	room := rm.roomFor(c)
	if room == nil {
		return notFoundError("Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player := room.playerByConnLocked(c.id)
	if player == nil || player.ID != room.hostID {
		return authorizationError("Only host can restart game")
	}
	if room.phase != phaseGameOver {
		return phaseError("Can only restart after game over")
	}

	room.touchLocked()

	for _, p := range room.players {
		p.Alive = true
		p.HasRevealed = false
		p.Role = ""
		p.Word = nil
	}

	room.round = 1
	room.votes = make(map[string]string)
	room.turnIndex = 0
	room.clues = nil
	room.tiedPlayers = nil
	room.isRevote = false
	room.gameOverData = nil

	room.assignRolesLocked()
	room.phase = phaseReveal
	room.broadcastLocked(PhaseChangedMessage{Type: "phase_changed", Phase: phaseReveal})
	room.broadcastUpdateLocked()

	logf(rm.cfg, "GAMES: Game restarted in room %s", room.code)

	return nil
}

// assignRolesLocked picks the round's word entry and secretly deals
// roles. The shuffle only selects who the imposters are; the players
// slice (and with it turn order) is left untouched.
func (r *Room) assignRolesLocked() {
	category, entry := pickWord(r.category)
	r.actualWord = entry.Word
	r.imposterWord = entry.Decoy
	r.hint = entry.Hint
	r.actualCategory = category

	shuffled := make([]*Player, len(r.players))
	copy(shuffled, r.players)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	imposters := make(map[string]bool, r.impostersCount)
	for _, p := range shuffled[:r.impostersCount] {
		imposters[p.ID] = true
	}

	for _, p := range r.players {
		if imposters[p.ID] {
			p.Role = roleImposter
			switch r.mode {
			case modeDifferentWord:
				p.Word = strPtr(r.imposterWord)
			case modeNoWord:
				p.Word = nil
			}
		} else {
			p.Role = rolePlayer
			p.Word = strPtr(r.actualWord)
		}

		r.sendRoleLocked(p)
	}
}

// sendRoleLocked delivers a player's private assignment. Imposters
// additionally learn the category and a hint, but never the real word.
func (r *Room) sendRoleLocked(p *Player) {
	msg := RoleAssignedMessage{
		Type: "role_assigned",
		Role: p.Role,
		Word: p.Word,
		Mode: r.mode,
	}
	if p.Role == roleImposter {
		msg.Category = strPtr(r.actualCategory)
		msg.Hint = strPtr(r.hint)
	}

	r.sendToPlayerLocked(p, msg)
}

// beginChatLocked enters the chat phase at the first alive player and
// arms the turn timer.
func (r *Room) beginChatLocked() {
	r.phase = phaseChat
	r.turnIndex = 0
	for attempts := 0; !r.players[r.turnIndex].Alive && attempts < len(r.players); attempts++ {
		r.turnIndex = (r.turnIndex + 1) % len(r.players)
	}

	r.broadcastLocked(PhaseChangedMessage{Type: "phase_changed", Phase: phaseChat})
	r.broadcastLocked(TurnChangedMessage{
		Type:          "turn_changed",
		TurnIndex:     r.turnIndex,
		CurrentPlayer: r.publicPlayerLocked(r.players[r.turnIndex]),
	})
	r.broadcastUpdateLocked()
	r.startTurnTimerLocked()
}

func (r *Room) hasClueThisRoundLocked(playerID string) bool {
	for _, c := range r.clues {
		if c.PlayerID == playerID && c.Round == r.round {
			return true
		}
	}
	return false
}

// nextTurnLocked advances the turn to the next alive player, or, once
// every alive player has a clue this round, schedules the transition to
// voting after the configured delay.
func (r *Room) nextTurnLocked() {
	r.stopTurnTimerLocked()

	for attempts := 0; attempts < len(r.players); attempts++ {
		r.turnIndex = (r.turnIndex + 1) % len(r.players)
		if r.players[r.turnIndex].Alive {
			break
		}
	}

	allSpoken := true
	for _, p := range r.alivePlayersLocked() {
		if !r.hasClueThisRoundLocked(p.ID) {
			allSpoken = false
			break
		}
	}

	if allSpoken {
		time.AfterFunc(r.cfg.voteDelay, func() {
			r.mu.Lock()
			defer r.mu.Unlock()

			if r.phase != phaseChat {
				return
			}

			r.phase = phaseVoting
			r.votes = make(map[string]string)
			r.stopTurnTimerLocked()
			r.broadcastLocked(PhaseChangedMessage{Type: "phase_changed", Phase: phaseVoting})
			r.broadcastUpdateLocked()
		})

		return
	}

	r.broadcastLocked(TurnChangedMessage{
		Type:          "turn_changed",
		TurnIndex:     r.turnIndex,
		CurrentPlayer: r.publicPlayerLocked(r.players[r.turnIndex]),
	})
	r.broadcastUpdateLocked()
	r.startTurnTimerLocked()
}

// startTurnTimerLocked arms the hard-fallback turn timer. On expiry a
// placeholder clue is fabricated for the stalled player so a silent
// client cannot block the game.
func (r *Room) startTurnTimerLocked() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
	}

	r.turnEpoch++
	epoch := r.turnEpoch

	r.turnTimer = time.AfterFunc(r.cfg.turnTimeout, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.phase != phaseChat || r.turnEpoch != epoch {
			return
		}

		current := r.players[r.turnIndex]
		if current.Alive && !r.hasClueThisRoundLocked(current.ID) {
			r.clues = append(r.clues, Clue{
				PlayerID:   current.ID,
				PlayerName: current.Name,
				Clue:       timeoutClue,
				Round:      r.round,
			})
			r.broadcastUpdateLocked()
		}

		r.nextTurnLocked()
	})
}

func (r *Room) stopTurnTimerLocked() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.turnEpoch++
}

func (r *Room) isTiedLocked(playerID string) bool {
	for _, id := range r.tiedPlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// eligibleVotersLocked is all alive players, minus the tied candidates
// while a revote is underway.
func (r *Room) eligibleVotersLocked() []*Player {
	alive := r.alivePlayersLocked()
	if r.phase != phaseRevote {
		return alive
	}

	eligible := alive[:0]
	for _, p := range alive {
		if !r.isTiedLocked(p.ID) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// tallyVotesLocked resolves a completed vote. A unique maximum (or any
// revote outcome) eliminates; a first-pass tie enters a revote among
// the tied candidates instead.
func (r *Room) tallyVotesLocked() {
	voteCounts := make(map[string]int)
	for _, targetID := range r.votes {
		voteCounts[targetID]++
	}

	maxVotes := 0
	for _, n := range voteCounts {
		if n > maxVotes {
			maxVotes = n
		}
	}

	// Collect the max-vote candidates in player order so ties resolve
	// deterministically in tests.
	tied := make([]string, 0, len(voteCounts))
	for _, p := range r.players {
		if voteCounts[p.ID] == maxVotes {
			tied = append(tied, p.ID)
		}
	}

	if r.phase == phaseRevote || len(tied) == 1 {
		wasTiebreaker := len(tied) > 1

		var eliminated *Player
		if wasTiebreaker {
			eliminated = r.playerByIDLocked(tied[randIndex(len(tied))])
		} else {
			eliminated = r.playerByIDLocked(tied[0])
		}

		eliminated.Alive = false
		r.phase = phaseResult

		r.broadcastLocked(PlayerEliminatedMessage{
			Type:          "player_eliminated",
			PlayerID:      eliminated.ID,
			PlayerName:    eliminated.Name,
			Role:          eliminated.Role,
			VoteCounts:    voteCounts,
			WasRevote:     r.isRevote,
			WasTiebreaker: wasTiebreaker,
		})

		r.isRevote = false
		r.tiedPlayers = nil
		r.broadcastUpdateLocked()

		time.AfterFunc(r.cfg.resultDelay, func() {
			r.mu.Lock()
			defer r.mu.Unlock()

			if r.phase != phaseResult {
				return
			}
			if r.checkWinLocked() {
				return
			}

			r.round++
			r.votes = make(map[string]string)
			r.beginChatLocked()
		})

		return
	}

	r.phase = phaseRevote
	r.isRevote = true
	r.tiedPlayers = tied
	r.votes = make(map[string]string)

	tiedPlayers := make([]TiedPlayer, 0, len(tied))
	for _, id := range tied {
		p := r.playerByIDLocked(id)
		tiedPlayers = append(tiedPlayers, TiedPlayer{ID: p.ID, Name: p.Name})
	}

	r.broadcastLocked(RevoteStartedMessage{
		Type:        "revote_started",
		TiedPlayers: tiedPlayers,
		VoteCounts:  voteCounts,
	})
	r.broadcastLocked(PhaseChangedMessage{Type: "phase_changed", Phase: phaseRevote})
	r.broadcastUpdateLocked()
}

// checkWinLocked evaluates the win condition after an elimination.
// Zero alive imposters means the players win; imposters reaching
// parity with the remaining players means the imposters win.
func (r *Room) checkWinLocked() bool {
	aliveImposters := 0
	aliveNormal := 0
	for _, p := range r.alivePlayersLocked() {
		if p.Role == roleImposter {
			aliveImposters++
		} else {
			aliveNormal++
		}
	}

	var winner string
	switch {
	case aliveImposters == 0:
		winner = "players"
	case aliveImposters >= aliveNormal:
		winner = "imposters"
	default:
		return false
	}

	players := make([]GameOverPlayer, 0, len(r.players))
	for _, p := range r.players {
		var word *string
		switch {
		case p.Role == roleImposter && r.mode == modeDifferentWord:
			word = strPtr(r.imposterWord)
		case p.Role == rolePlayer:
			word = strPtr(r.actualWord)
		}
		players = append(players, GameOverPlayer{
			ID:   p.ID,
			Name: p.Name,
			Role: p.Role,
			Word: word,
		})
	}

	r.phase = phaseGameOver
	r.stopTurnTimerLocked()
	r.gameOverData = &GameOverMessage{
		Type:         "game_over",
		Winner:       winner,
		ActualWord:   r.actualWord,
		ImposterWord: r.imposterWord,
		Players:      players,
	}

	r.broadcastLocked(*r.gameOverData)
	r.broadcastUpdateLocked()

	return true
}
