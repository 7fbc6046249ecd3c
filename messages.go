package main

// Messages coming from clients
type ClientMessage struct {
	Type           string `json:"type"`                     // intent name, see dispatch in transport.go
	PlayerName     string `json:"playerName,omitempty"`     // create_room / join_room / reconnect_to_room
	RoomCode       string `json:"roomCode,omitempty"`       // join_room / reconnect_to_room
	ImpostersCount *int   `json:"impostersCount,omitempty"` // update_settings
	Category       string `json:"category,omitempty"`       // update_settings
	Mode           string `json:"mode,omitempty"`           // update_settings
	Clue           string `json:"clue,omitempty"`           // submit_clue
	TargetID       string `json:"targetId,omitempty"`       // cast_vote
}

// RoomCreatedMessage acknowledges room creation to the host only.
type RoomCreatedMessage struct {
	Type     string `json:"type"` // "room_created"
	RoomCode string `json:"roomCode"`
}

// RoomJoinedMessage acknowledges a successful join to the joining client.
type RoomJoinedMessage struct {
	Type     string `json:"type"` // "room_joined"
	RoomCode string `json:"roomCode"`
}

type ReconnectSuccessMessage struct {
	Type     string `json:"type"` // "reconnect_success"
	RoomCode string `json:"roomCode"`
}

type ReconnectFailedMessage struct {
	Type    string `json:"type"` // "reconnect_failed"
	Message string `json:"message"`
}

// PublicPlayer is the per-player slice of the public snapshot. Role and
// word are deliberately absent.
type PublicPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Alive       bool   `json:"alive"`
	HasRevealed bool   `json:"hasRevealed"`
}

// RoomUpdateMessage is the full public snapshot broadcast after every
// state change.
type RoomUpdateMessage struct {
	Type           string         `json:"type"` // "room_update"
	RoomCode       string         `json:"roomCode"`
	HostID         string         `json:"hostId"`
	Players        []PublicPlayer `json:"players"`
	Phase          string         `json:"phase"`
	Category       string         `json:"category"`
	Mode           string         `json:"mode"`
	ImpostersCount int            `json:"impostersCount"`
	TurnIndex      int            `json:"turnIndex"`
	Round          int            `json:"round"`
	Clues          []Clue         `json:"clues"`
	TiedPlayers    []string       `json:"tiedPlayers"`
	IsRevote       bool           `json:"isRevote"`
}

// RoleAssignedMessage is sent privately to each player. Imposters learn
// the category and hint but never the real word; everyone else only
// their word.
type RoleAssignedMessage struct {
	Type     string  `json:"type"` // "role_assigned"
	Role     string  `json:"role"`
	Word     *string `json:"word"`
	Category *string `json:"category"`
	Hint     *string `json:"hint"`
	Mode     string  `json:"mode"`
}

type PhaseChangedMessage struct {
	Type  string `json:"type"` // "phase_changed"
	Phase string `json:"phase"`
}

type TurnChangedMessage struct {
	Type          string       `json:"type"` // "turn_changed"
	TurnIndex     int          `json:"turnIndex"`
	CurrentPlayer PublicPlayer `json:"currentPlayer"`
}

// VoteCastMessage announces vote progress as a running count only; the
// per-candidate breakdown stays hidden until the tally.
type VoteCastMessage struct {
	Type           string `json:"type"` // "vote_cast"
	VoterID        string `json:"voterId"`
	VotesSubmitted int    `json:"votesSubmitted"`
	TotalAlive     int    `json:"totalAlive"`
}

type TiedPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RevoteStartedMessage struct {
	Type        string         `json:"type"` // "revote_started"
	TiedPlayers []TiedPlayer   `json:"tiedPlayers"`
	VoteCounts  map[string]int `json:"voteCounts"`
}

type PlayerEliminatedMessage struct {
	Type          string         `json:"type"` // "player_eliminated"
	PlayerID      string         `json:"playerId"`
	PlayerName    string         `json:"playerName"`
	Role          string         `json:"role"`
	VoteCounts    map[string]int `json:"voteCounts"`
	WasRevote     bool           `json:"wasRevote"`
	WasTiebreaker bool           `json:"wasTiebreaker"`
}

// GameOverPlayer reveals a player's full assignment once the game ends.
type GameOverPlayer struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Role string  `json:"role"`
	Word *string `json:"word"`
}

// GameOverMessage is broadcast at game end and cached on the room so
// reconnecting clients can be shown the result.
type GameOverMessage struct {
	Type         string           `json:"type"` // "game_over"
	Winner       string           `json:"winner"`
	ActualWord   string           `json:"actualWord"`
	ImposterWord string           `json:"imposterWord"`
	Players      []GameOverPlayer `json:"players"`
}

// ErrorMessage reports a rejected intent to the offending client only.
type ErrorMessage struct {
	Type    string `json:"type"` // "error_message"
	Message string `json:"message"`
}
