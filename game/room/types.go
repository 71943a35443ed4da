package room

import "github.com/wricardo/partyroom/game/protocol"

// Phase is the coarse lifecycle state of a room
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// Game types a host may request when starting
const (
	GameTypeQuiz = "quiz"
	GameTypeRPS  = "rps"

	DefaultGameType = GameTypeQuiz
)

// IsGameType reports whether name is a game type a room can be started with
func IsGameType(name string) bool {
	return name == GameTypeQuiz || name == GameTypeRPS
}

// Snapshot is a deep copy of a room's state at one point in time
type Snapshot struct {
	Players  []protocol.Player `json:"players"`
	HostID   string            `json:"hostId,omitempty"`
	Answers  map[string]string `json:"answers"`
	Phase    Phase             `json:"phase"`
	GameType string            `json:"gameType,omitempty"`
}

// Result is the outcome of applying one client message
type Result struct {
	// Broadcasts are the messages to fan out, in order
	Broadcasts []protocol.ServerMessage

	// Dirty is set when players or host changed and should be persisted
	Dirty bool
}
