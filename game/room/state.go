package room

import (
	"github.com/wricardo/partyroom/game/protocol"
)

// State is the authoritative state of one room
type State struct {
	directory       *Directory
	hostID          string
	answers         map[string]string
	phase           Phase
	gameType        string
	defaultGameType string
}

// Option configures a State
type Option func(*State)

// WithDefaultGameType sets the game type used when start does not name a valid one
func WithDefaultGameType(gameType string) Option {
	return func(s *State) {
		if IsGameType(gameType) {
			s.defaultGameType = gameType
		}
	}
}

// WithPlayers seeds the directory, typically from durable storage
func WithPlayers(players []protocol.Player) Option {
	return func(s *State) {
		s.directory = NewDirectory(players)
	}
}

// WithHost seeds the host id, typically from durable storage
func WithHost(hostID string) Option {
	return func(s *State) {
		s.hostID = hostID
	}
}

// NewState creates a lobby-phase room state
func NewState(opts ...Option) *State {
	s := &State{
		directory:       NewDirectory(nil),
		answers:         make(map[string]string),
		phase:           PhaseLobby,
		defaultGameType: DefaultGameType,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Players returns the ordered player list
func (s *State) Players() []protocol.Player {
	return s.directory.List()
}

// PlayerCount returns the number of players in the room
func (s *State) PlayerCount() int {
	return s.directory.Len()
}

// Phase returns the current phase
func (s *State) Phase() Phase {
	return s.phase
}

// Answers returns a copy of the answer map
func (s *State) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Snapshot returns a deep copy of the state
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Players:  s.Players(),
		HostID:   s.hostID,
		Answers:  s.Answers(),
		Phase:    s.phase,
		GameType: s.gameType,
	}
}

// RoomStateMessage builds the room_state message sent to a newly registered session
func (s *State) RoomStateMessage() protocol.ServerMessage {
	return protocol.RoomState(s.directory.List(), s.hostID, string(s.phase))
}
