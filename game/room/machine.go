package room

import (
	"github.com/wricardo/partyroom/game/protocol"
)

// Apply runs one client message through the transition table
func (s *State) Apply(msg protocol.ClientMessage) Result {
	switch msg.Type {
	case protocol.TypeJoin:
		return s.join(msg.PlayerID, msg.PlayerName)
	case protocol.TypeLeave:
		return s.leave(msg.PlayerID)
	case protocol.TypeStart:
		return s.start(msg.GameType())
	case protocol.TypeAnswer:
		return s.answer(msg.PlayerID, msg.Answer())
	case protocol.TypeEnd:
		return s.end()
	default:
		// info and anything else recognized by the codec is a no-op
		return Result{}
	}
}

func (s *State) join(playerID, name string) Result {
	players := s.directory.Upsert(playerID, name)
	hostID, assigned := s.GetOrSetHost(playerID)

	result := Result{
		Broadcasts: []protocol.ServerMessage{protocol.PlayerList(players)},
		Dirty:      true,
	}
	if assigned {
		result.Broadcasts = append(result.Broadcasts, protocol.HostAssigned(hostID))
	}
	return result
}

// leave keeps the host and the player's answer in place
func (s *State) leave(playerID string) Result {
	present := s.directory.Contains(playerID)
	players := s.directory.Remove(playerID)

	return Result{
		Broadcasts: []protocol.ServerMessage{protocol.PlayerList(players)},
		Dirty:      present,
	}
}

func (s *State) start(requested string) Result {
	if s.phase != PhaseLobby {
		return Result{}
	}

	gameType := s.defaultGameType
	if IsGameType(requested) {
		gameType = requested
	}

	s.phase = PhasePlaying
	s.gameType = gameType

	return Result{
		Broadcasts: []protocol.ServerMessage{protocol.GameStarted(gameType)},
	}
}

// answer does not check that the player is present or that a game is running
func (s *State) answer(playerID, answer string) Result {
	if s.phase == PhaseEnded {
		return Result{}
	}

	s.answers[playerID] = answer

	return Result{
		Broadcasts: []protocol.ServerMessage{protocol.PlayerAnswered(s.directory.List(), s.answers)},
	}
}

func (s *State) end() Result {
	if s.phase == PhaseEnded {
		return Result{}
	}

	s.phase = PhaseEnded

	return Result{
		Broadcasts: []protocol.ServerMessage{protocol.GameEnded(s.directory.List(), s.answers)},
	}
}
