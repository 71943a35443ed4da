package protocol

// MessageType identifies an inbound client message
type MessageType string

const (
	TypeJoin   MessageType = "join"
	TypeLeave  MessageType = "leave"
	TypeStart  MessageType = "start"
	TypeEnd    MessageType = "end"
	TypeInfo   MessageType = "info"
	TypeAnswer MessageType = "answer"
)

// MessageTypes lists every client message type the codec accepts
var MessageTypes = []MessageType{TypeJoin, TypeLeave, TypeStart, TypeEnd, TypeInfo, TypeAnswer}

// ServerMessageType identifies an outbound server message
type ServerMessageType string

const (
	TypePlayerList     ServerMessageType = "player_list"
	TypeHostAssigned   ServerMessageType = "host_assigned"
	TypeRoomState      ServerMessageType = "room_state"
	TypeGameStarted    ServerMessageType = "game_started"
	TypePlayerAnswered ServerMessageType = "player_answered"
	TypeGameEnded      ServerMessageType = "game_ended"
)

// Player is a room participant as seen by every client
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ClientMessage is a decoded, validated client frame
type ClientMessage struct {
	PlayerID   string         `json:"playerId"`
	PlayerName string         `json:"playerName"`
	Type       MessageType    `json:"type"`
	Data       map[string]any `json:"data"`
}

// Answer returns data.answer, or "" when absent
func (m ClientMessage) Answer() string {
	answer, _ := m.Data["answer"].(string)
	return answer
}

// GameType returns data.gameType, or "" when absent
func (m ClientMessage) GameType() string {
	gameType, _ := m.Data["gameType"].(string)
	return gameType
}

// ServerMessage is an outbound frame. Build it with the constructors below.
type ServerMessage struct {
	Type ServerMessageType `json:"type"`
	Data any               `json:"data"`
}

// PlayerListData is the payload of player_list
type PlayerListData struct {
	Players []Player `json:"players"`
}

// HostAssignedData is the payload of host_assigned
type HostAssignedData struct {
	HostID string `json:"hostId"`
}

// RoomStateData is the payload of room_state, sent once per new session
type RoomStateData struct {
	Players []Player `json:"players"`
	HostID  *string  `json:"hostId"`
	Phase   string   `json:"phase"`
}

// GameStartedData is the payload of game_started
type GameStartedData struct {
	GameType string `json:"gameType"`
}

// AnswersData is the payload of player_answered and game_ended
type AnswersData struct {
	Players []Player          `json:"players"`
	Answers map[string]string `json:"answers"`
}

// PlayerList builds a player_list message
func PlayerList(players []Player) ServerMessage {
	return ServerMessage{
		Type: TypePlayerList,
		Data: PlayerListData{Players: copyPlayers(players)},
	}
}

// HostAssigned builds a host_assigned message
func HostAssigned(hostID string) ServerMessage {
	return ServerMessage{
		Type: TypeHostAssigned,
		Data: HostAssignedData{HostID: hostID},
	}
}

// RoomState builds the room_state snapshot message. An empty hostID encodes as null.
func RoomState(players []Player, hostID string, phase string) ServerMessage {
	data := RoomStateData{
		Players: copyPlayers(players),
		Phase:   phase,
	}
	if hostID != "" {
		data.HostID = &hostID
	}
	return ServerMessage{Type: TypeRoomState, Data: data}
}

// GameStarted builds a game_started message
func GameStarted(gameType string) ServerMessage {
	return ServerMessage{
		Type: TypeGameStarted,
		Data: GameStartedData{GameType: gameType},
	}
}

// PlayerAnswered builds a player_answered message carrying the full answer map
func PlayerAnswered(players []Player, answers map[string]string) ServerMessage {
	return ServerMessage{
		Type: TypePlayerAnswered,
		Data: AnswersData{Players: copyPlayers(players), Answers: copyAnswers(answers)},
	}
}

// GameEnded builds a game_ended message with the final players and answers
func GameEnded(players []Player, answers map[string]string) ServerMessage {
	return ServerMessage{
		Type: TypeGameEnded,
		Data: AnswersData{Players: copyPlayers(players), Answers: copyAnswers(answers)},
	}
}

// copyPlayers never returns nil so that lists encode as [] rather than null
func copyPlayers(players []Player) []Player {
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

func copyAnswers(answers map[string]string) map[string]string {
	out := make(map[string]string, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}
