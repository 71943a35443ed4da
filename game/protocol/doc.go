// Package protocol defines the wire format spoken between room clients and
// the room coordinator.
//
// The protocol package implements:
//   - Client message decoding with shape validation
//   - Server message construction and encoding
//   - The player record shared by every payload
//
// Message Protocol:
//
// Every frame is a JSON object. Clients send:
//
//	{"playerId": "p1", "playerName": "Alice", "type": "join", "data": {}}
//
// where type is one of join, leave, start, end, info or answer. The server
// replies with:
//
//	{"type": "player_list", "data": {"players": [...]}}
//
// Decoding never panics. Any frame that does not match the client shape yields
// a *DecodeError, and the coordinator answers the sender with ErrorFrame.
//
// Server messages can only be built through the constructors in this package
// (PlayerList, HostAssigned, RoomState, GameStarted, PlayerAnswered,
// GameEnded), so Encode only ever sees well-formed values.
package protocol
