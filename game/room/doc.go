// Package room provides the authoritative state of a single party room.
//
// The room package implements:
//   - The player directory (ordered, unique by id)
//   - Sticky first-joiner host election
//   - The lobby → playing → ended phase machine
//   - The answer map for the running round
//
// Core Types:
//
// State owns the {players, hostId, answers, phase} tuple for one room. Apply
// takes a decoded protocol.ClientMessage, mutates the state and returns the
// server messages that must be broadcast to every session of the room.
//
// Transitions:
//
//	join    any phase        upsert player, elect host   player_list (+ host_assigned once)
//	leave   any phase        remove player               player_list
//	start   lobby            phase = playing             game_started
//	answer  lobby, playing   answers[player] = answer    player_answered
//	end     lobby, playing   phase = ended               game_ended
//	info    any phase        nothing                     nothing
//
// Messages outside this table are accepted and ignored.
//
// Concurrency:
//
// State is not safe for concurrent use. The coordinator package serializes
// every call through one goroutine per room.
package room
