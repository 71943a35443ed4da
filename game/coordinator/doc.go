// Package coordinator runs rooms.
//
// Each room is an actor: one goroutine owns the room's state and its session
// registry, and every other goroutine talks to it over channels. Messages from
// one connection are handed over one at a time on an unbuffered channel, so a
// room applies them in the order the connection received them.
//
// The coordinator package implements:
//   - Registry, the set of live sessions in a room and the broadcast hub
//   - Room, the actor that decodes client messages, applies them to the room
//     state, persists durable keys and fans out the resulting messages
//   - Manager, which creates rooms lazily, lists them and retires idle ones
//
// Usage:
//
//	manager := coordinator.NewManager(
//	    coordinator.WithStore(store),
//	    coordinator.WithLogger(log),
//	)
//	defer manager.Shutdown()
//
//	room, sessionID, err := manager.Join(ctx, "abc", transport)
//	if err != nil {
//	    return err
//	}
//	defer room.Disconnect(ctx, transport)
//	err = room.Deliver(ctx, transport, raw)
//
// Concurrency:
//
// Manager methods are safe for concurrent use. A Registry is not; it is only
// touched by its room's goroutine. Transports must not block in Send.
package coordinator
