// Package storage provides the durable key-value store that backs room state.
//
// A room keeps two keys: "players", the ordered player list, and "hostId",
// the elected host. Both survive the room actor being torn down, so a room
// that is recreated after idle eviction or a process restart picks up where
// it left off. Phase and answers are never written here.
//
// The storage package implements:
//   - Store, a small JSON-valued key-value interface
//   - FileStore, one JSON file per key under a data directory, written atomically
//   - MemoryStore, an in-process map used by tests and the "memory" backend
//   - LoadRoom and SaveRoom, which read and write a room's durable keys
//
// Usage:
//
//	store, err := storage.NewFileStore("./data")
//	if err != nil {
//	    return err
//	}
//	players, hostID, err := storage.LoadRoom(ctx, store, "abc")
//
// Concurrency:
//
// Both Store implementations are safe for concurrent use. SaveRoom writes the
// players key and then the hostId key; there is no multi-key transaction.
package storage
