package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/wricardo/partyroom/game/protocol"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrInvalidKey  = errors.New("invalid key")
)

// Durable keys kept per room
const (
	PlayersKey = "players"
	HostIDKey  = "hostId"
)

// Store is a key-value store with JSON-encoded values
type Store interface {
	// Get decodes the value stored at key into v. It returns ErrKeyNotFound
	// if the key has never been written.
	Get(ctx context.Context, key string, v any) error

	// Put replaces the value stored at key
	Put(ctx context.Context, key string, v any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key scopes name to a room
func Key(roomID, name string) string {
	return roomID + "/" + name
}

// LoadRoom reads the players and host of a room. Missing keys yield an empty
// player list and an empty host.
func LoadRoom(ctx context.Context, s Store, roomID string) ([]protocol.Player, string, error) {
	var players []protocol.Player
	if err := s.Get(ctx, Key(roomID, PlayersKey), &players); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, "", fmt.Errorf("failed to load players for room %s: %w", roomID, err)
	}

	var hostID string
	if err := s.Get(ctx, Key(roomID, HostIDKey), &hostID); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, "", fmt.Errorf("failed to load host for room %s: %w", roomID, err)
	}

	if players == nil {
		players = []protocol.Player{}
	}
	return players, hostID, nil
}

// SaveRoom writes the players and host of a room. An empty host is not written.
func SaveRoom(ctx context.Context, s Store, roomID string, players []protocol.Player, hostID string) error {
	if players == nil {
		players = []protocol.Player{}
	}
	if err := s.Put(ctx, Key(roomID, PlayersKey), players); err != nil {
		return fmt.Errorf("failed to save players for room %s: %w", roomID, err)
	}

	if hostID == "" {
		return nil
	}
	if err := s.Put(ctx, Key(roomID, HostIDKey), hostID); err != nil {
		return fmt.Errorf("failed to save host for room %s: %w", roomID, err)
	}
	return nil
}
