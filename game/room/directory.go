package room

import "github.com/wricardo/partyroom/game/protocol"

// Directory is the ordered set of players in a room
type Directory struct {
	players []protocol.Player
}

// NewDirectory creates a directory seeded with players, keeping their order
func NewDirectory(players []protocol.Player) *Directory {
	d := &Directory{}
	for _, p := range players {
		if d.index(p.ID) >= 0 {
			continue
		}
		d.players = append(d.players, p)
	}
	return d
}

// Upsert renames an existing player in place or appends a new one with score 0
func (d *Directory) Upsert(playerID, name string) []protocol.Player {
	if i := d.index(playerID); i >= 0 {
		d.players[i].Name = name
		return d.List()
	}

	d.players = append(d.players, protocol.Player{
		ID:    playerID,
		Name:  name,
		Score: 0,
	})
	return d.List()
}

// Remove drops the player with the given id. Removing an absent id is a no-op.
func (d *Directory) Remove(playerID string) []protocol.Player {
	if i := d.index(playerID); i >= 0 {
		d.players = append(d.players[:i], d.players[i+1:]...)
	}
	return d.List()
}

// List returns a copy of the players in join order
func (d *Directory) List() []protocol.Player {
	out := make([]protocol.Player, len(d.players))
	copy(out, d.players)
	return out
}

// Contains reports whether playerID is in the directory
func (d *Directory) Contains(playerID string) bool {
	return d.index(playerID) >= 0
}

// Len returns the number of players
func (d *Directory) Len() int {
	return len(d.players)
}

func (d *Directory) index(playerID string) int {
	for i, p := range d.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}
