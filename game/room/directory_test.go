package room

import (
	"testing"

	"github.com/wricardo/partyroom/game/protocol"
)

func TestDirectory_Upsert(t *testing.T) {
	t.Run("adds a new player to empty room", func(t *testing.T) {
		d := NewDirectory(nil)
		players := d.Upsert("player-123", "Alice")

		if len(players) != 1 {
			t.Fatalf("Expected 1 player, got %d", len(players))
		}
		want := protocol.Player{ID: "player-123", Name: "Alice", Score: 0}
		if players[0] != want {
			t.Errorf("Expected %+v, got %+v", want, players[0])
		}
	})

	t.Run("updates existing player name on reconnect", func(t *testing.T) {
		d := NewDirectory([]protocol.Player{{ID: "p1", Name: "Alice", Score: 10}})
		players := d.Upsert("p1", "Alice2")

		if len(players) != 1 {
			t.Fatalf("Expected 1 player, got %d", len(players))
		}
		want := protocol.Player{ID: "p1", Name: "Alice2", Score: 10}
		if players[0] != want {
			t.Errorf("Expected %+v, got %+v", want, players[0])
		}
	})

	t.Run("adds new player alongside existing ones", func(t *testing.T) {
		d := NewDirectory([]protocol.Player{{ID: "player-123", Name: "Alice"}})
		players := d.Upsert("player-456", "Bob")

		if len(players) != 2 {
			t.Fatalf("Expected 2 players, got %d", len(players))
		}
		if players[0].Name != "Alice" || players[1].Name != "Bob" {
			t.Errorf("Unexpected order: %+v", players)
		}
	})
}

func TestDirectory_DistinctJoinsKeepFirstJoinOrder(t *testing.T) {
	d := NewDirectory(nil)
	ids := []string{"c", "a", "b", "a", "c", "d"}
	for _, id := range ids {
		d.Upsert(id, "name-"+id)
	}

	players := d.List()
	want := []string{"c", "a", "b", "d"}
	if len(players) != len(want) {
		t.Fatalf("Expected %d players, got %d", len(want), len(players))
	}
	for i, id := range want {
		if players[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, players[i].ID)
		}
		if players[i].Score != 0 {
			t.Errorf("Player %s: expected score 0, got %d", id, players[i].Score)
		}
	}
}

func TestDirectory_Remove(t *testing.T) {
	tests := []struct {
		name    string
		remove  string
		wantIDs []string
	}{
		{"removes first", "player-123", []string{"player-456", "player-789"}},
		{"removes middle", "player-456", []string{"player-123", "player-789"}},
		{"removes last", "player-789", []string{"player-123", "player-456"}},
		{"absent id is a no-op", "nobody", []string{"player-123", "player-456", "player-789"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirectory([]protocol.Player{
				{ID: "player-123", Name: "Alice"},
				{ID: "player-456", Name: "Bob"},
				{ID: "player-789", Name: "Carol"},
			})

			players := d.Remove(tt.remove)
			if len(players) != len(tt.wantIDs) {
				t.Fatalf("Expected %d players, got %d", len(tt.wantIDs), len(players))
			}
			for i, id := range tt.wantIDs {
				if players[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, players[i].ID)
				}
			}
		})
	}
}

func TestDirectory_ListIsACopy(t *testing.T) {
	d := NewDirectory(nil)
	d.Upsert("p1", "Alice")

	players := d.List()
	players[0].Name = "Mallory"

	if d.List()[0].Name != "Alice" {
		t.Error("Mutating List() result should not change the directory")
	}
}

func TestNewDirectory_DropsDuplicateIDs(t *testing.T) {
	d := NewDirectory([]protocol.Player{
		{ID: "p1", Name: "Alice"},
		{ID: "p1", Name: "Alice again"},
		{ID: "p2", Name: "Bob"},
	})

	if d.Len() != 2 {
		t.Fatalf("Expected 2 players, got %d", d.Len())
	}
	if d.List()[0].Name != "Alice" {
		t.Errorf("Expected first occurrence to win, got %s", d.List()[0].Name)
	}
}
