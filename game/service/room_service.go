package service

import (
	"context"

	"github.com/wricardo/partyroom/game/coordinator"
)

// RoomService defines the room operations exposed over HTTP and MCP
type RoomService interface {
	ListRooms(ctx context.Context, opts ListOptions) (*RoomList, error)
	GetRoom(ctx context.Context, roomID string) (*RoomInfo, error)
	DeleteRoom(ctx context.Context, roomID string) error

	// JoinURL is the page participants open to join roomID
	JoinURL(roomID string) (string, error)
}

// RoomManager is the part of the coordinator the service depends on
type RoomManager interface {
	List(ctx context.Context) ([]coordinator.RoomInfo, error)
	Snapshot(ctx context.Context, roomID string) (coordinator.RoomInfo, error)
	Delete(ctx context.Context, roomID string) error
}
