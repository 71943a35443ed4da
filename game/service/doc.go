// Package service provides the room operations used by the HTTP API and the
// MCP tools.
//
// The service package implements:
//   - Room listing with sorting and limits
//   - Room inspection by id
//   - Room deletion, which disconnects sessions and purges durable state
//   - Join URL construction for QR codes and links
//
// Core Interfaces:
//
// RoomService is the interface transports depend on. RoomManager is the slice
// of coordinator.Manager the implementation needs, so tests can substitute it.
//
// Usage:
//
//	manager := coordinator.NewManager(coordinator.WithStore(store))
//	rooms := service.NewRoomService(manager, "https://party.example.com")
//
//	list, err := rooms.ListRooms(ctx, service.ListOptions{Sort: service.SortByPlayers, Order: "desc"})
package service
