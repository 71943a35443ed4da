package service

import (
	"github.com/wricardo/partyroom/game/protocol"
)

// RoomInfo describes a resident room
type RoomInfo struct {
	ID       string            `json:"id"`
	Sessions   int               `json:"sessions"`
	SessionIDs []string          `json:"sessionIds"`
	Players    []protocol.Player `json:"players"`
	HostID     *string           `json:"hostId"`
	Phase      string            `json:"phase"`
	GameType   string            `json:"gameType,omitempty"`
	Answers    map[string]string `json:"answers"`
	JoinURL    string            `json:"joinUrl,omitempty"`
}

// Sort keys accepted by ListRooms
const (
	SortByID       = "id"
	SortBySessions = "sessions"
	SortByPlayers  = "players"
)

// ListOptions controls ordering and paging of ListRooms
type ListOptions struct {
	Sort  string // "id" (default), "sessions" or "players"
	Order string // "asc" (default) or "desc"
	Limit int    // 0 means no limit
}

// RoomList is the result of ListRooms
type RoomList struct {
	Count int         `json:"count"`
	Total int         `json:"total"`
	Rooms []*RoomInfo `json:"rooms"`
	Sort  string      `json:"sort"`
	Order string      `json:"order"`
}
