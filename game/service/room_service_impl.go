package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/wricardo/partyroom/game/coordinator"
)

// roomServiceImpl implements RoomService over the room manager
type roomServiceImpl struct {
	rooms     RoomManager
	publicURL string
}

// NewRoomService creates a room service. publicURL is the base URL join
// links are built from; it may be empty.
func NewRoomService(rooms RoomManager, publicURL string) RoomService {
	return &roomServiceImpl{
		rooms:     rooms,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// ListRooms returns resident rooms ordered and limited by opts
func (s *roomServiceImpl) ListRooms(ctx context.Context, opts ListOptions) (*RoomList, error) {
	infos, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	if opts.Sort == "" {
		opts.Sort = SortByID
	}
	if opts.Order == "" {
		opts.Order = "asc"
	}

	rooms := make([]*RoomInfo, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, s.toRoomInfo(info))
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if opts.Order == "desc" {
			return roomLess(opts.Sort, rooms[j], rooms[i])
		}
		return roomLess(opts.Sort, rooms[i], rooms[j])
	})

	total := len(rooms)
	if opts.Limit > 0 && opts.Limit < len(rooms) {
		rooms = rooms[:opts.Limit]
	}

	return &RoomList{
		Count: len(rooms),
		Total: total,
		Rooms: rooms,
		Sort:  opts.Sort,
		Order: opts.Order,
	}, nil
}

// GetRoom returns one resident room
func (s *roomServiceImpl) GetRoom(ctx context.Context, roomID string) (*RoomInfo, error) {
	info, err := s.rooms.Snapshot(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	return s.toRoomInfo(info), nil
}

// DeleteRoom disconnects everyone in the room and forgets its durable state
func (s *roomServiceImpl) DeleteRoom(ctx context.Context, roomID string) error {
	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("room %s: %w", roomID, err)
	}
	return nil
}

// JoinURL builds <publicURL>/room/<roomID>
func (s *roomServiceImpl) JoinURL(roomID string) (string, error) {
	id, err := coordinator.NormalizeRoomID(roomID)
	if err != nil {
		return "", err
	}
	if s.publicURL == "" {
		return "", fmt.Errorf("public URL is not configured")
	}
	return s.publicURL + "/room/" + url.PathEscape(id), nil
}

func (s *roomServiceImpl) toRoomInfo(info coordinator.RoomInfo) *RoomInfo {
	room := &RoomInfo{
		ID:       info.ID,
		Sessions:   info.Sessions,
		SessionIDs: info.SessionIDs,
		Players:    info.Players,
		Phase:      string(info.Phase),
		GameType:   info.GameType,
		Answers:    info.Answers,
	}
	if info.HostID != "" {
		hostID := info.HostID
		room.HostID = &hostID
	}
	if joinURL, err := s.JoinURL(info.ID); err == nil {
		room.JoinURL = joinURL
	}
	return room
}

func roomLess(sortBy string, a, b *RoomInfo) bool {
	switch sortBy {
	case SortBySessions:
		if a.Sessions != b.Sessions {
			return a.Sessions < b.Sessions
		}
	case SortByPlayers:
		if len(a.Players) != len(b.Players) {
			return len(a.Players) < len(b.Players)
		}
	}
	return a.ID < b.ID
}
