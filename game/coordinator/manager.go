package coordinator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/partyroom/game/room"
	"github.com/wricardo/partyroom/game/storage"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomClosed    = errors.New("room is closed")
	ErrInvalidRoomID = errors.New("invalid room ID")
	ErrShutdown      = errors.New("manager is shut down")
)

// joinAttempts bounds how often Join retries a room that closed under it
const joinAttempts = 3

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NormalizeRoomID validates id and returns its canonical lower-case form
func NormalizeRoomID(id string) (string, error) {
	if !roomIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomID, id)
	}
	return strings.ToLower(id), nil
}

// Manager owns the set of resident rooms
type Manager struct {
	rooms           map[string]*Room
	store           storage.Store
	publisher       EventPublisher
	log             logrus.FieldLogger
	defaultGameType string
	closed          bool
	mu              sync.RWMutex
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithStore sets the durable store rooms load from and persist to
func WithStore(store storage.Store) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

// WithPublisher sets where broadcast frames are mirrored
func WithPublisher(publisher EventPublisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

func WithLogger(log logrus.FieldLogger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithDefaultGameType sets the game type used when start does not name one
func WithDefaultGameType(gameType string) ManagerOption {
	return func(m *Manager) {
		m.defaultGameType = gameType
	}
}

// NewManager creates a room manager. Without WithStore rooms are kept in an
// in-memory store.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		rooms:           make(map[string]*Room),
		log:             logrus.StandardLogger(),
		defaultGameType: room.DefaultGameType,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = storage.NewMemoryStore()
	}

	return m
}

// GetOrCreate returns the resident room for id, creating it from the store if needed
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Room, error) {
	id, err := NormalizeRoomID(id)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	r, exists := m.rooms[id]
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return nil, ErrShutdown
	}
	if exists {
		return r, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrShutdown
	}
	if r, exists := m.rooms[id]; exists {
		return r, nil
	}

	// Loaded under the lock so a concurrent Delete cannot be undone by stale data
	players, hostID, err := storage.LoadRoom(ctx, m.store, id)
	if err != nil {
		return nil, err
	}

	state := room.NewState(
		room.WithDefaultGameType(m.defaultGameType),
		room.WithPlayers(players),
		room.WithHost(hostID),
	)
	r = newRoom(id, state, m.store, m.publisher, m.log)
	m.rooms[id] = r

	m.log.WithFields(logrus.Fields{
		"room":    id,
		"players": len(players),
	}).Info("Room created")

	return r, nil
}

// Get returns the resident room for id
func (m *Manager) Get(id string) (*Room, error) {
	id, err := NormalizeRoomID(id)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, exists := m.rooms[id]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Join connects t to the room id, creating the room if needed. A room that is
// retired between lookup and connect is recreated.
func (m *Manager) Join(ctx context.Context, id string, t Transport) (*Room, string, error) {
	for attempt := 0; attempt < joinAttempts; attempt++ {
		r, err := m.GetOrCreate(ctx, id)
		if err != nil {
			return nil, "", err
		}

		sessionID, err := r.Connect(ctx, t)
		if errors.Is(err, ErrRoomClosed) {
			m.forget(r)
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return r, sessionID, nil
	}

	return nil, "", fmt.Errorf("failed to join room %s: %w", id, ErrRoomClosed)
}

// Snapshot returns a view of the resident room id
func (m *Manager) Snapshot(ctx context.Context, id string) (RoomInfo, error) {
	r, err := m.Get(id)
	if err != nil {
		return RoomInfo{}, err
	}

	info, err := r.Snapshot(ctx)
	if errors.Is(err, ErrRoomClosed) {
		return RoomInfo{}, ErrRoomNotFound
	}
	return info, err
}

// List returns a view of every resident room, ordered by id
func (m *Manager) List(ctx context.Context) ([]RoomInfo, error) {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	result := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Snapshot(ctx)
		if errors.Is(err, ErrRoomClosed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CleanupIdle retires rooms that have had no sessions for longer than maxIdle
// and returns how many were retired. The manager lock is held while each room
// decides, so no new connection can reach a room as it retires.
func (m *Manager) CleanupIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	retired := 0
	for id, r := range m.rooms {
		if r.retireIfIdle(cutoff) {
			delete(m.rooms, id)
			retired++
		}
	}

	if retired > 0 {
		m.log.WithField("count", retired).Info("Cleaned up idle rooms")
	}
	return retired
}

// Delete closes the room id if it is resident and removes its durable state.
// It returns ErrRoomNotFound if the room is neither resident nor stored.
func (m *Manager) Delete(ctx context.Context, id string) error {
	id, err := NormalizeRoomID(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, resident := m.rooms[id]
	if resident {
		r.Close()
		delete(m.rooms, id)
	}

	players, hostID, err := storage.LoadRoom(ctx, m.store, id)
	if err != nil {
		return err
	}
	stored := len(players) > 0 || hostID != ""

	if !resident && !stored {
		return ErrRoomNotFound
	}

	for _, key := range []string{storage.PlayersKey, storage.HostIDKey} {
		if err := m.store.Delete(ctx, storage.Key(id, key)); err != nil {
			return fmt.Errorf("failed to delete %s of room %s: %w", key, id, err)
		}
	}

	m.log.WithField("room", id).Info("Room deleted")
	return nil
}

// Count returns the number of resident rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Shutdown stops every room. Later calls to GetOrCreate fail with ErrShutdown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.closed = true
	m.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}

// forget drops r from the map if it is still the resident room for its id
func (m *Manager) forget(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.rooms[r.id]; exists && current == r {
		delete(m.rooms, r.id)
	}
}
