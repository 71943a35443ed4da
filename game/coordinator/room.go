package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/partyroom/game/protocol"
	"github.com/wricardo/partyroom/game/room"
	"github.com/wricardo/partyroom/game/storage"
)

const storeTimeout = 5 * time.Second

// EventPublisher receives a copy of every frame a room broadcasts
type EventPublisher interface {
	Publish(roomID string, frame []byte) error
}

// RoomInfo is a point-in-time view of a room
type RoomInfo struct {
	ID         string   `json:"id"`
	Sessions   int      `json:"sessions"`
	SessionIDs []string `json:"sessionIds"`
	room.Snapshot
}

type connectRequest struct {
	transport Transport
	reply     chan string
}

type inboundMessage struct {
	transport Transport
	raw       []byte
}

type retireRequest struct {
	cutoff time.Time
	reply  chan bool
}

// Room is the actor that owns one room's state and sessions
type Room struct {
	id        string
	state     *room.State
	registry  *Registry
	store     storage.Store
	publisher EventPublisher
	log       logrus.FieldLogger

	// idleSince is when the last session left, or when the room was created
	idleSince time.Time

	connect    chan connectRequest
	inbound    chan inboundMessage
	disconnect chan Transport
	snapshot   chan chan RoomInfo
	retire     chan retireRequest
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func newRoom(id string, state *room.State, store storage.Store, publisher EventPublisher, log logrus.FieldLogger) *Room {
	log = log.WithField("room", id)

	r := &Room{
		id:         id,
		state:      state,
		registry:   NewRegistry(log),
		store:      store,
		publisher:  publisher,
		log:        log,
		idleSince:  time.Now(),
		connect:    make(chan connectRequest),
		inbound:    make(chan inboundMessage),
		disconnect: make(chan Transport),
		snapshot:   make(chan chan RoomInfo),
		retire:     make(chan retireRequest),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go r.run()
	return r
}

// ID returns the normalized room id
func (r *Room) ID() string {
	return r.id
}

// Connect registers t and sends it the current room_state. It returns the
// session id assigned to t.
func (r *Room) Connect(ctx context.Context, t Transport) (string, error) {
	reply := make(chan string, 1)

	select {
	case r.connect <- connectRequest{transport: t, reply: reply}:
	case <-r.done:
		return "", ErrRoomClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return <-reply, nil
}

// Deliver hands a raw client frame to the room. Frames from one transport are
// applied in the order Deliver is called.
func (r *Room) Deliver(ctx context.Context, t Transport, raw []byte) error {
	select {
	case r.inbound <- inboundMessage{transport: t, raw: raw}:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect unregisters t. The room's state is left untouched.
func (r *Room) Disconnect(ctx context.Context, t Transport) error {
	select {
	case r.disconnect <- t:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a consistent view of the room
func (r *Room) Snapshot(ctx context.Context) (RoomInfo, error) {
	reply := make(chan RoomInfo, 1)

	select {
	case r.snapshot <- reply:
	case <-r.done:
		return RoomInfo{}, ErrRoomClosed
	case <-ctx.Done():
		return RoomInfo{}, ctx.Err()
	}

	return <-reply, nil
}

// Close stops the actor and closes every registered transport
func (r *Room) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	<-r.done
}

// retireIfIdle stops the room if it has no sessions and has been idle since
// before cutoff. It reports whether the room is stopped.
func (r *Room) retireIfIdle(cutoff time.Time) bool {
	reply := make(chan bool, 1)

	select {
	case r.retire <- retireRequest{cutoff: cutoff, reply: reply}:
		return <-reply
	case <-r.done:
		return true
	}
}

func (r *Room) run() {
	defer close(r.done)

	for {
		select {
		case req := <-r.connect:
			req.reply <- r.handleConnect(req.transport)

		case msg := <-r.inbound:
			r.handleMessage(msg.transport, msg.raw)

		case t := <-r.disconnect:
			r.handleDisconnect(t)

		case reply := <-r.snapshot:
			reply <- r.info()

		case req := <-r.retire:
			if r.registry.Len() == 0 && !r.idleSince.After(req.cutoff) {
				r.log.Info("Retiring idle room")
				req.reply <- true
				return
			}
			req.reply <- false

		case <-r.stop:
			r.closeSessions()
			return
		}
	}
}

func (r *Room) handleConnect(t Transport) string {
	sessionID := r.registry.Register(t)
	log := r.log.WithField("session", sessionID)
	log.Debug("Session registered")

	frame, err := protocol.Encode(r.state.RoomStateMessage())
	if err != nil {
		log.WithError(err).Error("Failed to encode room state")
		return sessionID
	}
	_ = r.registry.Send(t, frame)

	return sessionID
}

func (r *Room) handleDisconnect(t Transport) {
	sessionID, _ := r.registry.SessionID(t)
	if !r.registry.Unregister(t) {
		return
	}

	r.log.WithField("session", sessionID).Debug("Session unregistered")
	if r.registry.Len() == 0 {
		r.idleSince = time.Now()
	}
}

func (r *Room) handleMessage(t Transport, raw []byte) {
	if !r.registry.Has(t) {
		r.log.Debug("Dropping message from unregistered transport")
		return
	}
	sessionID, _ := r.registry.SessionID(t)
	log := r.log.WithField("session", sessionID)

	msg, err := protocol.Decode(raw)
	if err != nil {
		log.WithError(err).Warn("Failed to decode client message")
		_ = r.registry.Send(t, protocol.ErrorFrame())
		return
	}

	log = log.WithFields(logrus.Fields{
		"player": msg.PlayerID,
		"type":   msg.Type,
	})
	log.Debug("Applying client message")

	result := r.state.Apply(msg)
	if result.Dirty {
		r.persist()
	}

	for _, out := range result.Broadcasts {
		frame, err := protocol.Encode(out)
		if err != nil {
			log.WithError(err).WithField("message", out.Type).Error("Failed to encode server message")
			continue
		}

		r.registry.Broadcast(frame)
		r.publish(frame)
	}
}

// persist writes the durable keys. Failures are logged and the in-memory
// state stays authoritative.
func (r *Room) persist() {
	if r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := storage.SaveRoom(ctx, r.store, r.id, r.state.Players(), r.state.HostID()); err != nil {
		r.log.WithError(err).Error("Failed to persist room")
		return
	}
	r.log.WithField("players", r.state.PlayerCount()).Debug("Room persisted")
}

func (r *Room) publish(frame []byte) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(r.id, frame); err != nil {
		r.log.WithError(err).Warn("Failed to publish room event")
	}
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		ID:       r.id,
		Sessions:   r.registry.Len(),
		SessionIDs: r.registry.SessionIDs(),
		Snapshot: r.state.Snapshot(),
	}
}

func (r *Room) closeSessions() {
	for _, t := range r.registry.Transports() {
		if err := t.Close(); err != nil {
			r.log.WithError(err).Debug("Failed to close transport")
		}
		r.registry.Unregister(t)
	}
}
