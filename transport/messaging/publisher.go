package messaging

// DefaultSubjectPrefix is the subject prefix room events are published under
const DefaultSubjectPrefix = "partyroom.rooms"

// RoomPublisher publishes room broadcasts to per-room subjects
type RoomPublisher struct {
	server *NatsServer
	prefix string
}

// NewRoomPublisher wraps a NatsServer for per-room event delivery
func NewRoomPublisher(server *NatsServer, prefix string) *RoomPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &RoomPublisher{server: server, prefix: prefix}
}

// Subject returns the subject events of roomID are published on
func (p *RoomPublisher) Subject(roomID string) string {
	return p.prefix + "." + roomID
}

// Publish implements coordinator.EventPublisher
func (p *RoomPublisher) Publish(roomID string, frame []byte) error {
	return p.server.Publish(p.Subject(roomID), frame)
}

// Watch calls handler for every event of every room until the returned
// function is called
func (p *RoomPublisher) Watch(handler func(subject string, frame []byte)) (func(), error) {
	return p.server.Subscribe(p.prefix+".>", handler)
}
