package coordinator

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Transport is one client connection as seen by a room
type Transport interface {
	// Send queues a frame for the client. It must not block.
	Send(frame []byte) error

	// ResumeID is the session id the client asked to keep, or ""
	ResumeID() string

	Close() error
}

type registration struct {
	transport Transport
	sessionID string
}

// Registry tracks the sessions of one room in registration order
type Registry struct {
	sessions []registration
	log      logrus.FieldLogger
}

// NewRegistry creates an empty registry
func NewRegistry(log logrus.FieldLogger) *Registry {
	return &Registry{log: log}
}

// Register adds t and returns its session id. The transport's resume id is
// kept if no other session in the room uses it, otherwise a new one is
// generated. Registering a transport twice returns the existing id.
func (r *Registry) Register(t Transport) string {
	if i := r.index(t); i >= 0 {
		return r.sessions[i].sessionID
	}

	sessionID := t.ResumeID()
	if sessionID == "" || r.hasSessionID(sessionID) {
		sessionID = uuid.NewString()
	}

	r.sessions = append(r.sessions, registration{transport: t, sessionID: sessionID})
	return sessionID
}

// Unregister removes t. It reports whether t was registered.
func (r *Registry) Unregister(t Transport) bool {
	i := r.index(t)
	if i < 0 {
		return false
	}
	r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
	return true
}

// Has reports whether t is registered
func (r *Registry) Has(t Transport) bool {
	return r.index(t) >= 0
}

// SessionID returns the session id of t
func (r *Registry) SessionID(t Transport) (string, bool) {
	if i := r.index(t); i >= 0 {
		return r.sessions[i].sessionID, true
	}
	return "", false
}

// Send delivers a frame to exactly one transport
func (r *Registry) Send(t Transport, frame []byte) error {
	err := t.Send(frame)
	if err != nil {
		sessionID, _ := r.SessionID(t)
		r.log.WithError(err).WithField("session", sessionID).Warn("Failed to send frame")
	}
	return err
}

// Broadcast sends frame to every registered transport and returns how many
// sends failed. A failing transport does not stop delivery to the others.
func (r *Registry) Broadcast(frame []byte) int {
	return r.BroadcastExcept(nil, frame)
}

// BroadcastExcept sends frame to every registered transport other than except
func (r *Registry) BroadcastExcept(except Transport, frame []byte) int {
	failed := 0
	for _, s := range r.list() {
		if except != nil && s.transport == except {
			continue
		}
		if err := s.transport.Send(frame); err != nil {
			failed++
			r.log.WithError(err).WithField("session", s.sessionID).Warn("Failed to broadcast frame")
		}
	}
	return failed
}

// Transports returns the registered transports in registration order
func (r *Registry) Transports() []Transport {
	out := make([]Transport, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.transport)
	}
	return out
}

// SessionIDs returns the session ids in registration order
func (r *Registry) SessionIDs() []string {
	out := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.sessionID)
	}
	return out
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	return len(r.sessions)
}

// list copies the registrations so a send that unregisters cannot skip entries
func (r *Registry) list() []registration {
	out := make([]registration, len(r.sessions))
	copy(out, r.sessions)
	return out
}

func (r *Registry) index(t Transport) int {
	for i, s := range r.sessions {
		if s.transport == t {
			return i
		}
	}
	return -1
}

func (r *Registry) hasSessionID(sessionID string) bool {
	for _, s := range r.sessions {
		if s.sessionID == sessionID {
			return true
		}
	}
	return false
}
