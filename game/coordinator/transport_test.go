package coordinator

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

var errSendFailed = errors.New("send failed")

// fakeTransport records frames sent to it
type fakeTransport struct {
	resumeID string
	failSend bool

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Send(frame []byte) error {
	if f.failSend {
		return errSendFailed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, append([]byte(nil), frame...))
	return nil
}

func (f *fakeTransport) ResumeID() string {
	return f.resumeID
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// messages decodes every frame received so far
func (f *fakeTransport) messages(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(frame, &m); err != nil {
			t.Fatalf("Frame is not JSON: %s", frame)
		}
		out = append(out, m)
	}
	return out
}

// types returns the "type" of every frame, or "error" for error frames
func (f *fakeTransport) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, m := range f.messages(t) {
		if typ, ok := m["type"].(string); ok {
			out = append(out, typ)
			continue
		}
		if _, ok := m["error"]; ok {
			out = append(out, "error")
		}
	}
	return out
}
