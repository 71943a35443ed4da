package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/partyroom/game/coordinator"
	"github.com/wricardo/partyroom/game/protocol"
	"github.com/wricardo/partyroom/game/service"
	"github.com/wricardo/partyroom/transport/websocket"
)

// MockRoomService implements service.RoomService for testing
type MockRoomService struct {
	ListRoomsFunc  func(ctx context.Context, opts service.ListOptions) (*service.RoomList, error)
	GetRoomFunc    func(ctx context.Context, roomID string) (*service.RoomInfo, error)
	DeleteRoomFunc func(ctx context.Context, roomID string) error
	JoinURLFunc    func(roomID string) (string, error)
}

func (m *MockRoomService) ListRooms(ctx context.Context, opts service.ListOptions) (*service.RoomList, error) {
	if m.ListRoomsFunc != nil {
		return m.ListRoomsFunc(ctx, opts)
	}
	return &service.RoomList{Rooms: []*service.RoomInfo{}}, nil
}

func (m *MockRoomService) GetRoom(ctx context.Context, roomID string) (*service.RoomInfo, error) {
	if m.GetRoomFunc != nil {
		return m.GetRoomFunc(ctx, roomID)
	}
	return &service.RoomInfo{
		ID:      roomID,
		Players: []protocol.Player{},
		Phase:   "lobby",
		Answers: map[string]string{},
	}, nil
}

func (m *MockRoomService) DeleteRoom(ctx context.Context, roomID string) error {
	if m.DeleteRoomFunc != nil {
		return m.DeleteRoomFunc(ctx, roomID)
	}
	return nil
}

func (m *MockRoomService) JoinURL(roomID string) (string, error) {
	if m.JoinURLFunc != nil {
		return m.JoinURLFunc(roomID)
	}
	return "http://localhost:8080/room/" + roomID, nil
}

// mockSockets records which room each WebSocket request targeted
type mockSockets struct {
	rooms []string
}

func (m *mockSockets) ServeWS(w http.ResponseWriter, r *http.Request, roomID string) {
	m.rooms = append(m.rooms, roomID)
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupTestServer(mockService *MockRoomService) (*Server, *mockSockets) {
	sockets := &mockSockets{}
	return NewServer(mockService, sockets, testLogger()), sockets
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	server, _ := setupTestServer(&MockRoomService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %s", resp["status"])
	}
}

func TestRoomSocketRoute(t *testing.T) {
	server, sockets := setupTestServer(&MockRoomService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/room/Party-1", nil))

	if len(sockets.rooms) != 1 || sockets.rooms[0] != "Party-1" {
		t.Errorf("Expected socket handler to get Party-1, got %v", sockets.rooms)
	}
}

func TestListRooms(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockRoomService, *service.ListOptions)
		expectedStatus int
		expectedOpts   service.ListOptions
	}{
		{
			name:           "defaults",
			query:          "",
			expectedStatus: http.StatusOK,
			expectedOpts:   service.ListOptions{},
		},
		{
			name:           "sort order and limit",
			query:          "?sort=players&order=desc&limit=5",
			expectedStatus: http.StatusOK,
			expectedOpts:   service.ListOptions{Sort: "players", Order: "desc", Limit: 5},
		},
		{
			name:           "non-numeric limit is ignored",
			query:          "?limit=abc",
			expectedStatus: http.StatusOK,
			expectedOpts:   service.ListOptions{},
		},
		{
			name:           "invalid sort",
			query:          "?sort=age",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid order",
			query:          "?order=sideways",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "service error",
			query: "",
			setupMock: func(m *MockRoomService, _ *service.ListOptions) {
				m.ListRoomsFunc = func(ctx context.Context, opts service.ListOptions) (*service.RoomList, error) {
					return nil, errors.New("boom")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOpts service.ListOptions
			mock := &MockRoomService{
				ListRoomsFunc: func(ctx context.Context, opts service.ListOptions) (*service.RoomList, error) {
					gotOpts = opts
					return &service.RoomList{
						Count: 1,
						Total: 1,
						Rooms: []*service.RoomInfo{{ID: "abc", Sessions: 2, Players: []protocol.Player{}}},
					}, nil
				},
			}
			if tt.setupMock != nil {
				tt.setupMock(mock, &gotOpts)
			}
			server, _ := setupTestServer(mock)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/rooms"+tt.query, nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			if gotOpts != tt.expectedOpts {
				t.Errorf("Expected options %+v, got %+v", tt.expectedOpts, gotOpts)
			}

			var resp service.RoomList
			parseResponse(t, w, &resp)
			if resp.Count != 1 || resp.Rooms[0].ID != "abc" {
				t.Errorf("Unexpected response: %+v", resp)
			}
		})
	}
}

func TestGetRoom(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"found", nil, http.StatusOK},
		{"not found", coordinator.ErrRoomNotFound, http.StatusNotFound},
		{"invalid id", coordinator.ErrInvalidRoomID, http.StatusBadRequest},
		{"shutting down", coordinator.ErrShutdown, http.StatusServiceUnavailable},
		{"other error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hostID := "p1"
			server, _ := setupTestServer(&MockRoomService{
				GetRoomFunc: func(ctx context.Context, roomID string) (*service.RoomInfo, error) {
					if tt.err != nil {
						return nil, fmt.Errorf("room %s: %w", roomID, tt.err)
					}
					return &service.RoomInfo{
						ID:      roomID,
						Players: []protocol.Player{{ID: "p1", Name: "Alice"}},
						HostID:  &hostID,
						Phase:   "playing",
					}, nil
				},
			})

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/rooms/abc", nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.err != nil {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] == "" {
					t.Error("Expected error message")
				}
				return
			}

			var resp map[string]interface{}
			parseResponse(t, w, &resp)
			if resp["hostId"] != "p1" || resp["phase"] != "playing" {
				t.Errorf("Unexpected response: %v", resp)
			}
		})
	}
}

func TestDeleteRoom(t *testing.T) {
	var deleted string
	server, _ := setupTestServer(&MockRoomService{
		DeleteRoomFunc: func(ctx context.Context, roomID string) error {
			if roomID == "missing" {
				return coordinator.ErrRoomNotFound
			}
			deleted = roomID
			return nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/rooms/abc", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if deleted != "abc" {
		t.Errorf("Expected abc to be deleted, got %q", deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/rooms/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRoomQR(t *testing.T) {
	t.Run("returns a png of the requested size", func(t *testing.T) {
		server, _ := setupTestServer(&MockRoomService{})

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/rooms/abc/qr?size=128", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Expected image/png, got %s", ct)
		}

		img, err := png.Decode(w.Body)
		if err != nil {
			t.Fatalf("Response is not a PNG: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
			t.Errorf("Expected 128x128, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("rejects invalid sizes", func(t *testing.T) {
		server, _ := setupTestServer(&MockRoomService{})

		for _, size := range []string{"abc", "10", "5000"} {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/rooms/abc/qr?size="+size, nil))
			if w.Code != http.StatusBadRequest {
				t.Errorf("size=%s: expected status 400, got %d", size, w.Code)
			}
		}
	})

	t.Run("invalid room id", func(t *testing.T) {
		server, _ := setupTestServer(&MockRoomService{
			JoinURLFunc: func(roomID string) (string, error) {
				return "", coordinator.ErrInvalidRoomID
			},
		})

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/rooms/abc/qr", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("no public url", func(t *testing.T) {
		server, _ := setupTestServer(&MockRoomService{
			JoinURLFunc: func(roomID string) (string, error) {
				return "", errors.New("public URL is not configured")
			},
		})

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/rooms/abc/qr", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestRoomSocket_WithoutUpgrade(t *testing.T) {
	log := testLogger()
	manager := coordinator.NewManager(coordinator.WithLogger(log))
	defer manager.Shutdown()

	server := NewServer(service.NewRoomService(manager, ""), websocket.NewHandler(manager, log), log)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/room/abc", nil))

	if w.Code != http.StatusUpgradeRequired {
		t.Fatalf("Expected status 426, got %d", w.Code)
	}
	if w.Body.String() != websocket.UpgradeRequiredBody {
		t.Errorf("Unexpected body: %q", w.Body.String())
	}
	if manager.Count() != 0 {
		t.Error("A plain request should not create a room")
	}
}

func TestGetRoom_Integration(t *testing.T) {
	log := testLogger()
	manager := coordinator.NewManager(coordinator.WithLogger(log))
	defer manager.Shutdown()

	if _, err := manager.GetOrCreate(context.Background(), "abc"); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	server := NewServer(service.NewRoomService(manager, "http://localhost:8080"), websocket.NewHandler(manager, log), log)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/rooms/ABC", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	if resp["id"] != "abc" || resp["hostId"] != nil || resp["joinUrl"] != "http://localhost:8080/room/abc" {
		t.Errorf("Unexpected response: %v", resp)
	}
	if players, ok := resp["players"].([]interface{}); !ok || len(players) != 0 {
		t.Errorf("Expected empty players array, got %v", resp["players"])
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/rooms/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
