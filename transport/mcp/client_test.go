package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/partyroom/game/protocol"
	"github.com/wricardo/partyroom/game/service"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "room abc: room not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.apiCall(context.Background(), "GET", "/api/rooms/abc", nil, nil)
	if err == nil || err.Error() != "room abc: room not found" {
		t.Errorf("Expected API error message, got %v", err)
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	if err := client.apiCall(context.Background(), "GET", "/api/rooms", nil, nil); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestHandleListRooms(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery

		host := "p1"
		json.NewEncoder(w).Encode(service.RoomList{
			Count: 2,
			Total: 2,
			Sort:  "players",
			Order: "desc",
			Rooms: []*service.RoomInfo{
				{ID: "abc", Sessions: 2, Players: []protocol.Player{{ID: "p1"}, {ID: "p2"}}, HostID: &host, Phase: "playing"},
				{ID: "xyz", Sessions: 0, Players: []protocol.Player{}, Phase: "lobby"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRooms(context.Background(), callRequest("list_rooms", map[string]interface{}{
		"sort":  "players",
		"order": "desc",
		"limit": float64(5),
	}))
	if err != nil {
		t.Fatalf("list_rooms failed: %v", err)
	}

	if gotQuery != "limit=5&order=desc&sort=players" {
		t.Errorf("Unexpected query %q", gotQuery)
	}

	text := resultText(t, result)
	expected := []string{
		"Rooms (2 of 2, sorted by players desc)",
		"- abc: 2 sessions, 2 players, host p1, phase playing",
		"- xyz: 0 sessions, 0 players, host none, phase lobby",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got:\n%s", want, text)
		}
	}
}

func TestHandleListRooms_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(service.RoomList{Sort: "id", Order: "asc", Rooms: []*service.RoomInfo{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRooms(context.Background(), callRequest("list_rooms", nil))
	if err != nil {
		t.Fatalf("list_rooms failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "No rooms are active") {
		t.Errorf("Unexpected result: %s", text)
	}
}

func TestHandleGetRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms/abc" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "room not found"})
			return
		}
		host := "p1"
		json.NewEncoder(w).Encode(service.RoomInfo{
			ID:         "abc",
			Sessions:   2,
			SessionIDs: []string{"s-1", "s-2"},
			Players:    []protocol.Player{{ID: "p1", Name: "Alice", Score: 3}, {ID: "p2", Name: "Bob"}},
			HostID:     &host,
			Phase:      "playing",
			GameType:   "quiz",
			Answers:    map[string]string{"p2": "b"},
			JoinURL:    "http://localhost:8080/room/abc",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleGetRoom(context.Background(), callRequest("get_room", map[string]interface{}{"room_id": "abc"}))
	if err != nil {
		t.Fatalf("get_room failed: %v", err)
	}
	text := resultText(t, result)
	expected := []string{
		"Room abc",
		"Phase: playing",
		"Game: quiz",
		"Host: p1",
		"  - s-1\n  - s-2\n",
		"Join: http://localhost:8080/room/abc",
		"- Alice (p1), score 3 [host]",
		`- Bob (p2), score 0, answered "b"`,
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got:\n%s", want, text)
		}
	}

	missing, err := client.handleGetRoom(context.Background(), callRequest("get_room", map[string]interface{}{"room_id": "nope"}))
	if err != nil {
		t.Fatalf("get_room failed: %v", err)
	}
	if !missing.IsError {
		t.Error("Expected tool error for a missing room")
	}

	noID, _ := client.handleGetRoom(context.Background(), callRequest("get_room", map[string]interface{}{}))
	if !noID.IsError {
		t.Error("Expected tool error without room_id")
	}
}

func TestHandleDeleteRoom(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		json.NewEncoder(w).Encode(map[string]string{"message": "Room abc deleted"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleDeleteRoom(context.Background(), callRequest("delete_room", map[string]interface{}{"room_id": "abc"}))
	if err != nil {
		t.Fatalf("delete_room failed: %v", err)
	}
	if method != http.MethodDelete {
		t.Errorf("Expected DELETE, got %s", method)
	}
	if text := resultText(t, result); text != "Room abc deleted" {
		t.Errorf("Unexpected result: %s", text)
	}
}

func TestHandleRoomQR(t *testing.T) {
	png := []byte("\x89PNG fake")
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleRoomQR(context.Background(), callRequest("room_qr", map[string]interface{}{
		"room_id": "ABC",
		"size":    float64(128),
	}))
	if err != nil {
		t.Fatalf("room_qr failed: %v", err)
	}
	if gotURL != "/api/rooms/ABC/qr?size=128" {
		t.Errorf("Unexpected request %s", gotURL)
	}

	var image *mcp.ImageContent
	for _, content := range result.Content {
		if img, ok := content.(mcp.ImageContent); ok {
			image = &img
		}
	}
	if image == nil {
		t.Fatal("Expected image content")
	}
	if image.MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %s", image.MIMEType)
	}
	if image.Data != base64.StdEncoding.EncodeToString(png) {
		t.Error("Image data does not match the PNG served")
	}
}
