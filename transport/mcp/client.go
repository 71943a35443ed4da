package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/partyroom/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Party Room Coordinator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Party Room Coordinator - MCP Interface

This is a thin client that proxies all requests to the REST API server.
It lets an operator see which rooms are live and who is in them.

AVAILABLE TOOLS:
- list_rooms: List resident rooms with session and player counts
- get_room: Show players, host, phase and answers of one room
- delete_room: Disconnect everyone in a room and forget its players and host
- room_qr: Get a QR code image of a room's join link

Rooms are created by participants connecting to them; they cannot be created here.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	roomIDProperty := map[string]interface{}{
		"type":        "string",
		"description": "Room ID (letters, digits, '-' and '_', case-insensitive)",
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List rooms currently held in memory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sort": map[string]interface{}{
					"type":        "string",
					"enum":        []string{service.SortByID, service.SortBySessions, service.SortByPlayers},
					"description": "Sort key (default id)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default asc)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of rooms to return",
				},
			},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get players, host, phase and answers of a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": roomIDProperty,
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_room",
		Description: "Disconnect every session in a room and delete its stored players and host",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": roomIDProperty,
			},
			Required: []string{"room_id"},
		},
	}, c.handleDeleteRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "room_qr",
		Description: "Get a PNG QR code encoding the room's join link",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": roomIDProperty,
				"size": map[string]interface{}{
					"type":        "number",
					"description": "Image size in pixels (64-1024, default 256)",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleRoomQR)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	return resp, nil
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) apiGetBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// arguments returns the tool call arguments, or an empty map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func roomPath(roomID string) string {
	return "/api/rooms/" + url.PathEscape(roomID)
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	if sortBy, _ := args["sort"].(string); sortBy != "" {
		query.Set("sort", sortBy)
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		query.Set("limit", strconv.Itoa(int(limit)))
	}

	path := "/api/rooms"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list service.RoomList
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &list); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoomList(&list)), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, _ := arguments(request)["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var room service.RoomInfo
	if err := c.apiCall(ctx, http.MethodGet, roomPath(roomID), nil, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&room)), nil
}

func (c *Client) handleDeleteRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, _ := arguments(request)["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var resp map[string]string
	if err := c.apiCall(ctx, http.MethodDelete, roomPath(roomID), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(resp["message"]), nil
}

func (c *Client) handleRoomQR(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	roomID, _ := args["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	path := roomPath(roomID) + "/qr"
	if size, ok := args["size"].(float64); ok && size > 0 {
		path += "?size=" + strconv.Itoa(int(size))
	}

	png, err := c.apiGetBytes(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultImage(
		fmt.Sprintf("QR code for room %s", strings.ToLower(roomID)),
		base64.StdEncoding.EncodeToString(png),
		"image/png",
	), nil
}

// Formatting

func formatRoomList(list *service.RoomList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rooms (%d of %d, sorted by %s %s):\n\n", list.Count, list.Total, list.Sort, list.Order)

	if len(list.Rooms) == 0 {
		b.WriteString("No rooms are active.\n")
		return b.String()
	}

	for _, r := range list.Rooms {
		host := "none"
		if r.HostID != nil {
			host = *r.HostID
		}
		fmt.Fprintf(&b, "- %s: %d sessions, %d players, host %s, phase %s\n",
			r.ID, r.Sessions, len(r.Players), host, r.Phase)
	}
	return b.String()
}

func formatRoom(room *service.RoomInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s\n", room.ID)
	fmt.Fprintf(&b, "Phase: %s\n", room.Phase)
	if room.GameType != "" {
		fmt.Fprintf(&b, "Game: %s\n", room.GameType)
	}
	fmt.Fprintf(&b, "Sessions: %d\n", room.Sessions)
	for _, id := range room.SessionIDs {
		fmt.Fprintf(&b, "  - %s\n", id)
	}
	if room.HostID != nil {
		fmt.Fprintf(&b, "Host: %s\n", *room.HostID)
	} else {
		b.WriteString("Host: none\n")
	}
	if room.JoinURL != "" {
		fmt.Fprintf(&b, "Join: %s\n", room.JoinURL)
	}

	fmt.Fprintf(&b, "\nPlayers (%d):\n", len(room.Players))
	for _, p := range room.Players {
		marker := ""
		if room.HostID != nil && *room.HostID == p.ID {
			marker = " [host]"
		}
		answer := ""
		if a, ok := room.Answers[p.ID]; ok {
			answer = fmt.Sprintf(", answered %q", a)
		}
		fmt.Fprintf(&b, "- %s (%s), score %d%s%s\n", p.Name, p.ID, p.Score, answer, marker)
	}
	return b.String()
}
