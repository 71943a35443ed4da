// Package mcp provides a Model Context Protocol server for operating party rooms.
//
// The mcp package implements:
//   - MCP tools that proxy the REST API
//   - Text formatting of room listings and room details
//   - QR code images of join links
//
// MCP Tools:
//   - list_rooms: List resident rooms (sort, order, limit)
//   - get_room: Players, host, phase and answers of a room
//   - delete_room: Disconnect a room's sessions and purge its stored state
//   - room_qr: PNG QR code of a room's join link
//
// Transport Modes:
//
// The server is served either over stdio by the "mcp" command or over HTTP
// at POST /mcp by the "serve" command. In both cases every tool call is an
// HTTP request against the coordinator's REST API, so the MCP process does not
// need to run inside the coordinator.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
