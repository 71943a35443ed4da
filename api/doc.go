// Package api provides the HTTP surface of the party room coordinator.
//
// The api package implements:
//   - The room WebSocket endpoint, delegated to the websocket transport
//   - Room listing, inspection and deletion
//   - QR codes encoding a room's join URL
//   - A health check
//
// Endpoints:
//
// Rooms:
//   - GET /api/room/{roomId} - WebSocket connection to a room (426 without Upgrade)
//   - GET /api/rooms - List resident rooms (?sort=id|sessions|players&order=asc|desc&limit=N)
//   - GET /api/rooms/{roomId} - Get one resident room
//   - DELETE /api/rooms/{roomId} - Disconnect everyone and purge durable state
//   - GET /api/rooms/{roomId}/qr - PNG QR code of the join URL (?size=64..1024)
//
// Health:
//   - GET /health - {"status":"healthy"}
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{
//	  "error": "room abc: room not found"
//	}
//
// Usage:
//
//	server := api.NewServer(roomService, websocket.NewHandler(manager, log), log)
//	http.ListenAndServe(":8080", server)
package api
