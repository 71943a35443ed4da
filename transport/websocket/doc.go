// Package websocket provides the WebSocket transport for party rooms.
//
// The websocket package implements:
//   - The room endpoint handler, which upgrades the request and joins the room
//   - A Client per connection satisfying coordinator.Transport
//   - Read and write pumps with ping/pong keepalive
//   - The text "ping" to "pong" auto-response, answered without waking the room
//
// Architecture:
//
// Each connection runs two goroutines. The read pump hands every text frame
// to the room actor in arrival order. The write pump drains a buffered send
// channel, writing one WebSocket message per frame, and pings the peer so dead
// connections are noticed. A client that falls too far behind is closed.
//
// Session Integration:
//
// Clients may pass ?session=<id> to ask for a stable session id across
// reconnects. The room keeps it unless another live connection already uses it.
//
// Non-upgrade requests to the endpoint get 426 Upgrade Required.
//
// Usage:
//
//	handler := websocket.NewHandler(manager, log)
//	router.HandleFunc("/api/room/{roomId}", func(w http.ResponseWriter, r *http.Request) {
//	    handler.ServeWS(w, r, mux.Vars(r)["roomId"])
//	})
package websocket
