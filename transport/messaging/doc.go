// Package messaging mirrors room broadcasts onto an embedded NATS server.
//
// Every frame a room broadcasts to its WebSocket sessions is also published
// on the subject "<prefix>.<roomId>", so tools outside the process can watch
// rooms without joining them. The server is optional and off by default.
package messaging
