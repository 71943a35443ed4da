package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"github.com/wricardo/partyroom/game/coordinator"
	"github.com/wricardo/partyroom/game/service"
)

// QR code sizes accepted by the qr endpoint, in pixels
const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// RoomSocketHandler attaches WebSocket connections to rooms
type RoomSocketHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request, roomID string)
}

// Server represents the REST API server
type Server struct {
	service service.RoomService
	sockets RoomSocketHandler
	router  *mux.Router
	log     logrus.FieldLogger
}

// NewServer creates a new API server
func NewServer(roomService service.RoomService, sockets RoomSocketHandler, log logrus.FieldLogger) *Server {
	s := &Server{
		service: roomService,
		sockets: sockets,
		router:  mux.NewRouter(),
		log:     log,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Room connections
	api.HandleFunc("/room/{roomId}", s.handleRoomSocket)

	// Room inspection
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{roomId}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/rooms/{roomId}", s.handleDeleteRoom).Methods("DELETE")
	api.HandleFunc("/rooms/{roomId}/qr", s.handleRoomQR).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Router exposes the router so callers can mount extra routes
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, coordinator.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, coordinator.ErrInvalidRoomID):
		return http.StatusBadRequest
	case errors.Is(err, coordinator.ErrShutdown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Room Handlers

func (s *Server) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	s.sockets.ServeWS(w, r, mux.Vars(r)["roomId"])
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := service.ListOptions{
		Sort:  query.Get("sort"),
		Order: query.Get("order"),
	}

	switch opts.Sort {
	case "", service.SortByID, service.SortBySessions, service.SortByPlayers:
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid sort %q", opts.Sort))
		return
	}
	switch opts.Order {
	case "", "asc", "desc":
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid order %q", opts.Order))
		return
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	rooms, err := s.service.ListRooms(r.Context(), opts)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	room, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, room)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	if err := s.service.DeleteRoom(r.Context(), roomID); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Room %s deleted", roomID),
	})
}

func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	size := defaultQRSize
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		n, err := strconv.Atoi(sizeStr)
		if err != nil || n < minQRSize || n > maxQRSize {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("size must be between %d and %d", minQRSize, maxQRSize))
			return
		}
		size = n
	}

	joinURL, err := s.service.JoinURL(roomID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, err.Error())
		return
	}

	png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
	if err != nil {
		s.log.WithError(err).WithField("room", roomID).Error("Failed to encode QR code")
		respondError(w, http.StatusInternalServerError, "failed to encode QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
