package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/log"
)

const version = "1.2.0"

// The relay serves browser builds from arbitrary dev origins, so the
// upgrader accepts any Origin header.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type server struct {
	hub   *hub
	store historyStore
	ttl   time.Duration
}

func newRouter(s *server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot)
	r.HandleFunc("/health", s.handleHealth)
	r.HandleFunc("/room/{room_id}/info", s.handleRoomInfo)
	r.HandleFunc("/room/{room_id}/history", s.handleHistory)
	r.HandleFunc("/ws/{room_id}", s.handleWS)
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("write response: %v", err)
	}
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Encrypted Chat API",
		"status":         "running",
		"version":        version,
		"active_rooms":   s.hub.liveRooms(),
		"room_ttl_hours": int(s.ttl.Hours()),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := "connected"
	if err := s.store.Ping(r.Context()); err != nil {
		db = "disconnected"
	}
	writeJSON(w, http.StatusOK, domain.Health{
		Status:      "healthy",
		Database:    db,
		ActiveRooms: s.hub.liveRooms(),
		Timestamp:   domain.WireTime(time.Now()),
	})
}

// handleRoomInfo reports metadata for one room. A room past its expiry
// reads as missing even before the sweep has retired it.
func (s *server) handleRoomInfo(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	now := time.Now()
	meta, ok, err := s.store.Room(r.Context(), roomID)
	if err != nil {
		log.Errorf("room info %s: %v", roomID, err)
		ok = false
	}
	if !ok || now.After(meta.ExpiresAt) {
		writeJSON(w, http.StatusOK, domain.RoomInfo{Exists: false, RoomID: roomID})
		return
	}
	writeJSON(w, http.StatusOK, domain.RoomInfo{
		Exists:        true,
		RoomID:        roomID,
		CreatedAt:     domain.WireTime(meta.CreatedAt),
		ExpiresAt:     domain.WireTime(meta.ExpiresAt),
		ActiveUsers:   s.hub.liveUsers(roomID),
		TimeRemaining: meta.ExpiresAt.Sub(now).Truncate(time.Second).String(),
	})
}

// handleHistory returns stored ciphertexts oldest first. Unknown and
// expired rooms answer with an empty list rather than an error.
func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	meta, ok, err := s.store.Room(r.Context(), roomID)
	if err != nil {
		log.Errorf("history %s: %v", roomID, err)
		ok = false
	}
	if !ok || time.Now().After(meta.ExpiresAt) {
		writeJSON(w, http.StatusOK, domain.History{Messages: []domain.HistoryMessage{}})
		return
	}
	messages, err := s.store.History(r.Context(), roomID, historyLimit)
	if err != nil {
		log.Errorf("history %s: %v", roomID, err)
	}
	if messages == nil {
		messages = []domain.HistoryMessage{}
	}
	writeJSON(w, http.StatusOK, domain.History{Messages: messages})
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("upgrade for room %s: %v", roomID, err)
		return
	}
	s.hub.attach(r.Context(), conn, roomID)
}
