package observer

import (
	"encoding/json"
	"log"
	"net/http"

	"battleship/pkg/engine"
	"battleship/pkg/store"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Routes configures the HTTP endpoints for the spectator server.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/invite.png", s.handleInvite)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("observer: upgrade error: %v", err)
		return
	}

	c := newClient(s, conn)
	s.register(c)

	go c.writePump()
	go c.readPump()
}

// handleInvite serves a QR code pointing players at the game channel.
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode("battleship://join?channel="+s.prefix, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleStats serves the game snapshot plus recent match records. Guarded
// by the admin token printed at startup.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resp := struct {
		Game    engine.Summary   `json:"game"`
		Matches []store.MatchRow `json:"matches,omitempty"`
	}{Game: s.summary()}

	if s.db != nil {
		matches, err := s.db.RecentMatches(20)
		if err != nil {
			log.Printf("observer: recent matches: %v", err)
		} else {
			resp.Matches = matches
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
