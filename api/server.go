// Package api is the HTTP facade over the session mirror and the WhatsApp
// engine. All endpoints are unauthenticated; the service assumes
// network-level trust.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"whatsapp-session-api/session"
	"whatsapp-session-api/types"
)

// StateSource yields consistent snapshots of the mirrored session state.
type StateSource interface {
	Snapshot() session.State
}

// ChatService is the slice of the engine the facade proxies to.
type ChatService interface {
	ListChats(ctx context.Context) ([]types.Chat, error)
	SendText(ctx context.Context, recipient, text string) error
}

type Server struct {
	state     StateSource
	chats     ChatService
	log       zerolog.Logger
	publicDir string
	limiter   *RateLimiter
}

func NewServer(state StateSource, chats ChatService, publicDir string, log zerolog.Logger) *Server {
	return &Server{
		state:     state,
		chats:     chats,
		log:       log.With().Str("component", "api").Logger(),
		publicDir: publicDir,
		// One send every 2 seconds per client, bursting to 3.
		limiter: NewRateLimiter(0.5, 3),
	}
}

// Handler builds the route table. Every route goes through the recovery and
// metrics middleware so a panicking handler cannot take the process down.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/qr", s.handleQR)
	mux.HandleFunc("/chats", s.handleChats)
	mux.HandleFunc("/send", s.rateLimited(s.handleSend))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.Dir(s.publicDir))))
	return s.instrument(mux)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
