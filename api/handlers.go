package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"whatsapp-session-api/types"
)

type healthResponse struct {
	OK            bool    `json:"ok"`
	Ready         bool    `json:"ready"`
	Authenticated bool    `json:"authenticated"`
	AuthFailure   *string `json:"auth_failure"`
}

type statusResponse struct {
	Ready         bool    `json:"ready"`
	Authenticated bool    `json:"authenticated"`
	AuthFailure   *string `json:"auth_failure"`
	Disconnected  *string `json:"disconnected"`
	QRAvailable   bool    `json:"qr_available"`
}

type qrResponse struct {
	QR string `json:"qr"`
}

type sendResponse struct {
	Sent bool `json:"sent"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "WhatsApp session service is running")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state := s.state.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{
		OK:            true,
		Ready:         state.Ready,
		Authenticated: state.Authenticated,
		AuthFailure:   nullable(state.AuthFailure),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state := s.state.Snapshot()
	writeJSON(w, http.StatusOK, statusResponse{
		Ready:         state.Ready,
		Authenticated: state.Authenticated,
		AuthFailure:   nullable(state.AuthFailure),
		Disconnected:  nullable(state.Disconnect),
		QRAvailable:   state.QR != "",
	})
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, qrResponse{QR: s.state.Snapshot().QR})
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	chats, err := s.chats.ListChats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("chat listing failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if chats == nil {
		chats = []types.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req types.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	req.Recipient = strings.TrimSpace(req.Recipient)
	if req.Recipient == "" {
		writeError(w, http.StatusBadRequest, errors.New("recipient is required"))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	if err := s.chats.SendText(r.Context(), req.Recipient, req.Message); err != nil {
		s.log.Error().Err(err).Str("recipient", req.Recipient).Msg("send failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sendResponse{Sent: true})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
