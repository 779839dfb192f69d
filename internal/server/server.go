// Package server exposes the chat chain over HTTP so a thin browser
// extension can forward page HTML and messages to it.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ChamsBouzaiene/pagechat/internal/chat"
	"github.com/ChamsBouzaiene/pagechat/internal/engine"
	"github.com/ChamsBouzaiene/pagechat/internal/engine/protocol"
	"github.com/ChamsBouzaiene/pagechat/internal/extract"
	"github.com/ChamsBouzaiene/pagechat/internal/session"
)

const maxBodyBytes = 10 << 20

// Config wires a Server.
type Config struct {
	Messages    protocol.Handler // answers SCRAPE_REQUEST / SCRAPED_CONTENT
	Controller  *chat.Controller
	Sessions    *session.Manager
	Credentials *session.Credentials
	Logger      *log.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	messages    protocol.Handler
	controller  *chat.Controller
	sessions    *session.Manager
	credentials *session.Credentials
	logger      *log.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Server{
		messages:    cfg.Messages,
		controller:  cfg.Controller,
		sessions:    cfg.Sessions,
		credentials: cfg.Credentials,
		logger:      cfg.Logger,
	}
}

// Routes returns the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/messages", s.handleMessage)
		r.Post("/extract", s.handleExtract)
		r.Post("/chat", s.handleChat)
		r.Get("/session", s.handleSession)
		r.Post("/session/reset", s.handleReset)
		r.Put("/credential", s.handleSetCredential)
		r.Get("/credential", s.handleGetCredential)
	})
	return r
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, protocol.Failure(err.Error()))
		return
	}

	msg, err := protocol.DecodeMessage(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Failure(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, s.messages.Handle(r.Context(), msg))
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, protocol.Failure(err.Error()))
		return
	}

	snap, err := extract.ExtractHTML(r.URL.Query().Get("url"), data)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, protocol.Failure(engine.Message(err)))
		return
	}
	writeJSON(w, http.StatusOK, protocol.Reply{
		Success: true,
		URL:     snap.URL,
		Title:   snap.Title,
		Content: snap.Content,
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	SessionID string      `json:"session_id"`
	Reply     chat.Bubble `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reply, sent := s.controller.Send(r.Context(), req.Message)
	if !sent {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: s.controller.State().ID, Reply: reply})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.controller.Open(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	turns, err := s.sessions.Turns(r.Context(), st)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if turns == nil {
		turns = []session.Turn{}
	}
	writeJSON(w, http.StatusOK, session.Export{SessionID: st.ID, Turns: turns})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if _, err := s.controller.Open(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	st, err := s.controller.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Printf("🧹 Session reset: %s", st.ID)
	writeJSON(w, http.StatusOK, map[string]string{"session_id": st.ID})
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.credentials.Set(r.Context(), req.APIKey); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrEmptyKey) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"saved": s.credentials.Saved(r.Context())})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
