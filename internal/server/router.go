package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/franckalain/nutriscan/internal/apperr"
	"github.com/franckalain/nutriscan/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// envelope is the response shape of every /api endpoint
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type deleteRequest struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

type scanImageRequest struct {
	Image string `json:"image"` // base64
}

type chatRequest struct {
	Message string `json:"message"`
}

// Handler builds the HTTP routes
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scans", s.handleCreateScan).Methods(http.MethodPost)
	api.HandleFunc("/scans", s.handleListScans).Methods(http.MethodGet)
	api.HandleFunc("/scans", s.handleDeleteScan).Methods(http.MethodDelete)
	api.HandleFunc("/scans/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/scans/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/scan", s.handleScanImage).Methods(http.MethodPost)
	if s.assistant != nil {
		api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	}

	if s.staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var payload models.ScanPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		s.respondError(w, r, apperr.Validationf("invalid request body"))
		return
	}

	rec, err := s.scans.Ingest(r.Context(), payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.ScansIngested.WithLabelValues(rec.Source).Inc()
	s.notifyUser(rec.UserID, "scan_saved", rec)
	s.respond(w, r, http.StatusCreated, rec)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	records, err := s.scans.List(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, records)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	// an unreadable body is reported as missing fields by Delete
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := s.scans.Delete(r.Context(), req.ID, req.UserID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.ScansDeleted.Inc()
	s.notifyUser(req.UserID, "scan_deleted", map[string]string{"id": req.ID})
	s.respond(w, r, http.StatusOK, map[string]string{"id": req.ID})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	views, err := s.scans.History(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, views)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.scans.Summary(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, summary)
}

func (s *Server) handleScanImage(w http.ResponseWriter, r *http.Request) {
	var req scanImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
		s.respondError(w, r, apperr.Validationf("image is required"))
		return
	}

	payload, err := s.recognize(r.Context(), req.Image)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, payload)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, apperr.Validationf("invalid request body"))
		return
	}

	reply, err := s.assistant.Reply(r.Context(), req.Message)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// recognize decodes a base64 image and runs it through the scanner model
func (s *Server) recognize(ctx context.Context, image string) (models.ScanPayload, error) {
	imageData, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, apperr.Validationf("invalid image format")
	}
	payload, err := s.model.ProcessImage(ctx, imageData)
	if err != nil {
		return nil, apperr.WrapUpstream("failed to process image", err)
	}
	return payload, nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.writeJSON(w, r, status, envelope{Success: true, Data: data})
}

// respondError is the single place a classified error becomes a response
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal || kind == apperr.Storage || kind == apperr.Upstream {
		s.logger.Error("request failed", "path", r.URL.Path, "kind", kind.String(), "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "kind", kind.String(), "error", err)
	}
	s.writeJSON(w, r, kind.StatusCode(), envelope{Success: false, Error: apperr.MessageOf(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	s.metrics.observeRequest(r, status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}
