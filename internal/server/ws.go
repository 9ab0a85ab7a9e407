package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/franckalain/nutriscan/internal/apperr"
	"github.com/franckalain/nutriscan/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the dashboard is served from the same host or a dev proxy
	},
}

// wsClient is one dashboard connection. userID is learned from the first
// message that names a user and selects which pushes the client receives.
type wsClient struct {
	conn   *websocket.Conn
	mu     sync.Mutex // serializes writes
	userMu sync.RWMutex
	userID string
}

func (c *wsClient) setUser(userID string) {
	if userID == "" {
		return
	}
	c.userMu.Lock()
	c.userID = userID
	c.userMu.Unlock()
}

func (c *wsClient) user() string {
	c.userMu.RLock()
	defer c.userMu.RUnlock()
	return c.userID
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

type wsScanRequest struct {
	Image  string `json:"image"`
	UserID string `json:"userId"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	clientID := uuid.New().String()
	client := &wsClient{conn: conn}
	s.clients.Store(clientID, client)
	defer s.clients.Delete(clientID)
	s.logger.Debug("websocket client connected", "client_id", clientID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("error reading websocket message", "client_id", clientID, "error", err)
			}
			break
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendError(client, "Invalid message format")
			continue
		}

		s.handleWebSocketMessage(r.Context(), client, msg)
	}
}

func (s *Server) handleWebSocketMessage(ctx context.Context, client *wsClient, msg wsMessage) {
	switch msg.Type {
	case "scan":
		s.handleWSScan(ctx, client, msg.Data)
	case "confirm_scan":
		s.handleWSConfirmScan(ctx, client, msg.Data)
	case "get_history":
		s.handleWSHistory(ctx, client, msg.Data)
	case "get_summary":
		s.handleWSSummary(ctx, client, msg.Data)
	default:
		s.sendError(client, "Unknown message type")
	}
}

func (s *Server) handleWSScan(ctx context.Context, client *wsClient, data json.RawMessage) {
	var req wsScanRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Image == "" {
		s.sendError(client, "Invalid image data")
		return
	}
	client.setUser(req.UserID)

	payload, err := s.recognize(ctx, req.Image)
	if err != nil {
		s.logger.Warn("websocket scan failed", "error", err)
		s.sendError(client, apperr.MessageOf(err))
		return
	}
	if req.UserID != "" {
		payload["userId"] = req.UserID
	}
	s.sendMessage(client, "scan_result", payload)
}

func (s *Server) handleWSConfirmScan(ctx context.Context, client *wsClient, data json.RawMessage) {
	var payload models.ScanPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload == nil {
		s.sendError(client, "Invalid scan data")
		return
	}

	rec, err := s.scans.Ingest(ctx, payload)
	if err != nil {
		s.sendError(client, apperr.MessageOf(err))
		return
	}
	s.metrics.ScansIngested.WithLabelValues(rec.Source).Inc()
	client.setUser(rec.UserID)
	s.notifyUser(rec.UserID, "scan_saved", rec)
}

func (s *Server) handleWSHistory(ctx context.Context, client *wsClient, data json.RawMessage) {
	var req userRequest
	_ = json.Unmarshal(data, &req)
	client.setUser(req.UserID)

	views, err := s.scans.History(ctx, req.UserID)
	if err != nil {
		s.sendError(client, apperr.MessageOf(err))
		return
	}
	s.sendMessage(client, "history", views)
}

func (s *Server) handleWSSummary(ctx context.Context, client *wsClient, data json.RawMessage) {
	var req userRequest
	_ = json.Unmarshal(data, &req)
	client.setUser(req.UserID)

	summary, err := s.scans.Summary(ctx, req.UserID)
	if err != nil {
		s.sendError(client, apperr.MessageOf(err))
		return
	}
	s.sendMessage(client, "summary", summary)
}

// notifyUser pushes an event to every connection of userID
func (s *Server) notifyUser(userID, messageType string, data any) {
	s.clients.Range(func(_, value any) bool {
		client := value.(*wsClient)
		if client.user() == userID {
			s.sendMessage(client, messageType, data)
		}
		return true
	})
}

func (s *Server) closeClients() {
	s.clients.Range(func(key, value any) bool {
		client := value.(*wsClient)
		client.mu.Lock()
		_ = client.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		client.mu.Unlock()
		client.conn.Close()
		return true
	})
}

func (s *Server) sendMessage(client *wsClient, messageType string, data any) {
	msg := map[string]any{
		"type": messageType,
		"data": data,
	}

	if err := client.writeJSON(msg); err != nil {
		s.logger.Warn("error sending websocket message", "type", messageType, "error", err)
	}
}

func (s *Server) sendError(client *wsClient, message string) {
	msg := map[string]any{
		"type":    "error",
		"message": message,
	}

	if err := client.writeJSON(msg); err != nil {
		s.logger.Warn("error sending websocket error", "error", err)
	}
}
