// Package server exposes the query router over HTTP and WebSocket.
// Health and stats stay responsive while the vector index is still
// building; queries degrade to pattern and keyword retrieval until it
// is ready.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xhad/tier0/pkg/engine"
	"github.com/xhad/tier0/pkg/router"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// QueryResponse is the envelope every query endpoint returns.
type QueryResponse struct {
	Question  string      `json:"question"`
	Result    interface{} `json:"result"`
	Timestamp string      `json:"timestamp"`
	Source    string      `json:"source,omitempty"`
}

type Config struct {
	Host string
	Port int
	// Provider and CacheBackend identify the wired AI vendor and index
	// cache for /stats; "none" when not configured.
	Provider     string
	CacheBackend string
}

type Server struct {
	config  Config
	router  *router.Router
	engine  *engine.Engine
	domains Domains
	logger  *zap.Logger
}

// Domains holds the per-domain answerers for the explicit endpoints.
type Domains struct {
	Documents DomainFunc
	Logs      DomainFunc
	Images    DomainFunc
}

// DomainFunc answers one question within a single domain.
type DomainFunc func(ctx context.Context, question string) interface{}

func New(config Config, r *router.Router, e *engine.Engine, domains Domains, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{config: config, router: r, engine: e, domains: domains, logger: logger}
}

// ListenAndServe blocks serving HTTP until the listener fails or ctx is
// canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler builds the route table. Split out so tests can drive the
// server through httptest without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/query/documents", s.handleDomain(s.domains.Documents, "documents_vector_search"))
	mux.HandleFunc("/query/logs", s.handleDomain(s.domains.Logs, "postgresql_logs"))
	mux.HandleFunc("/query/images", s.handleDomain(s.domains.Images, "mongodb_images"))
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	provider := s.config.Provider
	if provider == "" {
		provider = "none"
	}
	cacheBackend := s.config.CacheBackend
	if cacheBackend == "" {
		cacheBackend = "none"
	}

	stats := map[string]interface{}{
		"documents_loaded":  s.engine.DocumentCount(),
		"index_ready":       s.engine.Ready(),
		"vector_index_size": s.engine.IndexSize(),
		"ai_provider":       provider,
		"ai_enabled":        provider != "none",
		"cache_backend":     cacheBackend,
		"endpoints": map[string]string{
			"unified":   "/query (auto-routes based on keywords)",
			"images":    "/query/images (MongoDB image metadata)",
			"documents": "/query/documents (vector search on reports)",
			"logs":      "/query/logs (PostgreSQL operational logs)",
		},
	}
	writeJSON(w, http.StatusOK, stats)
}

type queryRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	question, ok := s.readQuestion(w, r)
	if !ok {
		return
	}

	result := s.router.Answer(r.Context(), question)
	writeJSON(w, http.StatusOK, QueryResponse{
		Question:  question,
		Result:    result,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDomain(domain DomainFunc, source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question, ok := s.readQuestion(w, r)
		if !ok {
			return
		}

		result := domain(r.Context(), question)
		writeJSON(w, http.StatusOK, QueryResponse{
			Question:  question,
			Result:    result,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Source:    source,
		})
	}
}

func (s *Server) readQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	if req.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return "", false
	}
	return req.Question, true
}

// wsSession serializes writes to one connection: message handlers run
// concurrently but gorilla allows at most one concurrent writer.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsSession) writeJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := &wsSession{conn: conn}
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendMessage(session, "error", "invalid message")
			continue
		}

		go s.handleMessage(session, msg)
	}
}

func (s *Server) handleMessage(session *wsSession, msg Message) {
	if msg.Content == "" {
		s.sendMessage(session, "error", "question is required")
		return
	}

	result := s.router.Answer(context.Background(), msg.Content)
	reply := Message{Type: "response", Content: result.Answer, Data: result}
	if err := session.writeJSON(reply); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err))
	}
}

func (s *Server) sendMessage(session *wsSession, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := session.writeJSON(msg); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
