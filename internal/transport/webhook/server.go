package webhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"songbot/internal/queue"
)

// Server receives Telegram webhook calls and feeds them into the update
// queue. The update path embeds the bot token; requests with any other path
// are rejected before the body is touched.
type Server struct {
	token   string
	updates *queue.Queue
	logger  *zap.Logger
	httpSrv *http.Server
}

// NewServer wires the health and webhook routes.
func NewServer(addr, token string, updates *queue.Queue, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		token:   token,
		updates: updates,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /{token}", s.handleUpdate)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.recoverWrap(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler exposes the route tree.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !hmac.Equal([]byte(r.PathValue("token")), []byte(s.token)) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("bad update payload", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.updates.Enqueue(update); err != nil {
		s.logger.Warn("update dropped", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}

	writeOK(w)
}

func (s *Server) recoverWrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}
