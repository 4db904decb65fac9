package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server wires the repository, auth and websocket hub behind a router.
type Server struct {
	cfg  Config
	db   *DB
	auth *Auth
	hub  *Hub
	log  *log.Logger
}

// New opens the database and builds a Server. Close releases it.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ttl, _ := cfg.TokenTTL()
	db, err := OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:  cfg,
		db:   db,
		auth: NewAuth(cfg.Auth.Secret, ttl),
		hub:  NewHub(logger),
		log:  logger,
	}
	go s.hub.Run()
	return s, nil
}

// Auth returns the token authority, used to mint tokens for users.
func (s *Server) Auth() *Auth { return s.auth }

// Close stops the hub and closes the database.
func (s *Server) Close() error {
	s.hub.Stop()
	return s.db.Close()
}

// Router returns the API routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	if s.cfg.Prefix != "" {
		api = r.PathPrefix(s.cfg.Prefix).Subrouter()
	}
	api.Use(s.auth.Middleware)
	api.HandleFunc("/boards", s.listBoards).Methods(http.MethodGet)
	api.HandleFunc("/boards", s.createBoard).Methods(http.MethodPost)
	api.HandleFunc("/boards/{id}/archive", s.archiveBoard(true)).Methods(http.MethodPatch, http.MethodPut)
	api.HandleFunc("/boards/{id}/restore", s.archiveBoard(false)).Methods(http.MethodPatch, http.MethodPut)
	api.HandleFunc("/boards/{id}", s.deleteBoard).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{boardId}", s.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.updateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/pin", s.togglePin).Methods(http.MethodPatch)
	api.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)
	return r
}

// Handler returns the router wrapped in CORS, access logging and panic
// recovery.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})
	var h http.Handler = c.Handler(s.Router())
	h = handlers.CustomLoggingHandler(io.Discard, h, s.accessLog)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.log}), handlers.PrintRecoveryStack(false))(h)
	return h
}

func (s *Server) accessLog(_ io.Writer, p handlers.LogFormatterParams) {
	s.log.Info("request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"request_id", p.Request.Header.Get("X-Request-ID"),
		"elapsed", time.Since(p.TimeStamp))
}

type recoveryLogger struct{ log *log.Logger }

func (l recoveryLogger) Println(v ...any) { l.log.Error("panic", "err", fmt.Sprint(v...)) }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.cfg.Addr, "driver", s.cfg.Database.Driver)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}
