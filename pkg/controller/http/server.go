package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

// DefaultAllowedOrigins are the development front ends allowed by CORS
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}

type Server struct {
	router         *chi.Mux
	rpcHandler     http.Handler
	chatUC         ChatUseCase
	authUC         AuthUseCase
	allowedOrigins []string
}

type Options func(*Server)

func WithAuth(authUC AuthUseCase) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

// WithChat enables the streaming chat relay endpoint
func WithChat(chatUC ChatUseCase) Options {
	return func(s *Server) {
		s.chatUC = chatUC
	}
}

func WithAllowedOrigins(origins []string) Options {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func New(rpcHandler http.Handler, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		rpcHandler:     rpcHandler,
		allowedOrigins: DefaultAllowedOrigins,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", healthHandler)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.authUC))

		r.Handle("/api/trpc/{procedure}", s.rpcHandler)

		if s.chatUC != nil {
			r.Get("/api/chat", chatHandler(s.chatUC))
			r.Post("/api/chat", chatHandler(s.chatUC))
		}
	})

	// Auth endpoints (if auth is configured)
	if s.authUC != nil {
		r.Route("/api/auth", func(r chi.Router) {
			r.Get("/login", authLoginHandler(s.authUC))
			r.Get("/callback", authCallbackHandler(s.authUC))
			r.Post("/logout", authLogoutHandler(s.authUC))
			r.Get("/me", authMeHandler(s.authUC))
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(logging.With(r.Context(), logger)))
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
