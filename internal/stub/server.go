// Package stub is an in-memory implementation of the whatsthat backend.
// It serves the REST contract the client speaks and is used by tests and for local development.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/putto11262002/whatsthat/core"
	"github.com/putto11262002/whatsthat/pkg/router"
)

// BasePath is the prefix of every route.
const BasePath = "/api/1.0.0"

const authHeader = "X-Authorization"

type Server struct {
	store          *Store
	secret         []byte
	tokenTTL       time.Duration
	allowedOrigins []string
	logger         *slog.Logger
	router         *router.Router
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func New(store *Store, opts ...Option) *Server {
	s := &Server{
		store:          store,
		secret:         []byte("whatsthat"),
		tokenTTL:       24 * time.Hour,
		allowedOrigins: []string{"*"},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func kindMapper(code int) router.ErrorMapper {
	return func(err error) router.JsonError {
		return router.NewJsonError(code, err.Error())
	}
}

func (s *Server) routes() {
	s.router = router.New(router.WithLogger(s.logger))
	s.router.RegisterErrorMapper(core.ErrValidation, kindMapper(http.StatusBadRequest))
	s.router.RegisterErrorMapper(core.ErrBadRequest, kindMapper(http.StatusBadRequest))
	s.router.RegisterErrorMapper(core.ErrUnauthorized, kindMapper(http.StatusUnauthorized))
	s.router.RegisterErrorMapper(core.ErrForbidden, kindMapper(http.StatusForbidden))
	s.router.RegisterErrorMapper(core.ErrNotFound, kindMapper(http.StatusNotFound))

	s.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", authHeader, "X-Request-ID"},
	}))

	s.router.Route(BasePath, func(r *router.Router) {
		r.Post("/login", s.loginHandler)
		r.Post("/user", s.registerHandler)

		r.Group(func(r *router.Router) {
			r.Use(s.authMiddleware)
			r.Post("/logout", s.logoutHandler)

			r.Get("/chat", s.listChatsHandler)
			r.Post("/chat", s.createChatHandler)
			r.Get("/chat/{chatID}", s.getChatHandler)
			r.Patch("/chat/{chatID}", s.renameChatHandler)
			r.Post("/chat/{chatID}/message", s.sendMessageHandler)
			r.Patch("/chat/{chatID}/message/{messageID}", s.updateMessageHandler)
			r.Delete("/chat/{chatID}/message/{messageID}", s.deleteMessageHandler)
			r.Post("/chat/{chatID}/user/{userID}", s.addMemberHandler)
			r.Delete("/chat/{chatID}/user/{userID}", s.removeMemberHandler)

			r.Get("/contacts", s.listContactsHandler)
			r.Get("/blocked", s.listBlockedHandler)
			r.Get("/search", s.searchHandler)
			r.Post("/user/{userID}/contact", s.addContactHandler)
			r.Delete("/user/{userID}/contact", s.removeContactHandler)
			r.Post("/user/{userID}/block", s.blockHandler)
			r.Delete("/user/{userID}/block", s.unblockHandler)

			r.Get("/user/{userID}", s.getUserHandler)
			r.Patch("/user/{userID}", s.updateUserHandler)
			r.Post("/user/{userID}/photo", s.uploadPhotoHandler)
			r.Get("/user/{userID}/photo", s.getPhotoHandler)
		})
	})
}

type sessionKey struct{}

type session struct {
	userID  int
	tokenID string
}

// sessionFromRequest returns the session attached by authMiddleware.
// It panics on routes that are not protected by authMiddleware.
func sessionFromRequest(r *http.Request) session {
	sess, ok := r.Context().Value(sessionKey{}).(session)
	if !ok {
		panic("session not found in request context: call this function in handlers that are protected by authMiddleware")
	}
	return sess
}

func (s *Server) authMiddleware(next http.Handler) router.HandlerFunc {
	authErr := router.NewJsonError(http.StatusUnauthorized, "unauthorised")

	return func(w http.ResponseWriter, r *http.Request) error {
		token := r.Header.Get(authHeader)
		if token == "" {
			return authErr
		}
		claims, err := VerifyToken(token, s.secret)
		if err != nil {
			return authErr
		}
		if s.store.Revoked(claims.ID) {
			return authErr
		}
		if _, err := s.store.User(claims.UserID); err != nil {
			return authErr
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, session{userID: claims.UserID, tokenID: claims.ID})
		next.ServeHTTP(w, r.WithContext(ctx))
		return nil
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, router.NewJsonError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

func writeText(w http.ResponseWriter, text string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(text))
	return err
}
