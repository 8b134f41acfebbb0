package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/secret-tech/aag-backend-go/internal/config"
	"github.com/secret-tech/aag-backend-go/internal/security"
	"github.com/secret-tech/aag-backend-go/internal/service"
)

// NewRouter constructs the HTTP router: health endpoints, the realtime
// gateway and a small read-only REST projection of the chat data.
func NewRouter(
	cfg *config.Config,
	log *zap.SugaredLogger,
	tokens *security.TokenService,
	users *service.UserService,
	chats *service.ChatService,
	gateway http.HandlerFunc,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"aag realtime API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(AuthMiddleware(tokens, users))

		r.Get("/conversations", handleListConversations(chats))
		r.Get("/conversations/{conversationID}/messages", handleListMessages(chats))
	})

	// realtime endpoint: authentication happens inside the gateway,
	// before the websocket upgrade
	r.Get("/ws", gateway)

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
