package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/secret-tech/aag-backend-go/internal/domain"
	"github.com/secret-tech/aag-backend-go/internal/service"
)

// handleListConversations returns the caller's conversation previews, the
// same projection the realtime channel pushes as the `conversations` event.
func handleListConversations(chats *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		previews, err := chats.ListConversations(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, previews)
	}
}

// handleListMessages returns one page of history, newest first. The
// optional ?before=<timestamp> cursor pages backwards.
func handleListMessages(chats *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		conversationID := chi.URLParam(r, "conversationID")

		// only participants may read history
		if _, err := domain.Counterpart(user.ID, conversationID); err != nil {
			writeError(w, err)
			return
		}

		var before *int64
		if raw := r.URL.Query().Get("before"); raw != "" {
			ts, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "before must be a unix millisecond timestamp", http.StatusBadRequest)
				return
			}
			before = &ts
		}

		msgs, err := chats.FetchMessages(r.Context(), conversationID, before)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrConversationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAuthenticationFailed):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
