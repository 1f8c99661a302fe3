package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type contextKeyViewerID struct{}

func withViewerID(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, contextKeyViewerID{}, viewerID)
}

// ViewerIDFromContext returns the id of the viewer the request was made by.
func ViewerIDFromContext(ctx context.Context) (string, bool) {
	viewerID, ok := ctx.Value(contextKeyViewerID{}).(string)
	if !ok || viewerID == "" {
		return "", false
	}

	return viewerID, true
}

// viewerMiddleware identifies the viewer by a cookie session, issuing a new viewer id on the
// first visit.
func (h *Handler) viewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionValueNotFoundError *SessionValueNotFoundError

		value, err := h.getSessionValue(r, viewerIDKey)
		if err != nil && !errors.As(err, &sessionValueNotFoundError) {
			slog.ErrorContext(
				r.Context(),
				"error on getting session value",
				"key",
				viewerIDKey,
				"error",
				err,
			)
			http.Error(w, "error on getting session value", http.StatusInternalServerError)

			return
		}

		viewerID, _ := value.(string)
		if viewerID == "" {
			viewerID = uuid.NewString()

			err = h.setSessionValue(w, r, viewerIDKey, viewerID)
			if err != nil {
				slog.ErrorContext(
					r.Context(),
					"error on setting session value",
					"key",
					viewerIDKey,
					"error",
					err,
				)
				http.Error(w, "error on setting session value", http.StatusInternalServerError)

				return
			}
		}

		r = r.WithContext(withViewerID(r.Context(), viewerID))

		next.ServeHTTP(w, r)
	})
}
