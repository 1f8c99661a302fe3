package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const viewerIDKey = "viewerId"

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key '%s' not found", err.Key)
}

func (h *Handler) getSessionValue(r *http.Request, key string) (any, error) {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil && !isUndecodableSession(session) {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	value, ok := session.Values[key]
	if !ok {
		return nil, &SessionValueNotFoundError{Key: key}
	}

	return value, nil
}

func (h *Handler) setSessionValue(w http.ResponseWriter, r *http.Request, key string, value any) error {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil && !isUndecodableSession(session) {
		return fmt.Errorf("error getting session: %w", err)
	}

	session.Values[key] = value

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}

// isUndecodableSession reports whether the store replaced a cookie it could not decode, for
// example one signed with a previous session key, by a fresh session.
func isUndecodableSession(session *sessions.Session) bool {
	return session != nil && session.IsNew
}
