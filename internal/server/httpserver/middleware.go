package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// authMiddleware validates the Bearer token and stores the authenticated
// user ID in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AccessTokenHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, []byte(s.cfg.SecretKey))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID returns the authenticated user set by authMiddleware.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
