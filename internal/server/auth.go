package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"issuesync/internal/auth"
)

func (s *Server) authRequired() bool {
	return s.apiToken != "" || s.apiTokenHash != ""
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authRequired() || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r)
		now := time.Now()
		if s.authLimiter.Blocked(key, now) {
			err := makeAPIError(http.StatusTooManyRequests, "resource_exhausted", ErrCodeResourceExhausted, fmt.Errorf("too many failed auth attempts"))
			s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
			return
		}

		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok || !s.tokenAccepted(token) {
			s.authLimiter.Fail(key, now)
			err := makeAPIError(http.StatusUnauthorized, "unauthorized", ErrCodeUnauthorized, fmt.Errorf("unauthorized"))
			s.writeErrorReq(w, r, http.StatusUnauthorized, err)
			return
		}
		s.authLimiter.Reset(key)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) tokenAccepted(token string) bool {
	if s.apiToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) == 1 {
		return true
	}
	return s.apiTokenHash != "" && auth.VerifyToken(s.apiTokenHash, token)
}
