package server

import (
	"net/http"
	"strings"

	"github.com/koustreak/s3gate/internal/auth"
	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/logger"
)

// TokenValidator reports whether a bearer token is acceptable and, if so,
// whose it is. *auth.TokenService implements it.
type TokenValidator interface {
	Validate(token string) (string, bool)
}

// AccessControl rejects any request without a valid "Bearer <token>"
// Authorization header before it reaches next. Accepted requests carry the
// token subject in their context (see auth.SubjectFromContext).
func AccessControl(tokens TokenValidator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(log, w, "missing or malformed bearer token")
				return
			}

			subject, ok := tokens.Validate(token)
			if !ok {
				unauthorized(log, w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), subject)))
		})
	}
}

func unauthorized(log *logger.Logger, w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="s3gate"`)
	HandleError(log, w, errs.New(errs.ErrKindAuthentication, msg))
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively; the token must be a single
// non-empty word.
func bearerToken(header string) (string, bool) {
	const scheme = "bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	token := strings.TrimSpace(header[len(scheme):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
