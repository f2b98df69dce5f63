package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/koustreak/s3gate/internal/errs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ValidateResponse is returned by the token validation endpoint.
type ValidateResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleError(log, w, errs.Wrap(errs.ErrKindInvalidInput, "malformed login request", err))
		return
	}
	if err := validate.Struct(&req); err != nil {
		HandleError(log, w, errs.InvalidInput("", "username and password are required"))
		return
	}

	if err := s.creds.Authenticate(req.Username, req.Password); err != nil {
		log.WarnWith("login failed", nil, map[string]interface{}{"username": req.Username, "remote": r.RemoteAddr})
		HandleError(log, w, err)
		return
	}

	tok, err := s.tokens.Issue(req.Username)
	if err != nil {
		HandleError(log, w, err)
		return
	}

	log.InfoWith("user authenticated", map[string]interface{}{"username": req.Username})
	_ = WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     tok.Value,
		Type:      "Bearer",
		Username:  req.Username,
		ExpiresAt: tok.ExpiresAt,
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if ok {
		if subject, valid := s.tokens.Validate(token); valid {
			_ = WriteJSON(w, http.StatusOK, ValidateResponse{Valid: true, Username: subject})
			return
		}
	}
	unauthorized(s.requestLog(r), w, "invalid token")
}

// handleLogout exists for clients that expect it. Tokens are stateless and
// stay valid until they expire.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.requestLog(r).Debug("logout requested")
	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
