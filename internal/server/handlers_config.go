package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/filestore"
)

// StatusResponse reports the lifecycle state of the backend connection.
type StatusResponse struct {
	State string `json:"state"`
}

// ConfigUpdateResponse is returned by a successful configuration update.
type ConfigUpdateResponse struct {
	Message string           `json:"message"`
	Config  filestore.Config `json:"config"`
}

func decodeConfig(r *http.Request) (filestore.Config, error) {
	var cfg filestore.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		return cfg, errs.Wrap(errs.ErrKindInvalidInput, "malformed configuration", err)
	}
	if cfg.AddressingStyle == "" {
		cfg.AddressingStyle = filestore.AddressingPath
	}
	return cfg, nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.gw.Current()
	if err != nil {
		HandleError(s.requestLog(r), w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)

	cfg, err := decodeConfig(r)
	if err != nil {
		HandleError(log, w, err)
		return
	}

	if err := s.gw.Replace(r.Context(), cfg); err != nil {
		HandleError(log, w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, ConfigUpdateResponse{
		Message: "Configuration updated successfully",
		Config:  cfg.Masked(),
	})
}

func (s *Server) handleTestConfig(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)

	cfg, err := decodeConfig(r)
	if err != nil {
		HandleError(log, w, err)
		return
	}

	if err := s.gw.Test(r.Context(), cfg); err != nil {
		HandleError(log, w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "Configuration is valid and connection successful"})
}

func (s *Server) handleConfigStatus(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, StatusResponse{State: s.gw.State().String()})
}
