package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// envelope is the uniform response shape for every endpoint. The HTTP status
// line always mirrors Code.
type envelope struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"requestId"`
}

func (s *Server) writeEnvelope(w http.ResponseWriter, requestID string, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	body := envelope{Code: code, Message: message, Data: data, RequestID: requestID}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (s *Server) writeOK(w http.ResponseWriter, requestID string, data interface{}) {
	s.writeEnvelope(w, requestID, http.StatusOK, "success", data)
}

func (s *Server) writeError(w http.ResponseWriter, requestID string, code int, message string) {
	s.writeEnvelope(w, requestID, code, message, nil)
}
