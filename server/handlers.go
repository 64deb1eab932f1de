package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/pkg/analyzer"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

// jsonResponse encodes before writing headers so an encoding failure still yields a 500.
func jsonResponse(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorBody{Error: fmt.Sprintf("failed to encode response: %v", err)})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	resp, err := s.analyzer.Analyze(ctx, req, nil)
	if err != nil {
		s.log.Error("analysis failed", zap.String("target", req.MyURL), zap.Error(err))
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) decodeRequest(body io.Reader) (models.AnalysisRequest, error) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	req.MyURL = strings.TrimSpace(req.MyURL)

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return req, fmt.Errorf("invalid request: %s", strings.Join(fields, "; "))
		}
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

// statusFor maps analysis errors to HTTP codes. A deadline wins over the target
// failure that wraps it.
func statusFor(err error) int {
	var targetErr *analyzer.TargetError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &targetErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
