package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/service"
)

// renderParams lists the query parameters /render accepts. Each maps to the
// command-line flag of the same name.
var renderParams = []string{
	"fractal", "min", "max", "re", "im", "size", "width", "height",
	"multiplier", "chunks", "workers", "seed", "boundary", "frames",
	"repeat", "reference-frame", "palette", "save-images",
}

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleFractals returns the registered fractal presets.
func (s *Server) handleFractals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"fractals": s.service.Fractals(),
	}
	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleRender calculates the frames described by the query parameters and
// returns their summaries. Parameters not given are taken from the fractal
// preset, exactly as on the command line.
//
// Parameters:
//   - w: The HTTP response writer.
//   - r: The HTTP request.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg, err := s.parseRenderParams(r)
	if err != nil {
		var parseErr RenderParseError
		if errors.As(err, &parseErr) {
			s.writeErrorResponse(w, parseErr.StatusCode, parseErr.Message)
		} else {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	resp, err := s.service.Render(ctx, cfg)
	if err != nil {
		status, message := renderErrorStatus(err, s.service.Limits())
		s.writeErrorResponse(w, status, message)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// parseRenderParams turns the query string into a validated configuration,
// reusing the command-line parser so both surfaces share presets, defaults
// and validation.
func (s *Server) parseRenderParams(r *http.Request) (config.AppConfig, error) {
	query := r.URL.Query()
	args := make([]string, 0, 2*len(query)+1)
	for key := range query {
		if !slices.Contains(renderParams, key) {
			return config.AppConfig{}, RenderParseError{
				Message:    fmt.Sprintf("Unknown parameter '%s'", key),
				StatusCode: http.StatusBadRequest,
			}
		}
	}
	for _, key := range renderParams {
		if query.Has(key) {
			args = append(args, "-"+key+"="+query.Get(key))
		}
	}
	if !query.Has("workers") && s.cfg.Workers > 0 {
		args = append(args, "-workers="+strconv.Itoa(s.cfg.Workers))
	}

	cfg, err := config.ParseConfig("render", args, io.Discard, s.presets)
	if err != nil {
		return config.AppConfig{}, RenderParseError{
			Message:    "Invalid parameters: " + err.Error(),
			StatusCode: http.StatusBadRequest,
		}
	}
	return cfg, nil
}

// renderErrorStatus maps a render failure to an HTTP status and message.
func renderErrorStatus(err error, limits service.Limits) (int, string) {
	var cfgErr apperrors.ConfigError
	var valErr apperrors.ValidationError
	switch {
	case errors.Is(err, service.ErrLimitExceeded) && errors.As(err, &valErr):
		return http.StatusBadRequest, fmt.Sprintf(
			"Request exceeds the render limits: %s is %v, %s.", valErr.Field, valErr.Value, valErr.Message)
	case errors.Is(err, service.ErrLimitExceeded):
		return http.StatusBadRequest, fmt.Sprintf(
			"Request exceeds the render limits (max %d pixels, %d iterations, %d frames).",
			limits.MaxPixels, limits.MaxIterations, limits.MaxFrames)
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, cfgErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Render did not finish within the request timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Render canceled"
	}
	return http.StatusInternalServerError, err.Error()
}

// writeJSONResponse writes data as JSON with the correct content type.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	errResp := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	s.writeJSONResponse(w, statusCode, errResp)
}
