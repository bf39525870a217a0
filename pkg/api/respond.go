package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/pipegraph/pkg/engine"
	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
)

// codeSuperseded is reported for layouts replaced by a newer request.
const codeSuperseded errors.Code = "SUPERSEDED"

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes the error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, errors.GetCode(err)
	switch {
	case stderrors.Is(err, engine.ErrSuperseded):
		status, code = http.StatusConflict, codeSuperseded
	case errors.IsInvalid(err):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case code == errors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// graphRequest is embedded by requests that carry a graph.
type graphRequest struct {
	Graph graph.Graph `json:"graph"`
}

// prepared validates the graph and migrates legacy group fields.
func (g graphRequest) prepared() (graph.Graph, error) {
	if err := graph.Validate(g.Graph); err != nil {
		return graph.Graph{}, err
	}
	return graph.Normalize(g.Graph), nil
}
