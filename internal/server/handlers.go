package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/keyforge/dispatch/internal/dispatch"
	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/jobs"
	"github.com/keyforge/dispatch/internal/layout"
	"github.com/keyforge/dispatch/internal/output"
	"github.com/keyforge/dispatch/internal/versions"
)

// RequestIDHeader carries the request id in every response.
const RequestIDHeader = "X-Request-Id"

// BuildRequest is the body of POST /.
type BuildRequest struct {
	Config json.RawMessage `json:"config"`
	Env    string          `json:"env"`
}

// BuildResponse is the body of a handled build.
type BuildResponse struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Jobs     int    `json:"jobs"`
	Building int    `json:"building"`
	Finished int    `json:"finished"`
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		logger := output.RequestLogger(id)
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		ctx := context.WithValue(r.Context(), loggerKey{}, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)

	var body BuildRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, oerrors.Wrapf(oerrors.ErrValidation, err, "decoding request"))
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, oerrors.Wrap(oerrors.ErrValidation, "decoding request: unexpected data after the request object"))
		return
	}
	if len(body.Config) == 0 {
		writeError(w, http.StatusBadRequest, oerrors.Wrap(oerrors.ErrValidation, "missing field `config`"))
		return
	}

	cfg, err := layout.Parse(body.Config)
	if err != nil {
		logger.Debug("rejected layout", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.builder.Build(r.Context(), dispatch.Request{
		Config: cfg,
		Raw:    body.Config,
		Env:    body.Env,
		Client: dispatch.Client{Addr: clientAddr(r), UserAgent: r.UserAgent()},
		Logger: logger,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, BuildResponse{Filename: res.Filename, Success: res.Success})
	case oerrors.IsClientError(err):
		logger.Debug("rejected build", "err", err)
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled):
		logger.Debug("client went away")
	default:
		logger.Error("build failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleVersions(w http.ResponseWriter, _ *http.Request) {
	out := map[string]versions.Channel{}
	for _, ch := range s.resolver.Channels() {
		out[ch.Name] = ch
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if s.layouts == nil {
		writeError(w, http.StatusNotFound, oerrors.Wrap(oerrors.ErrNotFound, "layouts are not served"))
		return
	}
	data, err := s.layouts.Read(r.PathValue("file"), r.URL.Query().Get("rev"))
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case errors.Is(err, oerrors.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, oerrors.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	default:
		requestLogger(r).Error("reading layout", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.jobs != nil {
		resp.Jobs = s.jobs.Len()
		counts := s.jobs.Counts()
		resp.Building = counts[jobs.Building]
		resp.Finished = counts[jobs.Finished]
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		output.Debug("writing response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// clientAddr prefers the first X-Forwarded-For hop over the socket peer.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
