// Package api exposes the dose-response computation over HTTP. It is a
// thin presentation adapter: payload shape checks, worker-pool dispatch,
// and serialization around the pure dose package.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dosecurve/dosecurve/pkg/dose"
	"github.com/dosecurve/dosecurve/pkg/export"
	"github.com/dosecurve/dosecurve/pkg/lib"
)

type Server struct {
	logger  *zerolog.Logger
	config  *Config
	fitPool pond.Pool
	http    http.Server
}

func NewServer(logger *zerolog.Logger, config *Config) *Server {
	mux := http.NewServeMux()

	server := &Server{
		logger:  logger,
		config:  config,
		fitPool: pond.NewPool(config.MaxFitConcurrency),
		http: http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler: corsMiddleware(mux, config.CORSOrigin),
		},
	}

	mux.HandleFunc("POST /api/v1/compute", server.Compute)
	mux.HandleFunc("POST /api/v1/compute/chart", server.ComputeChart)
	mux.HandleFunc("GET /healthz", server.Health)

	return server
}

func corsMiddleware(next http.Handler, originConfig string) http.Handler {
	origins := strings.Split(originConfig, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestOrigin := r.Header.Get("Origin")

		if len(origins) == 1 && origins[0] == "*" {
			// Allow all origins
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if requestOrigin != "" && slices.Contains(origins, requestOrigin) {
			// CORS doesn't support multiple origins,
			// so we either set the origin in the header or not at all.
			w.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	return s.http.Close()
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	s.serializeRes(w, map[string]string{"status": "ok"})
}

func (s *Server) Compute(w http.ResponseWriter, r *http.Request) {
	req, logger, ok := s.acceptCompute(w, r)
	if !ok {
		return
	}

	res, err := s.runFit(r.Context(), deserializeInput(req))
	if err != nil {
		s.fitFailure(w, logger, err)
		return
	}

	var curve []dose.Point
	if req.Curve {
		curve = dose.CurvePoints(res.Params, res.MinConc, res.MaxConc, dose.DefaultSampleOptions())
	}

	logger.Info().
		Float64("ic50", res.Params.IC50).
		Bool("in_range", res.InRange).
		Msg("fit computed")

	s.serializeRes(w, serializeResult(res, curve))
}

func (s *Server) ComputeChart(w http.ResponseWriter, r *http.Request) {
	req, logger, ok := s.acceptCompute(w, r)
	if !ok {
		return
	}

	res, err := s.runFit(r.Context(), deserializeInput(req))
	if err != nil {
		s.fitFailure(w, logger, err)
		return
	}

	curve := dose.CurvePoints(res.Params, res.MinConc, res.MaxConc, dose.DefaultSampleOptions())
	img, err := export.PNG(res, curve)
	if err != nil {
		s.internalError(w, &logger, err, "render chart")
		return
	}

	logger.Info().Float64("ic50", res.Params.IC50).Int("bytes", len(img)).Msg("chart rendered")

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(img); err != nil {
		logger.Error().Err(err).Msg("response write error")
	}
}

// acceptCompute deserializes and shape-validates a compute payload, and
// builds the request-scoped logger.
func (s *Server) acceptCompute(w http.ResponseWriter, r *http.Request) (ComputeRequest, zerolog.Logger, bool) {
	logger := s.logger.With().Str("request_id", uuid.New().String()).Logger()

	var req ComputeRequest
	if err := deserializeReq(r, &req); err != nil {
		s.badRequest(w, &logger, err, "deserialize request")
		return ComputeRequest{}, logger, false
	}

	if err := lib.ValidateStruct(&req); err != nil {
		s.badRequest(w, &logger, err, "validate request")
		return ComputeRequest{}, logger, false
	}
	if len(req.Replicates) != len(req.Concentrations) {
		err := fmt.Errorf("%d concentrations but %d replicate rows", len(req.Concentrations), len(req.Replicates))
		s.badRequest(w, &logger, err, "validate request")
		return ComputeRequest{}, logger, false
	}

	return req, logger, true
}

// runFit executes one fit on the bounded worker pool, honoring the
// per-request timeout. The dose package has no cancellation hook, so on
// timeout the task is abandoned to finish in the background.
func (s *Server) runFit(ctx context.Context, in dose.Input) (*dose.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.FitTimeout)
	defer cancel()

	var (
		res *dose.Result
		err error
	)
	done := make(chan struct{})
	s.fitPool.Submit(func() {
		defer close(done)
		res, err = dose.Compute(in, dose.DefaultFitOptions())
	})

	select {
	case <-done:
		return res, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) fitFailure(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, dose.ErrValidation):
		s.badRequest(w, &logger, err, "validate measurements")
	case errors.Is(err, dose.ErrFit):
		// Structurally fine input, untrustworthy fit: the caller should
		// adjust the data or bounds, not retry as-is.
		logger.Warn().Err(err).Msg("fit not trustworthy")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Msg("fit timed out")
		http.Error(w, "fit timed out", http.StatusServiceUnavailable)
	default:
		s.internalError(w, &logger, err, "compute fit")
	}
}

func deserializeReq[Req any](r *http.Request, req *Req) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" {
		return fmt.Errorf("unsupported content type: %s", contentType)
	}

	reqBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	err = json.Unmarshal(reqBytes, req)
	if err != nil {
		return fmt.Errorf("deserialize request body: %w", err)
	}

	return nil
}

func (s *Server) serializeRes(w http.ResponseWriter, res any) {
	w.Header().Add("Content-Type", "application/json")

	if res == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	err := json.NewEncoder(w).Encode(res)
	if err != nil {
		s.logger.Err(err).Msg("serialize response")
	}
}

func (s *Server) internalError(w http.ResponseWriter, logger *zerolog.Logger, err error, msg string) {
	logger.Err(err).Msg(msg)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) badRequest(w http.ResponseWriter, logger *zerolog.Logger, err error, msg string) {
	logger.Err(err).Msg(msg)
	http.Error(w, err.Error(), http.StatusBadRequest)
}
