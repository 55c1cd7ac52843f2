// Package server is the demo HTTP entry point. It sends the configured
// request plan and redirects the browser to the consent page when the
// integration has not been authorized yet.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aaronwds/docusign-jwt/internal/auth"
	"github.com/aaronwds/docusign-jwt/internal/config"
	"github.com/aaronwds/docusign-jwt/internal/connect"
	"github.com/aaronwds/docusign-jwt/internal/signing"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	shutdownTimeout = 10 * time.Second
	maxConnectBody  = 1 << 20
)

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	auth   *auth.Authenticator
	router chi.Router
}

func New(cfg *config.Config, logger *slog.Logger, authenticator *auth.Authenticator) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		auth:   authenticator,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/consent", s.handleConsent)
	s.router.Get("/send", s.handleSend)
	s.router.Post("/envelopes", s.handleSend)
	s.router.With(middleware.RequestSize(maxConnectBody)).Post("/connect", s.handleConnect)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	consentURL, err := auth.ConsentURL(s.cfg.Credentials())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, consentURL, http.StatusFound)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	plan, err := config.LoadPlan(s.cfg.PlanPath)
	if err != nil {
		s.logger.Error("failed to load request plan", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	res, err := signing.Run(r.Context(), s.auth, s.cfg.Credentials(), plan.Envelope(), signing.WithBasePath(s.cfg.BasePath))
	if err != nil {
		s.logger.Error("failed to send envelope", slog.Any("error", err))
		writeError(w, statusFor(err), err)
		return
	}

	if res.Consent != nil {
		s.logger.Warn("consent required, redirecting", slog.String("url", res.Consent.URL))
		http.Redirect(w, r, res.Consent.URL, http.StatusFound)
		return
	}

	s.logger.Info("envelope sent", slog.String("envelope_id", res.EnvelopeID), slog.String("account_id", res.AccountID))
	writeJSON(w, http.StatusCreated, map[string]string{"envelope_id": res.EnvelopeID})
}

type connectEvent struct {
	Event string `json:"event"`
	Data  struct {
		EnvelopeID string `json:"envelopeId"`
	} `json:"data"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	payload, err := connect.VerifyRequest(r, s.cfg.ConnectHMACKeys...)
	if err != nil {
		s.logger.Warn("rejected connect delivery", slog.Any("error", err))
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	var ev connectEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.logger.Info("connect event", slog.String("event", ev.Event), slog.String("envelope_id", ev.Data.EnvelopeID))
	w.WriteHeader(http.StatusOK)
}

// statusFor maps a flow error to the response status. Local problems are
// ours; everything else came back from DocuSign.
func statusFor(err error) int {
	var (
		credErr *auth.CredentialError
		readErr *signing.DocumentReadError
	)
	if errors.As(err, &credErr) || errors.As(err, &readErr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
