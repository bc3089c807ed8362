package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nao1215/wavebot/internal/database"
	"github.com/nao1215/wavebot/internal/dispatch"
	"github.com/nao1215/wavebot/internal/model"
	"github.com/nao1215/wavebot/internal/slackbot"
)

const (
	// DefaultCommand is the slash command the server answers to.
	DefaultCommand = "/wave"

	// DefaultShutdownTimeout bounds the graceful shutdown in Run.
	DefaultShutdownTimeout = 30 * time.Second

	// maxFormSize limits the body of the configuration form.
	maxFormSize = 16 * 1024
)

// ErrMissingDependency is returned by New when a required dependency is nil.
var ErrMissingDependency = errors.New("server: missing dependency")

//go:embed templates/*.html
var templateFS embed.FS

// Scanner runs WAVE accessibility scans.
type Scanner interface {
	Scan(ctx context.Context, apiKey, target string, tier model.Tier) (*model.AccessibilityReport, error)
}

// Formatter turns a report into Slack mrkdwn.
type Formatter interface {
	Format(tier model.Tier, url string, report *model.AccessibilityReport) (string, error)
}

// Responder posts delayed replies to a slash command's response_url.
type Responder interface {
	Respond(ctx context.Context, responseURL string, msg slackbot.Message) error
}

// Installer runs the OAuth v2 install flow.
type Installer interface {
	InstallURL(state string) string
	NewState() string
	VerifyState(state string) error
	Complete(ctx context.Context, code string) (*model.Installation, error)
	ConfigToken(teamID string) string
	VerifyConfigToken(teamID, token string) error
}

// Dispatcher runs slash command jobs in the background.
type Dispatcher interface {
	Submit(name string, job dispatch.Job) (string, error)
	Shutdown(ctx context.Context) error
}

// Deps are the collaborators the server delegates to. All are required.
type Deps struct {
	Store      database.Store
	Scanner    Scanner
	Formatter  Formatter
	Responder  Responder
	Installer  Installer
	Dispatcher Dispatcher
}

// Server serves the wavebot HTTP endpoints.
type Server struct {
	deps            Deps
	verifier        *slackbot.Verifier
	command         string
	shutdownTimeout time.Duration
	logger          *slog.Logger
	templates       *template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithCommand sets the slash command name, e.g. "/wave".
func WithCommand(command string) Option {
	return func(s *Server) {
		if command != "" {
			s.command = command
		}
	}
}

// WithVerifier sets the Slack request signature verifier.
// Without one, slash command requests are not verified.
func WithVerifier(v *slackbot.Verifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight work.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server. Every field of deps must be set.
func New(deps Deps, opts ...Option) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case deps.Scanner == nil:
		return nil, fmt.Errorf("%w: scanner", ErrMissingDependency)
	case deps.Formatter == nil:
		return nil, fmt.Errorf("%w: formatter", ErrMissingDependency)
	case deps.Responder == nil:
		return nil, fmt.Errorf("%w: responder", ErrMissingDependency)
	case deps.Installer == nil:
		return nil, fmt.Errorf("%w: installer", ErrMissingDependency)
	case deps.Dispatcher == nil:
		return nil, fmt.Errorf("%w: dispatcher", ErrMissingDependency)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		deps:            deps,
		verifier:        slackbot.NewVerifier(""),
		command:         DefaultCommand,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.New(slog.DiscardHandler),
		templates:       tmpl,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.verifier.Enabled() {
		s.logger.Warn("slack signing secret not set, slash command requests are not verified")
	}

	return s, nil
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /slack/install", s.handleInstall)
	mux.HandleFunc("GET /slack/oauth_redirect", s.handleOAuthRedirect)
	mux.HandleFunc("GET /config", s.handleConfigForm)
	mux.HandleFunc("POST /config", s.handleConfigSubmit)
	mux.HandleFunc("POST /slack/events", s.handleCommand)

	return s.logRequests(mux)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully:
// the listener is closed first and the dispatcher is drained afterwards so
// queued scans can still post their results.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("server listening", "addr", ln.Addr().String(), "command", s.command)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.deps.Dispatcher.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("dispatcher shutdown: %w", err))
	}
	if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs one line per request. Query strings are left out
// because they carry OAuth codes and states.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
