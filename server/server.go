package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cameronmore/session-gate/auth"
	"github.com/cameronmore/session-gate/config"
	"github.com/cameronmore/session-gate/sessions"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

// Server wires the credential table, the session store and the HTTP handlers together.
type Server struct {
	config  config.Config
	store   sessions.SessionStore
	auth    *auth.AuthContext
	limiter *rateLimiter
	router  chi.Router
}

func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("[server New] invalid config: %w", err)
	}

	credentials, err := auth.NewMemoryCredentialStore(cfg.Users, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("[server New] building credential store: %w", err)
	}

	store, err := newSessionStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("[server New] opening session store: %w", err)
	}

	if cfg.Secret == config.DefaultSecret {
		log.Warn().Msg("using the built-in development session secret")
	}

	authenticator := auth.NewAuthenticator(credentials, store, cfg.SessionTTL)
	s := &Server{
		config: cfg,
		store:  store,
		auth:   auth.NewAuthContext(authenticator, cfg.Secret, cfg.CookieSecure, cfg.RememberUser),
	}
	if cfg.LoginRate > 0 {
		s.limiter = newRateLimiter(rate.Limit(cfg.LoginRate/60), cfg.LoginBurst)
	}
	s.router = s.routes()

	log.Info().
		Str("store", cfg.Store).
		Strs("users", cfg.Usernames()).
		Dur("session_ttl", cfg.SessionTTL).
		Msg("server configured")
	return s, nil
}

func newSessionStore(ctx context.Context, cfg config.Config) (sessions.SessionStore, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return auth.OpenSQLiteSessionStore(ctx, cfg.SQLiteDSN)
	case config.StoreMemory:
		return sessions.NewMemorySessionStore(), nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Store, config.ErrUnknownStore)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	if s.config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(frameSecurity)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, auth.WelcomePath, http.StatusFound)
	})

	r.Get(auth.LoginPath, s.auth.LoginPageHandler)
	r.With(s.throttleLogin).Post(auth.LoginPath, s.auth.LoginHandler)
	r.Get(auth.LogoutPath, s.auth.LogoutHandler)

	// protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireSession)
		r.Get(auth.WelcomePath, s.auth.WelcomeHandler)
	})

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.janitor(janitorCtx, s.config.CleanupInterval)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return s.Close()
}

// Close releases the session store when it holds resources.
func (s *Server) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// janitor drops expired sessions and idle rate limiter entries every interval.
func (s *Server) janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Server) sweep(ctx context.Context, now time.Time) {
	n, err := s.store.PurgeExpired(ctx, now)
	if err != nil {
		log.Err(err).Msg("purging expired sessions")
	} else if n > 0 {
		log.Debug().Int("purged", n).Msg("expired sessions removed")
	}
	if s.limiter != nil {
		s.limiter.prune(now.Add(-time.Hour))
	}
}
