package portal

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/identity"
	"github.com/sensdot/sensdot/internal/logging"
	"github.com/sensdot/sensdot/internal/netconn"
)

// shutdownGrace bounds the drain of in-flight requests when the portal
// ends
const shutdownGrace = 5 * time.Second

// Committer persists a validated configuration record
type Committer interface {
	Commit(cfg *configstore.DeviceConfig) error
}

// Scanner lists nearby WiFi networks for the SSID picker
type Scanner interface {
	Scan(ctx context.Context) ([]netconn.Network, error)
}

// Portal is the configuration-mode HTTP server
type Portal struct {
	id      identity.Identity
	store   Committer
	scanner Scanner
	listen  string
	version string

	hub *hub

	commitOnce sync.Once
	committed  chan struct{}
}

// New builds a portal. listen is the profile's portal address, normally
// ":80" on the AP interface.
func New(id identity.Identity, store Committer, scanner Scanner, listen, version string) *Portal {
	return &Portal{
		id:        id,
		store:     store,
		scanner:   scanner,
		listen:    listen,
		version:   version,
		hub:       newHub(),
		committed: make(chan struct{}),
	}
}

// Run serves until a configuration is committed (nil) or the context is
// cancelled (ctx.Err()). A listener or serve failure is returned as-is.
func (p *Portal) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        p.listen,
		Handler:     p.router(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	logging.Info("Configuration portal listening", zap.String("addr", p.listen))

	var result error
	select {
	case <-p.committed:
		result = nil
	case <-ctx.Done():
		result = ctx.Err()
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	p.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Portal shutdown incomplete", zap.Error(err))
	}
	return result
}

// markCommitted ends Run with success. Idempotent; a double save during
// the shutdown grace must not panic.
func (p *Portal) markCommitted() {
	p.commitOnce.Do(func() { close(p.committed) })
}

// router wires the portal's routes
func (p *Portal) router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/", p.handleIndex)
	r.Get("/scan", p.handleScan)
	r.Post("/save", p.handleSave)
	r.Get("/api/status", p.handleStatus)
	r.Get("/events", p.handleEvents)

	return r
}

// requestLogger logs each portal request at debug level
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debug("Portal request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
