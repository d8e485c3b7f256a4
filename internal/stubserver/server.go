// Package stubserver is a development stand-in for the comptes REST backend.
package stubserver

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server wraps the Fiber application serving the comptes resource.
type Server struct {
	app   *fiber.App
	addr  string
	store Store
}

// Options configures New.
type Options struct {
	Addr     string
	BasePath string
	Logger   *slog.Logger
}

// New builds the Fiber app and registers the routes under opts.BasePath.
func New(store Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "comptes-stub",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(Audit(logger))

	h := &handler{store: store, validate: newValidator()}
	app.Get("/healthz", h.health)

	api := app.Group(normalizeBasePath(opts.BasePath))
	api.Get("/comptes", h.list)
	api.Post("/comptes", h.create)
	api.Put("/comptes/:id", h.update)
	api.Delete("/comptes/:id", h.delete)

	return &Server{app: app, addr: opts.Addr, store: store}
}

// App exposes the Fiber app, for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server on the configured address.
func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

// Serve starts the HTTP server on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
