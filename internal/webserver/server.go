// Package webserver serves the HTTP API
package webserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/retry"
)

const shutdownTimeout = 10 * time.Second

// Routes mounts a group of handlers on the router.
type Routes interface {
	Routes(r chi.Router)
}

// WebServer represents the API server
type WebServer struct {
	addr     string
	server   *http.Server
	router   *chi.Mux
	listener net.Listener
	log      logger.Logger
}

// NewWebServer creates a WebServer listening on addr (host:port)
func NewWebServer(addr string, log logger.Logger, routes ...Routes) *WebServer {
	if log == nil {
		log = logger.Discard
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	for _, rt := range routes {
		rt.Routes(r)
	}

	return &WebServer{addr: addr, router: r, log: log}
}

// Router returns the chi router to allow adding routes from outside
func (ws *WebServer) Router() *chi.Mux {
	return ws.router
}

// Addr returns the bound address once started, the configured one before.
func (ws *WebServer) Addr() string {
	if ws.listener != nil {
		return ws.listener.Addr().String()
	}
	return ws.addr
}

// Start binds the address and serves in the background. Bind errors are
// returned directly.
func (ws *WebServer) Start() error {
	ln, err := net.Listen("tcp", ws.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", ws.addr, err)
	}
	ws.listener = ln
	ws.server = &http.Server{
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := ws.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ws.log.Error("Server stopped", map[string]interface{}{logger.ErrorKey: err.Error()})
		}
	}()

	ws.log.Info("Server listening", map[string]interface{}{"addr": ws.Addr()})
	return nil
}

// WaitReady polls /ping until it answers or the policy gives up.
func (ws *WebServer) WaitReady(ctx context.Context, policy retry.Policy) error {
	url := "http://" + ws.Addr() + "/ping"
	client := &http.Client{Timeout: time.Second}

	return retry.Do(ctx, policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ping returned %d", resp.StatusCode)
		}
		return nil
	})
}

// Stop gracefully shuts down the server with a timeout
func (ws *WebServer) Stop() error {
	if ws.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return ws.server.Shutdown(ctx)
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Debug("Request served", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			})
		})
	}
}
