// Package mcp exposes the risk engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/prime-cvd-risk/internal/app"
)

// Transport types
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Server is the PRIME CVD risk MCP server. It holds no patient state; every tool call
// is an independent evaluation.
type Server struct {
	engine    *app.Engine
	mcpServer *mcp.Server
	logger    *logrus.Logger

	name      string
	version   string
	transport string
	httpPort  int
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger is required")
		}
		s.logger = logger
		return nil
	}
}

// WithTransport selects stdio or streamable HTTP on the given port.
func WithTransport(transport string, httpPort int) ServerOption {
	return func(s *Server) error {
		switch transport {
		case TransportStdio:
		case TransportHTTP:
			if httpPort <= 0 || httpPort > 65535 {
				return fmt.Errorf("invalid http port: %d", httpPort)
			}
		default:
			return fmt.Errorf("unsupported transport type: %s", transport)
		}
		s.transport = transport
		s.httpPort = httpPort
		return nil
	}
}

// WithImplementation sets the name and version reported to clients.
func WithImplementation(name, version string) ServerOption {
	return func(s *Server) error {
		s.name = name
		s.version = version
		return nil
	}
}

// NewServer creates a new MCP server over engine.
func NewServer(engine *app.Engine, opts ...ServerOption) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}

	server := &Server{
		engine:    engine,
		logger:    logrus.New(),
		name:      "prime-cvd-risk",
		version:   "v1.0.0",
		transport: TransportStdio,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    server.name,
		Version: server.version,
	}, nil)

	server.registerTools()
	server.registerResources()

	server.logger.WithFields(logrus.Fields{
		"name":      server.name,
		"transport": server.transport,
		"therapies": len(engine.Catalog.ListTherapies()),
	}).Info("MCP server initialized")

	return server, nil
}

// Start serves MCP requests until ctx is cancelled or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("transport_type", s.transport).Info("Starting PRIME CVD risk MCP server")

	if s.transport == TransportHTTP {
		return s.serveHTTP(ctx)
	}

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.httpPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.httpPort).Info("MCP streamable HTTP transport listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("MCP HTTP transport failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// Close releases server resources.
func (s *Server) Close() error {
	s.logger.Info("MCP server closed")
	return nil
}
