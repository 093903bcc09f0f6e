// Package mcpserver exposes the wizard's validators, derivers and request
// store as MCP tools so agents can fill and submit flows without the TUI.
package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/hooks"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/requests"
	"github.com/mark3labs/dealflow/internal/wizard"
	"github.com/mark3labs/mcp-go/server"
)

// Deps are the collaborators of the tools. Store may be nil when the
// simulated backend is used; the request tools then report that storage is
// unavailable.
type Deps struct {
	Store         *requests.Store
	Submitter     wizard.Submitter
	Loader        wizard.Loader
	Resolve       func(name string) (*flows.Flow, error)
	FlowsDir      string
	Hooks         *hooks.Config
	WorkDir       string
	SubmitTimeout time.Duration
}

// Server hosts the dealflow MCP tools over stdio or streamable HTTP.
type Server struct {
	deps      Deps
	mcpServer *server.MCPServer
	stdServer *http.Server
	port      int
	mu        sync.Mutex
}

// New creates a server. Tools are registered immediately; nothing listens
// until Start or ServeStdio is called.
func New(deps Deps, version string) *Server {
	if deps.Resolve == nil {
		dir := deps.FlowsDir
		deps.Resolve = func(name string) (*flows.Flow, error) {
			return flows.Resolve(name, dir)
		}
	}
	s := &Server{deps: deps}
	s.mcpServer = server.NewMCPServer(
		"dealflow",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// ServeStdio serves the tools on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Start serves the tools over HTTP at addr ("127.0.0.1:0" picks a free
// port) and returns the bound port.
func (s *Server) Start(ctx context.Context, addr string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(s.mcpServer, server.WithStateLess(true)))
	s.stdServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP server error: %v", err)
		}
	}()

	logger.Debug("MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop shuts the HTTP server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.stdServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	s.stdServer = nil
	return nil
}

// URL returns the HTTP URL for the MCP endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
