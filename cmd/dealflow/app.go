package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/dealflow/internal/config"
	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/hooks"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/nats"
	"github.com/mark3labs/dealflow/internal/requests"
	"github.com/mark3labs/dealflow/internal/submit"
	"github.com/mark3labs/dealflow/internal/wizard"
)

var errNoStore = errors.New("this command needs stored requests; use the nats backend")

// app holds the backend a command runs against.
type app struct {
	cfg       *config.Config
	conn      *nats.Conn
	store     *requests.Store
	submitter wizard.Submitter
	loader    wizard.Loader
	hooks     *hooks.Config
	workDir   string

	mu         sync.Mutex
	hookOutput []string
}

// openApp starts the configured backend. With needStore the simulated
// backend is rejected.
func openApp(ctx context.Context, c *config.Config, needStore bool) (*app, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	hookCfg, err := hooks.LoadConfig(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load hooks: %w", err)
	}

	a := &app{cfg: c, hooks: hookCfg, workDir: workDir}

	var base wizard.Submitter
	switch c.Backend {
	case config.BackendSimulated:
		if needStore {
			return nil, errNoStore
		}
		base = submit.NewSimulated(c.SimulatedDelay)
	default:
		conn, err := nats.Open(ctx, filepath.Join(c.DataDir, "nats"))
		if err != nil {
			return nil, fmt.Errorf("failed to open request store: %w", err)
		}
		a.conn = conn
		a.store = requests.NewStore(conn.JetStream, conn.Stream)
		ss := submit.NewStoreSubmitter(a.store)
		a.loader = ss
		base = ss
	}

	a.submitter = submit.WithHook(base, hookCfg, workDir, a.recordHookOutput)
	return a, nil
}

func (a *app) recordHookOutput(requestID, output string) {
	logger.Info("post_submit hook output for %s:\n%s", requestID, output)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hookOutput = append(a.hookOutput, fmt.Sprintf("[post_submit %s]\n%s", requestID, output))
}

// flushHookOutput prints hook output collected while the TUI owned the
// terminal.
func (a *app) flushHookOutput(w io.Writer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, out := range a.hookOutput {
		fmt.Fprintf(w, "%s\n", out)
	}
	a.hookOutput = nil
}

func (a *app) resolveFlow(name string) (*flows.Flow, error) {
	return flows.Resolve(name, a.cfg.FlowsDir)
}

// Close stops the embedded server, if any.
func (a *app) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
