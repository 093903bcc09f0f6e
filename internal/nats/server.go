package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const readyTimeout = 4 * time.Second

// StartEmbeddedNATS starts an in-process NATS server with JetStream file
// storage under dataDir. No network port is opened.
func StartEmbeddedNATS(dataDir string) (*server.Server, error) {
	logger.Debug("Starting embedded NATS server with data dir: %s", dataDir)

	opts := &server.Options{
		JetStream:  true,
		StoreDir:   dataDir,
		DontListen: true,
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		logger.Error("Failed to create NATS server: %v", err)
		return nil, err
	}

	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		logger.Error("NATS server failed to start within %s", readyTimeout)
		ns.Shutdown()
		return nil, errors.New("nats server failed to start within timeout")
	}

	logger.Debug("NATS server ready for connections")
	return ns, nil
}

// ConnectInProcess creates a connection to the embedded server that bypasses
// the network stack.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	conn, err := nats.Connect("", nats.InProcessServer(ns), nats.Name("dealflow"))
	if err != nil {
		logger.Error("Failed to connect to NATS in-process: %v", err)
		return nil, err
	}
	return conn, nil
}

// CreateJetStream creates a JetStream context from a NATS connection.
func CreateJetStream(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// Shutdown drains the connection, then stops the server. Both steps are
// bounded so a wedged server cannot hang the CLI on exit.
func Shutdown(nc *nats.Conn, ns *server.Server) error {
	if nc != nil {
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- nc.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				logger.Warn("NATS drain failed, forcing close: %v", err)
				nc.Close()
			}
		case <-time.After(2 * time.Second):
			logger.Warn("NATS drain timed out after 2s, forcing close")
			nc.Close()
		}
	}

	if ns != nil {
		ns.Shutdown()

		shutdownDone := make(chan struct{})
		go func() {
			ns.WaitForShutdown()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
			logger.Debug("NATS server shut down cleanly")
		case <-time.After(5 * time.Second):
			logger.Error("NATS server shutdown timed out after 5s")
			return errors.New("NATS server shutdown timed out")
		}
	}

	return nil
}

// Conn bundles an embedded server with its connection and stream.
type Conn struct {
	Server    *server.Server
	NC        *nats.Conn
	JetStream jetstream.JetStream
	Stream    jetstream.Stream
}

// Open starts the embedded server in dataDir, connects to it and ensures the
// request stream exists.
func Open(ctx context.Context, dataDir string) (*Conn, error) {
	ns, err := StartEmbeddedNATS(dataDir)
	if err != nil {
		return nil, err
	}
	nc, err := ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return nil, err
	}
	js, err := CreateJetStream(nc)
	if err != nil {
		_ = Shutdown(nc, ns)
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	stream, err := SetupStream(ctx, js)
	if err != nil {
		_ = Shutdown(nc, ns)
		return nil, fmt.Errorf("setting up stream: %w", err)
	}
	return &Conn{Server: ns, NC: nc, JetStream: js, Stream: stream}, nil
}

// Close shuts the connection and server down.
func (c *Conn) Close() error {
	return Shutdown(c.NC, c.Server)
}
