package pubsub

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog/log"
)

// EmbeddedServer is an in-process NATS server for development and tests.
type EmbeddedServer struct {
	ns *server.Server
}

// StartEmbeddedServer starts a NATS server on a random local port and waits until it
// accepts connections.
func StartEmbeddedServer() (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1, // random free port
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}
	ns.SetLogger(natsLogger{}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
	}

	log.Info().Str("url", ns.ClientURL()).Msg("embedded NATS server started")
	return &EmbeddedServer{ns: ns}, nil
}

// ClientURL is the nats:// URL clients connect to.
func (s *EmbeddedServer) ClientURL() string {
	return s.ns.ClientURL()
}

// Shutdown stops the server and waits for it to exit.
func (s *EmbeddedServer) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
	log.Info().Msg("embedded NATS server shut down")
}

// natsLogger routes nats-server logs to zerolog.
type natsLogger struct{}

func (natsLogger) Noticef(format string, v ...any) {
	log.Info().Msgf("[nats] "+format, v...)
}

func (natsLogger) Warnf(format string, v ...any) {
	log.Warn().Msgf("[nats] "+format, v...)
}

func (natsLogger) Fatalf(format string, v ...any) {
	log.Error().Msgf("[nats] "+format, v...)
}

func (natsLogger) Errorf(format string, v ...any) {
	log.Error().Msgf("[nats] "+format, v...)
}

func (natsLogger) Debugf(format string, v ...any) {
	log.Debug().Msgf("[nats] "+format, v...)
}

func (natsLogger) Tracef(format string, v ...any) {
	log.Trace().Msgf("[nats] "+format, v...)
}
