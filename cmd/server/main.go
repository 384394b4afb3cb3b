// cmd/server/main.go
// Entry point for the Championship League API server.
// cmd/ holds the executable; everything it wires together lives under internal/.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	// cors lets the web and mobile clients call the API from other origins
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration) to stdout
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/championship-league/internal/config"
	"github.com/trentd187/championship-league/internal/database"
	"github.com/trentd187/championship-league/internal/handlers"
	"github.com/trentd187/championship-league/internal/ledger"
	appLogger "github.com/trentd187/championship-league/internal/logger"
	"github.com/trentd187/championship-league/internal/pubsub"
	"github.com/trentd187/championship-league/internal/store"
	"github.com/trentd187/championship-league/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration from environment variables, an optional .env file and an optional
	// YAML file named by CONFIG_FILE.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	appLogger.Init(cfg.LogLevel, cfg.IsDevelopment())

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Bring the schema up to date before serving: SQL migrations on postgres, AutoMigrate on sqlite.
	if err := database.Prepare(db, cfg.DBDriver, cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare database schema")
	}

	st := store.New(db)

	bus, cleanup := newBus(cfg)
	defer cleanup()

	l := ledger.New(st, bus, clockwork.NewRealClock())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub pushes ledger notifications to clients watching a match live.
	hub := websocket.NewHub()
	go hub.Run(ctx)
	go hub.Relay(ctx, bus.Subscribe())

	app := fiber.New(fiber.Config{
		AppName: "Championship League API",
	})
	app.Use(logger.New())
	app.Use(cors.New())

	handlers.Register(app, handlers.Deps{
		Config:    cfg,
		Store:     st,
		Ledger:    l,
		Publisher: bus,
		Hub:       hub,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// newBus builds the in-process notification bus. With a NATS URL configured (or an embedded
// server requested) notifications also travel through NATS so every API instance sees them.
func newBus(cfg *config.Config) (*pubsub.Bus, func()) {
	url := cfg.NATSURL
	var embedded *pubsub.EmbeddedServer
	if url == "" && cfg.NATSEmbedded {
		srv, err := pubsub.StartEmbeddedServer()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start embedded NATS server")
		}
		embedded = srv
		url = srv.ClientURL()
	}

	if url == "" {
		bus := pubsub.NewBus()
		return bus, bus.Close
	}

	upstream, err := pubsub.NewNATSPublisher(url, cfg.NATSSubject)
	if err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("failed to connect to NATS")
	}
	log.Info().Str("url", url).Str("subject", cfg.NATSSubject).Msg("notifications relayed through NATS")

	bus := pubsub.NewBusWithUpstream(upstream)
	return bus, func() {
		bus.Close()
		upstream.Close()
		if embedded != nil {
			embedded.Shutdown()
		}
	}
}
