package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/open-teleop/simviz/domain/diagnostic"
	"github.com/open-teleop/simviz/pkg/api"
	"github.com/open-teleop/simviz/pkg/appearance"
	"github.com/open-teleop/simviz/pkg/config"
	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/processing"
	"github.com/open-teleop/simviz/pkg/redisfeed"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
	"github.com/open-teleop/simviz/pkg/zeromq"
	"github.com/open-teleop/simviz/services"
)

func main() {
	// Get config directory from environment variable or use default
	configDir := os.Getenv("SIMVIZ_CONFIG_DIR")
	if configDir == "" {
		configDir = "./config"
	}

	cfg, err := config.LoadBootstrapConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load bootstrap config: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Infof("Loaded bootstrap config from %s", configDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Scene and display state ---
	store := scene.NewStore(appLogger.WithField("component", "scene"))

	displayService, err := services.NewDisplayService(cfg.Display, cfg.Server.DisplayStateFile, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize display service: %v", err)
	}

	// --- Session ---
	sess := session.New(cfg.SessionConfig(), store, appLogger.WithField("component", "session"))
	sess.SetDisplaySource(displayService)
	sess.SetAppearanceParser(appearanceParser(cfg.Appearance, appLogger))

	// --- Frame feed ---
	hub := api.NewFrameHub(64, appLogger.WithField("component", "ws"))
	resultHandler := processing.NewPublishingResultHandler(appLogger.WithField("component", "feed"))
	resultHandler.AddPublisher("websocket", hub, processing.EncodingFlatbuffer)

	var zmqService *zeromq.ZeroMQService
	var statusPublisher *zeromq.StatusPublisher
	if cfg.ZeroMQ.Enabled {
		zmqService, err = zeromq.NewZeroMQService(cfg.ZeroMQ, appLogger.WithField("component", "zeromq"))
		if err != nil {
			appLogger.Fatalf("Failed to initialize ZeroMQ service: %v", err)
		}
		controlTimeout := 2 * cfg.SessionConfig().ReadTimeout
		zeromq.RegisterControlHandlers(zmqService, zeromq.NewControlHandler(sess, displayService, controlTimeout, appLogger))
		if err := zmqService.Start(); err != nil {
			appLogger.Fatalf("Failed to start ZeroMQ service: %v", err)
		}
		resultHandler.AddPublisher("zeromq", zmqService, processing.EncodingFlatbuffer)

		statusPublisher = zeromq.NewStatusPublisher(zmqService, sess.Status, appLogger)
		displayService.SetPublisher(statusPublisher)
		go statusPublisher.Run(ctx, time.Duration(cfg.ZeroMQ.StatusIntervalMs)*time.Millisecond)
	}

	var redisPublisher *redisfeed.Publisher
	if cfg.Redis.Enabled {
		redisPublisher, err = redisfeed.NewPublisher(cfg.Redis, appLogger)
		if err != nil {
			appLogger.Fatalf("Failed to initialize Redis feed: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisPublisher.Ping(pingCtx); err != nil {
			appLogger.Warnf("Redis feed not reachable yet: %v", err)
		}
		pingCancel()
		resultHandler.AddPublisher("redis", redisPublisher, processing.EncodingJSON)
	}

	framePool := processing.NewProcessingPool("frames", cfg.Processing.Workers, cfg.Processing.QueueSize, appLogger)
	framePool.SetResultHandler(resultHandler.CreateHandlerFunc())
	framePool.Start()
	sess.SetFrameSink(framePool)

	// --- Diagnostics ---
	diagnosticService := diagnostic.NewDiagnosticService(sess)
	diagnosticService.SetScene(store)
	diagnosticService.SetPool(framePool)
	diagnosticService.AddFeed("websocket", func() interface{} { return hub.Stats() })
	diagnosticService.AddFeed("publish_failures", func() interface{} { return resultHandler.Failures() })
	if redisPublisher != nil {
		diagnosticService.AddFeed("redis", func() interface{} {
			published, subscribers := redisPublisher.Stats()
			return fiber.Map{"published": published, "last_subscribers": subscribers}
		})
	}

	// --- HTTP API ---
	app := fiber.New(fiber.Config{
		AppName:      "SimViz",
		ErrorHandler: customErrorHandler,
	})
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "online",
			"service":    "simviz",
			"simulation": cfg.Simulation.Address,
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	connectTimeout := cfg.SessionConfig().ConnectTimeout + 2*cfg.SessionConfig().ReadTimeout
	api.RegisterSessionRoutes(app, api.NewSessionHandler(sess, store, connectTimeout, appLogger))
	api.RegisterDisplayRoutes(app, displayService, appLogger)
	app.Get("/api/diagnostics", diagnosticService.GetMetricsHandler)
	api.RegisterWebSocketRoutes(app, hub, appLogger)

	// --- Tick loop ---
	go sess.Run(ctx, cfg.TickInterval())
	if cfg.Simulation.AutoConnect {
		go func() {
			connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
			defer connectCancel()
			if err := sess.Connect(connectCtx); err != nil {
				appLogger.Errorf("Auto-connect to %s failed: %v", cfg.Simulation.Address, err)
			}
		}()
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		appLogger.Infof("HTTP server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Infof("Shutting down...")

	cancel()
	sess.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}

	// Drain queued frames before the feeds close
	framePool.Stop()
	hub.Close()
	if zmqService != nil {
		zmqService.Stop()
	}
	if redisPublisher != nil {
		if err := redisPublisher.Close(); err != nil {
			appLogger.Warnf("Error closing Redis feed: %v", err)
		}
	}

	appLogger.Infof("SimViz exited properly")
}

// appearanceParser chains local overrides in front of the server's document.
func appearanceParser(cfg config.AppearanceConfig, logger customlog.Logger) session.AppearanceParser {
	var local scene.Resolver
	if cfg.File != "" {
		overrides, err := config.LoadAppearanceOverrides(cfg.File)
		if err != nil {
			logger.Warnf("Ignoring appearance overrides: %v", err)
		} else {
			local = appearance.Static(overrides.Hints())
			logger.Infof("Loaded %d appearance overrides from %s", len(overrides.Hints()), cfg.File)
		}
	}

	return func(doc string) (scene.Resolver, error) {
		server, err := appearance.ParseResolver(doc)
		if err != nil {
			if local == nil {
				return nil, err
			}
			if !errors.Is(err, appearance.ErrEmptyDocument) {
				logger.Warnf("Server appearance document unusable, using local overrides only: %v", err)
			}
			return local, nil
		}
		return appearance.Chain(local, server), nil
	}
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
