package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/simserver"
)

func main() {
	addr := os.Getenv("SIMVIZ_SIMSERVER_ADDRESS")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	level := os.Getenv("SIMVIZ_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	appLogger, err := customlog.NewLogrusLogger(level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Infof("Shutting down simulation server...")
		cancel()
	}()

	world := simserver.NewWorld()
	server := simserver.New(world, appLogger.WithField("component", "simserver"))
	if err := server.ListenAndServe(ctx, addr); err != nil {
		appLogger.Fatalf("Simulation server failed: %v", err)
	}
	appLogger.Infof("Simulation server stopped")
}
