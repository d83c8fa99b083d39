package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/shipbridge/internal/control"
	"github.com/vietddude/shipbridge/internal/core/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to .env file (optional)")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	mockMode := flag.Bool("mock", false, "Serve canned data instead of calling upstream platforms")
	callTool := flag.String("call", "", "Invoke one tool, print its JSON result and exit")
	params := flag.String("params", "{}", "JSON parameters for -call")
	flag.Parse()

	// Missing .env is fine; the environment may already be populated
	_ = godotenv.Load(*envPath)

	// Load Configuration first (before setting up logger)
	cfg, err := config.Load(*configPath, config.WithMockMode(*mockMode))
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(
		&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
	slog.Info("Logger initialized", "level", slogLevel.String(), "mock_mode", cfg.MockMode)

	// Setup Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := control.NewBridge(ctx, *cfg)
	if err != nil {
		slog.Error("Failed to initialize bridge", "error", err)
		os.Exit(1)
	}

	if *callTool != "" {
		os.Exit(runOnce(ctx, app, *callTool, *params))
	}

	// Handle OS Signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start bridge", "error", err)
		os.Exit(1)
	}

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)
	cancel()

	// Graceful Shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Bridge stopped gracefully")
}

// runOnce calls a single tool and prints the result or the structured error.
func runOnce(ctx context.Context, app *control.Bridge, name, params string) int {
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = app.Stop(stopCtx)
	}()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	result, err := app.Registry().Call(ctx, name, json.RawMessage(params))
	if err != nil {
		_ = enc.Encode(map[string]any{"error": err})
		return 1
	}
	if err := enc.Encode(map[string]any{"result": result}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
