package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"navpanel/internal/config"
	"navpanel/internal/logging"
	"navpanel/internal/visualizer"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Setup structured logging
	l, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Console: os.Stdout,
		File:    cfg.LogFile,
		Journal: cfg.LogJournal,
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer l.Close()
	logger := l.Logger

	interp := visualizer.NewInterpreter(logger)
	if cfg.ScriptPath != "" {
		if err := interp.LoadScript(cfg.ScriptPath); err != nil {
			logger.Error("script_load_failed", "error", err.Error())
			os.Exit(1)
		}
	}
	if cfg.StartupCall != "" {
		if err := startupCall(interp, cfg.StartupCall, logger); err != nil {
			logger.Error("startup_call_failed", "call", cfg.StartupCall, "error", err.Error())
			os.Exit(1)
		}
	}

	server := visualizer.NewServer(cfg.ListenAddr, interp, visualizer.Options{
		LineRate:  cfg.LineRate,
		LineBurst: cfg.LineBurst,
		Logger:    logger,
	})
	if err := server.Listen(); err != nil {
		logger.Error("listen_failed", "addr", cfg.ListenAddr, "error", err.Error())
		os.Exit(1)
	}

	logger.Info("starting_visualizer",
		"listen_addr", server.ListenAddr().String(),
		"status_addr", cfg.StatusAddr,
		"script", cfg.ScriptPath,
	)

	errChan := make(chan error, 2)
	go func() {
		if err := server.Serve(); err != nil {
			errChan <- err
		}
	}()

	var statusServer *http.Server
	if cfg.StatusAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		router := visualizer.NewStatusRouter(visualizer.NewStatusHandler(interp, server.Manager))
		statusServer = &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		logger.Error("server_error", "error", err.Error())
		exitCode = 1
	}

	if statusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := statusServer.Shutdown(ctx); err != nil {
			logger.Warn("status_shutdown_failed", "error", err.Error())
		}
		cancel()
	}
	server.Stop()

	executed, failed := interp.Counts()
	logger.Info("server_stopped_gracefully",
		"lines_executed", executed,
		"lines_failed", failed,
	)
	if exitCode != 0 {
		l.Close()
		os.Exit(exitCode)
	}
}

// startupCall runs a script function once before lines are accepted and logs what it
// returned, e.g. STARTUP_CALL="getCorners(0, 0, 0)".
func startupCall(interp *visualizer.Interpreter, call string, logger *slog.Logger) error {
	fn, args, err := visualizer.ParseCall(call)
	if err != nil {
		return err
	}
	result, err := interp.Call(fn, args...)
	if err != nil {
		return err
	}
	logger.Info("startup_call_done",
		"function", fn,
		"result", result,
	)
	return nil
}
