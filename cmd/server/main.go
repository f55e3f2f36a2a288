package main

import (
	"flag"
	"log/slog"
	"os"

	"jobstatus-api/internal/app"
	"jobstatus-api/internal/logger"
)

func main() {
	configPath := flag.String("config", "config/app-config.dev.json", "path to the JSON config file")
	flag.Parse()

	logHandler := logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(logHandler))

	application, err := app.New(*configPath)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
