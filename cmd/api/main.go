package main

import (
	"os"

	"github.com/yigit/examprogress/internal/bootstrap"
	"github.com/yigit/examprogress/internal/config"
	"github.com/yigit/examprogress/internal/pkg/logger"
	"github.com/yigit/examprogress/internal/server"
)

// @title Exam Progress API
// @version 1.0
// @description Tracks final-exam stage progress of students, with backup, export, integrity and sync tooling for the administrator.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Admin session token, as "Bearer <token>"

func main() {
	srv, err := server.NewServer(config.GetEnv("CONFIG_PATH", bootstrap.DefaultConfigPath))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
