// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command server exposes the take studio over HTTP and analyses videos
// dropped into the watched buckets.
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
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/jaycherian/gcp-go-take-studio/internal/api"
	"github.com/jaycherian/gcp-go-take-studio/internal/telemetry"
)

const serviceName = "take-studio-server"

func main() {
	config, err := GetConfig()
	if err != nil {
		log.Fatal(err)
	}

	closeLog, err := telemetry.SetupLogging(config.Application.LogFile, slog.LevelInfo)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("failed to set up OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()
	// Mirrors startup records to the OpenTelemetry log pipeline when one is installed.
	logger := otelslog.NewLogger(serviceName)

	if err := InitState(ctx); err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer state.Close()
	logger.InfoContext(ctx, "state initialised", "backend", config.Application.Backend)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    config.Application.ListenAddress,
		Handler: api.NewRouter(serviceName, state.deps),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("server ready", "address", config.Application.ListenAddress)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	cancel()
}
