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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/jaycherian/gcp-go-take-studio/internal/api"
	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/store"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/workflow"
)

// StateManager owns everything main builds so it can be torn down in order.
type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	store    store.KeyValueStore
	sampler  *media.FrameSampler
	analysis workflow.AnalysisOptions
	deps     *api.Dependencies
}

var state = &StateManager{}

// SetupOS points the configuration loader at ./configs and defaults the
// runtime to "local". Values already present in the environment win.
func SetupOS() error {
	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		if err := os.Setenv(cloud.EnvConfigRuntime, "local"); err != nil {
			return err
		}
	}
	return nil
}

// GetConfig loads .env (if present), the TOML files and the environment
// secrets, then applies defaults.
func GetConfig() (*cloud.Config, error) {
	if state.config != nil {
		return state.config, nil
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}
	if err := SetupOS(); err != nil {
		return nil, fmt.Errorf("failed to set up the environment: %w", err)
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	cloud.ApplyEnvironment(config)
	config.ApplyDefaults()
	state.config = config
	return config, nil
}

func openStore(config *cloud.Config) (store.KeyValueStore, error) {
	if config.Storage.PreferenceDBPath == "" {
		slog.Info("preferences are kept in memory")
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLiteStore(config.Storage.PreferenceDBPath, slog.Default())
}

// InitState creates the clients, the store, the workflows and the services,
// and starts the bucket listeners.
func InitState(ctx context.Context) error {
	config, err := GetConfig()
	if err != nil {
		return err
	}

	state.cloud, err = cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}

	state.store, err = openStore(config)
	if err != nil {
		return err
	}

	state.sampler = media.NewFrameSampler(config.Frames.FFmpegPath, config.Frames.FFprobePath, config.Application.ThreadPoolSize)
	if !state.sampler.Available() {
		slog.Warn("ffmpeg or ffprobe not found, frame extraction will fail", "ffmpeg", config.Frames.FFmpegPath)
	}

	state.analysis, err = workflow.NewAnalysisOptions(config, state.cloud, state.sampler)
	if err != nil {
		return err
	}

	editModel, err := state.cloud.Model(cloud.EditModelName)
	if err != nil {
		return err
	}

	preferences := services.NewPreferenceService(state.store, config.Lookup.MaxHistory)
	state.deps = &api.Dependencies{
		Sessions: services.NewSessionManager(),
		Analysis: services.NewAnalysisService(workflow.NewTakeAnalysisWorkflow(state.analysis), config.Timeouts.AnalysisTimeout()),
		Frames:   services.NewFrameService(state.sampler, config.Frames.ThumbnailWidth, config.Timeouts.FramesTimeout()),
		Edits: services.NewEditService(services.EditServiceOptions{
			Editor:        imageedit.NewEditor(editModel, config.Timeouts.EditTimeout()),
			Frames:        state.sampler,
			CaptureWidth:  config.Frames.CaptureWidth,
			CaptureHeight: config.Frames.CaptureHeight,
			FramesTimeout: config.Timeouts.FramesTimeout(),
		}),
		Lookup:         services.NewLookupService(config.Lookup.Endpoint, config.Timeouts.LookupTimeout(), preferences),
		Fetcher:        services.NewMediaFetcher(config.Lookup.RelayURL, config.Lookup.MaxMediaBytes, config.Timeouts.FetchTimeout()),
		Preferences:    preferences,
		ThumbnailCount: config.Frames.ThumbnailCount,
		MaxVideoBytes:  config.Lookup.MaxMediaBytes,
	}

	SetupListeners(ctx, state.cloud, state.analysis)
	return nil
}

// Close releases the store and the clients.
func (s *StateManager) Close() {
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close preference store", "error", err)
		}
	}
	if s.cloud != nil {
		s.cloud.Close()
	}
}
