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
	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/telemetry"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "takestudio",
	Short: "Take Studio - split videos into generation takes and edit stills",
	Long: `Take Studio analyses short videos into fixed length takes with
generation prompts, samples and captures frames, and edits stills with an
image model.

Configuration is read from $GCP_CONFIG_PREFIX/.env.toml and the runtime
override selected by $GCP_RUNTIME; GEMINI_API_KEY may come from a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		_, err := telemetry.SetupLogging("", level)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
}

// Execute runs the root command.
func Execute() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(describe(err)))
		os.Exit(1)
	}
}

// loadConfig reads the configuration without any listener or publisher;
// the command line never subscribes to buckets.
func loadConfig() (*cloud.Config, error) {
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	cloud.ApplyEnvironment(config)
	config.ApplyDefaults()
	clear(config.TopicSubscriptions)
	config.Topics.AnalysisResults = ""
	return config, nil
}

func newClients(ctx context.Context, config *cloud.Config) (*cloud.ServiceClients, error) {
	return cloud.NewCloudServiceClients(ctx, config)
}

func newSampler(config *cloud.Config) *media.FrameSampler {
	return media.NewFrameSampler(config.Frames.FFmpegPath, config.Frames.FFprobePath, config.Application.ThreadPoolSize)
}

// readVideo loads a local video and rejects anything that does not sniff
// as one.
func readVideo(path string) (*model.VideoAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read video: %w", err)
	}
	mimeType, err := media.DetectVideo(data)
	if err != nil {
		return nil, err
	}
	asset := model.NewVideoAsset(path, mimeType, data)
	asset.Source = "file"
	return asset, nil
}

// describe renders model errors as "Kind: reason".
func describe(err error) string {
	if kind, ok := model.KindOf(err); ok {
		return fmt.Sprintf("%s: %v", kind, err)
	}
	return err.Error()
}
