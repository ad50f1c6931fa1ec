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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

var lookupDownload string

var lookupCmd = &cobra.Command{
	Use:   "lookup [url]",
	Short: "Resolve a short video page URL into its assets",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a take analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		text, err := takes.JSONSchemaText()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd, schemaCmd)
	lookupCmd.Flags().StringVar(&lookupDownload, "download", "", "Directory the video, audio and cover are saved to")
}

func runLookup(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	metadata, err := services.NewLookupService(config.Lookup.Endpoint, config.Timeouts.LookupTimeout(), nil).
		Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, headerStyle.Render(metadata.Title))
	fmt.Fprintf(w, "%s %s\n", borderStyle.Render("id    "), metadata.ID)
	fmt.Fprintf(w, "%s %s\n", borderStyle.Render("author"), metadata.Author.Nickname)
	for _, kind := range []model.AssetKind{model.AssetVideo, model.AssetAudio, model.AssetCover} {
		if target := metadata.AssetURL(kind); target != "" {
			fmt.Fprintf(w, "%s %s\n", borderStyle.Render(fmt.Sprintf("%-6s", kind)), target)
		}
	}
	if lookupDownload == "" {
		return nil
	}

	if err := os.MkdirAll(lookupDownload, 0o755); err != nil {
		return err
	}
	fetcher := services.NewMediaFetcher(config.Lookup.RelayURL, config.Lookup.MaxMediaBytes, config.Timeouts.FetchTimeout())
	for _, kind := range []model.AssetKind{model.AssetVideo, model.AssetAudio, model.AssetCover} {
		target := metadata.AssetURL(kind)
		if target == "" {
			continue
		}
		if err := download(cmd.Context(), fetcher, target, filepath.Join(lookupDownload, fmt.Sprintf("%s-%s", metadata.ID, kind))); err != nil {
			return err
		}
	}
	return nil
}

// download saves target under stem with the extension of its content.
func download(ctx context.Context, fetcher *services.MediaFetcher, target string, stem string) error {
	data, _, err := fetcher.Fetch(ctx, target)
	if err != nil {
		return err
	}
	name := stem + "." + media.Extension(data)
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return err
	}
	fmt.Println(summaryStyle.Render("✓ Saved " + name))
	return nil
}
