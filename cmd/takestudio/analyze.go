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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/workflow"
)

var (
	analyzeJSON   bool
	analyzeExport string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [video]",
	Short: "Split a video into takes with generation prompts",
	Long: `Analyze a local video with the configured analysis model and print one
block per take followed by the master prompt.

Examples:
  takestudio analyze clip.mp4
  takestudio analyze clip.mp4 --json
  takestudio analyze clip.mp4 --export takes.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the analysis as JSON")
	analyzeCmd.Flags().StringVar(&analyzeExport, "export", "", "Write the analysis as JSON to a file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	asset, err := readVideo(args[0])
	if err != nil {
		return err
	}
	config, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), config.Timeouts.AnalysisTimeout())
	defer cancel()

	clients, err := newClients(ctx, config)
	if err != nil {
		return err
	}
	defer clients.Close()

	options, err := workflow.NewAnalysisOptions(config, clients, newSampler(config))
	if err != nil {
		return err
	}
	result, err := workflow.NewTakeAnalysisWorkflow(options).Run(ctx, asset)
	if err != nil {
		return err
	}

	if analyzeExport != "" {
		file, err := os.Create(analyzeExport)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer file.Close()
		if err := writeJSON(file, result); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("✓ Exported %d takes to %s\n", len(result.Takes), analyzeExport)
		return nil
	}
	if analyzeJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printTakes(cmd.OutOrStdout(), result)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTakes(w io.Writer, result *model.AnalysisResult) {
	separator := borderStyle.Render(strings.Repeat("─", 60))
	for _, take := range result.Takes {
		fmt.Fprintln(w, headerStyle.Render(takes.Header(take)))
		fmt.Fprintln(w, promptStyle.Render(take.Veo3PromptEn))
		fmt.Fprintln(w, separator)
	}
	fmt.Fprintln(w, headerStyle.Render("MASTER PROMPT"))
	fmt.Fprintln(w, takes.MasterPrompt(result.Takes))
	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d takes of %gs over %s",
		len(result.Takes), result.TakeSizeS, takes.FormatTime(result.VideoDurationS))))
}
