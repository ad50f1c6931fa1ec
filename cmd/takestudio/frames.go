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
)

var (
	framesCount int
	framesOut   string
	captureAt   float64
	captureOut  string
)

var framesCmd = &cobra.Command{
	Use:   "frames [video]",
	Short: "Sample evenly spaced thumbnails from a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runFrames,
}

var captureCmd = &cobra.Command{
	Use:   "capture [video]",
	Short: "Capture one full size frame at a timestamp",
	Long: `Capture the frame at --at seconds, scaled and center cropped to the
configured capture size. Timestamps past the end are clamped.`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(framesCmd, captureCmd)
	framesCmd.Flags().IntVar(&framesCount, "count", 0, "Number of thumbnails (default from configuration)")
	framesCmd.Flags().StringVar(&framesOut, "out", ".", "Directory the thumbnails are written to")
	captureCmd.Flags().Float64Var(&captureAt, "at", 0, "Timestamp in seconds")
	captureCmd.Flags().StringVar(&captureOut, "out", "", "Output file (default frame-<at>.<ext>)")
	_ = captureCmd.MarkFlagRequired("at")
}

func runFrames(cmd *cobra.Command, args []string) error {
	asset, err := readVideo(args[0])
	if err != nil {
		return err
	}
	config, err := loadConfig()
	if err != nil {
		return err
	}
	count := framesCount
	if count <= 0 {
		count = config.Frames.ThumbnailCount
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), config.Timeouts.FramesTimeout())
	defer cancel()

	frames, info, err := newSampler(config).ExtractFrames(ctx, asset.Data, count, config.Frames.ThumbnailWidth)
	if err != nil {
		return model.Classify(err, model.KindFrameExtractionFailed)
	}
	if err := os.MkdirAll(framesOut, 0o755); err != nil {
		return err
	}
	for i, frame := range frames {
		name := filepath.Join(framesOut, fmt.Sprintf("thumb-%02d-%06.2fs.%s", i, frame.TimestampS, media.Extension(frame.Image.Data)))
		if err := os.WriteFile(name, frame.Image.Data, 0o644); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render(
		fmt.Sprintf("✓ Wrote %d thumbnails of a %.1fs video to %s", len(frames), info.DurationS, framesOut)))
	return nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	asset, err := readVideo(args[0])
	if err != nil {
		return err
	}
	config, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), config.Timeouts.FramesTimeout())
	defer cancel()

	frame, err := newSampler(config).CaptureFrameAt(ctx, asset.Data, captureAt, config.Frames.CaptureWidth, config.Frames.CaptureHeight)
	if err != nil {
		return model.Classify(err, model.KindFrameExtractionFailed)
	}
	out := captureOut
	if out == "" {
		out = fmt.Sprintf("frame-%.2f.%s", captureAt, media.Extension(frame.Data))
	}
	if err := os.WriteFile(out, frame.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render("✓ Captured "+out))
	return nil
}
