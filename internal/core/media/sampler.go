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

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

const tempFilePrefix = "takestudio-video-"

// FrameSampler decodes frames with the ffmpeg and ffprobe binaries.
type FrameSampler struct {
	ffmpegPath  string
	ffprobePath string
	workers     int
	tracer      trace.Tracer
}

// NewFrameSampler builds a sampler. Empty paths resolve "ffmpeg" and
// "ffprobe" on PATH; workers below 1 means one.
//
// Inputs:
//   - ffmpegPath: path to the ffmpeg executable.
//   - ffprobePath: path to the ffprobe executable.
//   - workers: how many frames are decoded concurrently.
//
// Outputs:
//   - *FrameSampler: the sampler.
func NewFrameSampler(ffmpegPath string, ffprobePath string, workers int) *FrameSampler {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if workers < 1 {
		workers = 1
	}
	return &FrameSampler{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		workers:     workers,
		tracer:      otel.Tracer("frame-sampler"),
	}
}

// Available reports whether both binaries can be found.
func (s *FrameSampler) Available() bool {
	if _, err := exec.LookPath(s.ffmpegPath); err != nil {
		return false
	}
	_, err := exec.LookPath(s.ffprobePath)
	return err == nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		Tags   struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideData []struct {
			Rotation float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
}

// ParseStreamInfo reads the JSON written by ffprobe for the first video stream.
// Width and Height are the displayed dimensions: ffmpeg applies the
// rotation metadata when decoding, so a quarter turn swaps them.
func ParseStreamInfo(out []byte) (model.VideoInfo, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return model.VideoInfo{}, model.NewError(model.KindFrameExtractionFailed, "unreadable ffprobe output", err)
	}
	duration, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return model.VideoInfo{}, model.Errorf(model.KindFrameExtractionFailed, "the video has no usable duration")
	}
	info := model.VideoInfo{DurationS: duration}
	if len(parsed.Streams) > 0 {
		stream := parsed.Streams[0]
		info.Width, info.Height = stream.Width, stream.Height

		rotation := 0.0
		for _, side := range stream.SideData {
			if side.Rotation != 0 {
				rotation = side.Rotation
				break
			}
		}
		if rotation == 0 && stream.Tags.Rotate != "" {
			rotation, _ = strconv.ParseFloat(stream.Tags.Rotate, 64)
		}
		if quarterTurn(rotation) {
			info.Width, info.Height = info.Height, info.Width
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return model.VideoInfo{}, model.Errorf(model.KindFrameExtractionFailed, "the video has no video stream")
	}
	return info, nil
}

// quarterTurn reports whether degrees is an odd multiple of 90.
func quarterTurn(degrees float64) bool {
	turns := math.Round(degrees / 90)
	return math.Abs(degrees-turns*90) < 1 && int(turns)%2 != 0
}

// Probe reads the duration and the displayed dimensions of the first video stream.
func (s *FrameSampler) Probe(ctx context.Context, video []byte) (model.VideoInfo, error) {
	path, cleanup, err := writeTemp(video)
	if err != nil {
		return model.VideoInfo{}, err
	}
	defer cleanup()
	return s.probe(ctx, path)
}

func (s *FrameSampler) probe(ctx context.Context, path string) (model.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=width,height:stream_tags=rotate:stream_side_data=rotation",
		"-of", "json",
		path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return model.VideoInfo{}, extractionError(ctx, "ffprobe failed", err, stderr.String())
	}
	return ParseStreamInfo(out)
}

// ExtractFrames decodes count evenly spread JPEG thumbnails scaled to width.
// Frames come back ordered by timestamp.
//
// Inputs:
//   - ctx: bounds every ffmpeg process.
//   - video: the complete video file.
//   - count: number of thumbnails.
//   - width: thumbnail width in pixels; the height keeps the aspect ratio.
//
// Outputs:
//   - []model.Frame: the thumbnails.
//   - model.VideoInfo: what ffprobe reported.
//   - error: a FrameExtractionFailed or Timeout *model.Error.
func (s *FrameSampler) ExtractFrames(ctx context.Context, video []byte, count int, width int) ([]model.Frame, model.VideoInfo, error) {
	ctx, span := s.tracer.Start(ctx, "extract-frames")
	defer span.End()

	path, cleanup, err := writeTemp(video)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, model.VideoInfo{}, err
	}
	defer cleanup()

	info, err := s.probe(ctx, path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, model.VideoInfo{}, err
	}
	span.SetAttributes(attribute.Float64("duration", info.DurationS), attribute.Int("count", count))

	timestamps := SampleTimestamps(info.DurationS, count)
	jobs := make(chan frameJob, len(timestamps))
	results := make(chan frameResult, len(timestamps))

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go s.frameWorker(ctx, path, width, jobs, results, &wg)
	}
	for i, ts := range timestamps {
		jobs <- frameJob{index: i, timestamp: ts}
	}
	close(jobs)
	wg.Wait()
	close(results)

	frames := make([]model.Frame, len(timestamps))
	for r := range results {
		if r.err != nil {
			span.SetStatus(codes.Error, r.err.Error())
			return nil, info, r.err
		}
		frames[r.index] = r.frame
	}
	span.SetStatus(codes.Ok, "success")
	return frames, info, nil
}

type frameJob struct {
	index     int
	timestamp float64
}

type frameResult struct {
	index int
	frame model.Frame
	err   error
}

func (s *FrameSampler) frameWorker(ctx context.Context, path string, width int, jobs <-chan frameJob, results chan<- frameResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		data, err := s.decode(ctx, path, job.timestamp, fmt.Sprintf("scale=%d:-2", width), "mjpeg")
		if err != nil {
			results <- frameResult{index: job.index, err: err}
			continue
		}
		results <- frameResult{
			index: job.index,
			frame: model.Frame{TimestampS: job.timestamp, Image: model.NewImageArtifact("image/jpeg", data)},
		}
	}
}

// CaptureFrameAt grabs the frame at timestamp, centre-crops it to the
// aspect ratio of width x height and scales it to exactly that size. The
// timestamp is clamped into the video.
//
// Inputs:
//   - ctx: bounds the ffmpeg processes.
//   - video: the complete video file.
//   - timestamp: seconds from the start.
//   - width, height: the output size in pixels.
//
// Outputs:
//   - model.ImageArtifact: a PNG.
//   - error: a FrameExtractionFailed or Timeout *model.Error.
func (s *FrameSampler) CaptureFrameAt(ctx context.Context, video []byte, timestamp float64, width int, height int) (model.ImageArtifact, error) {
	ctx, span := s.tracer.Start(ctx, "capture-frame")
	defer span.End()
	span.SetAttributes(attribute.Float64("timestamp", timestamp))

	if width <= 0 || height <= 0 {
		return model.ImageArtifact{}, model.Errorf(model.KindFrameExtractionFailed, "invalid capture size %dx%d", width, height)
	}
	path, cleanup, err := writeTemp(video)
	if err != nil {
		return model.ImageArtifact{}, err
	}
	defer cleanup()

	info, err := s.probe(ctx, path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.ImageArtifact{}, err
	}
	timestamp = ClampTimestamp(timestamp, info.DurationS)

	crop := CropRect(info.Width, info.Height, width, height)
	filter := fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d",
		crop.Dx(), crop.Dy(), crop.Min.X, crop.Min.Y, width, height)
	data, err := s.decode(ctx, path, timestamp, filter, "png")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.ImageArtifact{}, err
	}
	span.SetStatus(codes.Ok, "success")
	return model.NewImageArtifact("image/png", data), nil
}

// ClampTimestamp keeps a seek position inside [0, duration - 0.1] so ffmpeg
// still finds a frame after it.
func ClampTimestamp(timestamp float64, duration float64) float64 {
	last := duration - 0.1
	if last < 0 {
		last = 0
	}
	if timestamp > last {
		timestamp = last
	}
	if timestamp < 0 {
		timestamp = 0
	}
	return timestamp
}

// decode runs ffmpeg for a single frame and returns the encoded image.
func (s *FrameSampler) decode(ctx context.Context, path string, timestamp float64, filter string, codec string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", filter,
		"-f", "image2pipe",
		"-vcodec", codec,
		"pipe:1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, extractionError(ctx, fmt.Sprintf("ffmpeg failed at %.3fs", timestamp), err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, model.Errorf(model.KindFrameExtractionFailed, "no frame decoded at %.3fs", timestamp)
	}
	return stdout.Bytes(), nil
}

func extractionError(ctx context.Context, reason string, err error, stderr string) error {
	if ctx.Err() != nil {
		return model.Classify(ctx.Err(), model.KindFrameExtractionFailed)
	}
	slog.Debug(reason, "error", err, "stderr", stderr)
	return model.NewError(model.KindFrameExtractionFailed, reason, err)
}

// writeTemp stores video in a temporary file named with its sniffed
// extension, since ffmpeg picks demuxers by extension for some containers.
func writeTemp(video []byte) (string, func(), error) {
	if len(video) == 0 {
		return "", func() {}, model.Errorf(model.KindFrameExtractionFailed, "no video loaded")
	}
	file, err := os.CreateTemp("", tempFilePrefix+"*."+Extension(video))
	if err != nil {
		return "", func() {}, model.NewError(model.KindFrameExtractionFailed, "failed to create temporary file", err)
	}
	cleanup := func() {
		if err := os.Remove(file.Name()); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary video", "path", file.Name(), "error", err)
		}
	}
	if _, err := file.Write(video); err != nil {
		_ = file.Close()
		cleanup()
		return "", func() {}, model.NewError(model.KindFrameExtractionFailed, "failed to write temporary file", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", func() {}, model.NewError(model.KindFrameExtractionFailed, "failed to write temporary file", err)
	}
	return file.Name(), cleanup, nil
}
