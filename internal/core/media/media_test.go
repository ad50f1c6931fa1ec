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

package media_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	test "github.com/jaycherian/gcp-go-take-studio/internal/testutil"
)

func TestDetectVideo(t *testing.T) {
	mimeType, err := media.DetectVideo(test.MP4Header())
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", mimeType)

	_, err = media.DetectVideo(test.PNG(2, 2, color.White))
	assert.ErrorIs(t, err, model.ErrInvalidFileType)

	_, err = media.DetectVideo([]byte("just some text"))
	assert.ErrorIs(t, err, model.ErrInvalidFileType)
}

func TestDetectImage(t *testing.T) {
	mimeType, err := media.DetectImage(test.PNG(2, 2, color.White))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	_, err = media.DetectImage(test.MP4Header())
	assert.ErrorIs(t, err, model.ErrInvalidFileType)

	artifact, err := media.ImageArtifact(test.PNG(1, 1, color.Black))
	require.NoError(t, err)
	assert.Equal(t, "image/png", artifact.MIMEType)
	assert.Equal(t, "png", media.Extension(artifact.Data))
	assert.Equal(t, "bin", media.Extension([]byte{1, 2, 3}))
}

func TestSampleTimestamps(t *testing.T) {
	ts := media.SampleTimestamps(10, 20)
	require.Len(t, ts, 20)
	assert.Equal(t, 0.0, ts[0])
	assert.InDelta(t, 9.75, ts[19], 1e-9)
	for i := 1; i < len(ts); i++ {
		assert.Greater(t, ts[i], ts[i-1])
		assert.LessOrEqual(t, ts[i], 10.0)
	}

	assert.Equal(t, []float64{0}, media.SampleTimestamps(10, 1))
	assert.Nil(t, media.SampleTimestamps(10, 0))

	short := media.SampleTimestamps(0.4, 3)
	assert.Equal(t, []float64{0, 0.2, 0.4}, short)
}

func TestCropRect(t *testing.T) {
	// Landscape source: the width is cropped around the centre.
	assert.Equal(t, image.Rect(656, 0, 1264, 1080), media.CropRect(1920, 1080, 576, 1024))

	// Same ratio: nothing is cropped.
	assert.Equal(t, image.Rect(0, 0, 720, 1280), media.CropRect(720, 1280, 576, 1024))

	// Taller than 9:16: the height is cropped around the centre.
	assert.Equal(t, image.Rect(0, 240, 1080, 2160), media.CropRect(1080, 2400, 576, 1024))

	assert.Equal(t, image.Rectangle{}, media.CropRect(0, 1080, 576, 1024))
}

func TestParseRotatedStream(t *testing.T) {
	cases := []struct {
		name   string
		stream string
		width  int
		height int
	}{
		{"no rotation", `{"width":1920,"height":1080}`, 1920, 1080},
		{"display matrix", `{"width":1920,"height":1080,"side_data_list":[{"rotation":-90}]}`, 1080, 1920},
		{"rotate tag", `{"width":1920,"height":1080,"tags":{"rotate":"270"}}`, 1080, 1920},
		{"upside down", `{"width":1920,"height":1080,"side_data_list":[{"rotation":180}]}`, 1920, 1080},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := []byte(`{"format":{"duration":"12.5"},"streams":[` + tc.stream + `]}`)
			info, err := media.ParseStreamInfo(out)
			require.NoError(t, err)
			assert.Equal(t, 12.5, info.DurationS)
			assert.Equal(t, tc.width, info.Width)
			assert.Equal(t, tc.height, info.Height)
		})
	}

	// A portrait phone clip stored as 1920x1080 with a quarter turn is
	// already 9:16 once decoded, so the capture keeps the whole frame.
	info, err := media.ParseStreamInfo([]byte(`{"format":{"duration":"3"},"streams":[{"width":1920,"height":1080,"side_data_list":[{"rotation":90}]}]}`))
	require.NoError(t, err)
	crop := media.CropRect(info.Width, info.Height, 576, 1024)
	assert.Equal(t, image.Rect(0, 0, 1080, 1920), crop)
	assert.True(t, crop.In(image.Rect(0, 0, info.Width, info.Height)))
}

func TestParseStreamInfoRejectsMissingStream(t *testing.T) {
	_, err := media.ParseStreamInfo([]byte(`{"format":{"duration":"3"},"streams":[]}`))
	assert.ErrorIs(t, err, model.ErrFrameExtractionFailed)

	_, err = media.ParseStreamInfo([]byte(`{"format":{"duration":"N/A"},"streams":[{"width":2,"height":2}]}`))
	assert.ErrorIs(t, err, model.ErrFrameExtractionFailed)

	_, err = media.ParseStreamInfo([]byte(`not json`))
	assert.ErrorIs(t, err, model.ErrFrameExtractionFailed)
}

func TestClampTimestamp(t *testing.T) {
	assert.Equal(t, 0.0, media.ClampTimestamp(-1, 10))
	assert.Equal(t, 4.0, media.ClampTimestamp(4, 10))
	assert.InDelta(t, 9.9, media.ClampTimestamp(12, 10), 1e-9)
	assert.Equal(t, 0.0, media.ClampTimestamp(3, 0.05))
}

// testVideo renders a short synthetic clip with ffmpeg's test source.
func testVideo(t *testing.T) []byte {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}
	out := filepath.Join(t.TempDir(), "clip.mp4")
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=3:size=320x240:rate=10",
		"-c:v", "mpeg4", "-y", out)
	require.NoError(t, cmd.Run())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data
}

func TestFrameSamplerWithFFmpeg(t *testing.T) {
	video := testVideo(t)
	sampler := media.NewFrameSampler("", "", 3)
	require.True(t, sampler.Available())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	frames, info, err := sampler.ExtractFrames(ctx, video, 5, 160)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, info.DurationS, 0.2)
	assert.Equal(t, 320, info.Width)
	require.Len(t, frames, 5)
	assert.Equal(t, 0.0, frames[0].TimestampS)
	for _, f := range frames {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(f.Image.Data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 160, cfg.Width)
	}

	captured, err := sampler.CaptureFrameAt(ctx, video, 99, media.DefaultCaptureWidth, media.DefaultCaptureHeight)
	require.NoError(t, err)
	assert.Equal(t, "image/png", captured.MIMEType)
	cfg, err := png.DecodeConfig(bytes.NewReader(captured.Data))
	require.NoError(t, err)
	assert.Equal(t, 576, cfg.Width)
	assert.Equal(t, 1024, cfg.Height)
}

func TestFrameSamplerRejectsGarbage(t *testing.T) {
	testVideo(t)
	sampler := media.NewFrameSampler("", "", 1)
	_, _, err := sampler.ExtractFrames(context.Background(), []byte("not a video at all"), 3, 160)
	assert.ErrorIs(t, err, model.ErrFrameExtractionFailed)

	_, err = sampler.CaptureFrameAt(context.Background(), nil, 0, 576, 1024)
	assert.ErrorIs(t, err, model.ErrFrameExtractionFailed)
}
