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

package services

import (
	"context"
	"time"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// FrameSource samples stills from encoded video. media.FrameSampler is the
// production implementation.
type FrameSource interface {
	ExtractFrames(ctx context.Context, video []byte, count int, width int) ([]model.Frame, model.VideoInfo, error)
	CaptureFrameAt(ctx context.Context, video []byte, timestamp float64, width int, height int) (model.ImageArtifact, error)
}

// FrameService serves the thumbnail strip of a session's video.
type FrameService struct {
	source  FrameSource
	width   int
	timeout time.Duration
}

// NewFrameService returns the service. width is the thumbnail width.
func NewFrameService(source FrameSource, width int, timeout time.Duration) *FrameService {
	return &FrameService{source: source, width: width, timeout: timeout}
}

// Thumbnails returns count evenly spaced frames of the session's video,
// sampling once per count and caching the result on the session.
func (s *FrameService) Thumbnails(ctx context.Context, session *Session, count int) ([]model.Frame, error) {
	asset, ok := session.Video()
	if !ok {
		return nil, ErrNoVideo
	}
	if frames, ok := session.Frames(count, s.width); ok {
		return frames, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	frames, _, err := s.source.ExtractFrames(ctx, asset.Data, count, s.width)
	if err != nil {
		return nil, model.Classify(err, model.KindFrameExtractionFailed)
	}
	session.StoreFrames(asset.ID, count, s.width, frames)
	return frames, nil
}
