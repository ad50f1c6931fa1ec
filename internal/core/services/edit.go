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
	"errors"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/history"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// ImageEditor runs one edit against the image model. imageedit.Editor is
// the production implementation.
type ImageEditor interface {
	Edit(ctx context.Context, location model.Location, base model.ImageArtifact, req imageedit.Request) (model.ImageArtifact, error)
}

// EditService drives the two edit chains of a session: frame capture into
// the primary chain, edits on either chain, acceptance of continuation
// results, reverts and retries.
type EditService struct {
	editor        ImageEditor
	frames        FrameSource
	captureWidth  int
	captureHeight int
	framesTimeout time.Duration
}

// EditServiceOptions configures NewEditService.
type EditServiceOptions struct {
	Editor        ImageEditor
	Frames        FrameSource   // Used by Capture; may be nil when capture is not offered.
	CaptureWidth  int           // Width of captured frames.
	CaptureHeight int           // Height of captured frames.
	FramesTimeout time.Duration // Bounds one capture.
}

// NewEditService returns the service.
func NewEditService(opts EditServiceOptions) *EditService {
	return &EditService{
		editor:        opts.Editor,
		frames:        opts.Frames,
		captureWidth:  opts.CaptureWidth,
		captureHeight: opts.CaptureHeight,
		framesTimeout: opts.FramesTimeout,
	}
}

// Capture grabs the frame at timestamp, crops it to the capture aspect
// ratio and roots the primary chain at it. The continuation chain is
// emptied and an edit in flight becomes stale.
//
// Inputs:
//   - ctx: the request context.
//   - session: the session whose video is sampled.
//   - timestamp: seconds from the start, clamped to the video.
//
// Outputs:
//   - model.ImageArtifact: the captured PNG.
//   - error: ErrNoVideo, or a FrameExtractionFailed / Timeout *model.Error.
func (s *EditService) Capture(ctx context.Context, session *Session, timestamp float64) (model.ImageArtifact, error) {
	asset, ok := session.Video()
	if !ok {
		return model.ImageArtifact{}, ErrNoVideo
	}
	if s.frames == nil {
		return model.ImageArtifact{}, model.Errorf(model.KindFrameExtractionFailed, "frame capture is not available")
	}
	ctx, cancel := context.WithTimeout(ctx, s.framesTimeout)
	defer cancel()
	frame, err := s.frames.CaptureFrameAt(ctx, asset.Data, timestamp, s.captureWidth, s.captureHeight)
	if err != nil {
		return model.ImageArtifact{}, model.Classify(err, model.KindFrameExtractionFailed)
	}
	session.History.CaptureFrame(frame)
	slog.InfoContext(ctx, "frame captured", "session", session.ID, "timestamp", timestamp)
	return frame, nil
}

// UploadContinuationBase roots the continuation chain at an uploaded image.
func (s *EditService) UploadContinuationBase(session *Session, data []byte) (model.ImageArtifact, error) {
	image, err := media.ImageArtifact(data)
	if err != nil {
		return model.ImageArtifact{}, err
	}
	session.History.UploadContinuationBase(image)
	return image, nil
}

// ApplyPrimary edits the head of the primary chain. On success the result
// is appended and becomes the base of the continuation chain.
func (s *EditService) ApplyPrimary(ctx context.Context, session *Session, req imageedit.Request) (history.Outcome, error) {
	return s.run(ctx, session, model.LocationPrimary, req)
}

// ProposeContinuation edits the head of the continuation chain. On success
// the result waits for Accept or Discard.
func (s *EditService) ProposeContinuation(ctx context.Context, session *Session, req imageedit.Request) (history.Outcome, error) {
	return s.run(ctx, session, model.LocationContinuation, req)
}

// Retry re-runs the last failed request of the chain at location against
// the chain's current head.
func (s *EditService) Retry(ctx context.Context, session *Session, location model.Location) (history.Outcome, error) {
	failed, ok := session.History.LastError(location)
	if !ok {
		return history.Outcome{Location: location}, ErrNothingToRetry
	}
	return s.run(ctx, session, location, failed.Request)
}

// Accept appends the pending continuation result.
func (s *EditService) Accept(session *Session) (model.ImageArtifact, error) {
	return session.History.AcceptContinuation()
}

// Discard drops the pending continuation result.
func (s *EditService) Discard(session *Session) bool {
	return session.History.DiscardContinuation()
}

// Revert truncates the chain at location after index.
func (s *EditService) Revert(session *Session, location model.Location, index int) error {
	return session.History.RevertTo(location, index)
}

// run reserves the session, calls the model without holding any lock and
// hands the outcome back to the engine, which drops it when it went stale
// in the meantime.
func (s *EditService) run(ctx context.Context, session *Session, location model.Location, req imageedit.Request) (history.Outcome, error) {
	if err := req.Validate(location); err != nil {
		return history.Outcome{Location: location}, err
	}
	ticket, err := session.History.BeginEdit(location, req)
	if err != nil {
		return history.Outcome{Location: location}, err
	}
	log := slog.With("session", session.ID, "location", location, "ticket", ticket.ID, "operation", req.Operation)
	log.InfoContext(ctx, "edit started")

	result, editErr := s.editor.Edit(ctx, location, ticket.Base, req)
	outcome, err := session.History.CompleteEdit(ticket, result, editErr)
	switch {
	case errors.Is(err, model.ErrStaleResponseDiscarded):
		log.DebugContext(ctx, "stale edit discarded")
	case err != nil:
		log.WarnContext(ctx, "edit failed", "error", err)
	default:
		log.InfoContext(ctx, "edit finished", "pending", outcome.Pending)
	}
	return outcome, err
}
