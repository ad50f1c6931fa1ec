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

package services_test

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/history"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
	test "github.com/jaycherian/gcp-go-take-studio/internal/testutil"
)

func png(c color.Color) model.ImageArtifact {
	return model.NewImageArtifact("image/png", test.PNG(2, 2, c))
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

// fakeAnalyzer blocks every Run until the gate opens, then answers with
// the result or error configured at that moment.
type fakeAnalyzer struct {
	mu     sync.Mutex
	open   sync.Once
	gate   chan struct{}
	result *model.AnalysisResult
	err    error
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{gate: make(chan struct{})}
}

func (f *fakeAnalyzer) set(result *model.AnalysisResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = result, err
}

// answer sets the answer and opens the gate for good.
func (f *fakeAnalyzer) answer(result *model.AnalysisResult, err error) {
	f.set(result, err)
	f.open.Do(func() { close(f.gate) })
}

func (f *fakeAnalyzer) Run(ctx context.Context, _ *model.VideoAsset) (*model.AnalysisResult, error) {
	select {
	case <-f.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

// videoAnalyzer records which video each uncancelled run analysed.
type videoAnalyzer struct {
	gate     chan struct{}
	mu       sync.Mutex
	done     int
	analysed []string
}

func (f *videoAnalyzer) Run(ctx context.Context, asset *model.VideoAsset) (*model.AnalysisResult, error) {
	defer func() {
		f.mu.Lock()
		f.done++
		f.mu.Unlock()
	}()
	select {
	case <-f.gate:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.analysed = append(f.analysed, asset.ID)
	f.mu.Unlock()
	return test.SampleAnalysis(16), nil
}

func (f *videoAnalyzer) finished() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done, append([]string(nil), f.analysed...)
}

type fakeFrames struct {
	frame model.ImageArtifact
	err   error
}

func (f *fakeFrames) ExtractFrames(_ context.Context, _ []byte, count int, _ int) ([]model.Frame, model.VideoInfo, error) {
	out := make([]model.Frame, count)
	for i := range out {
		out[i] = model.Frame{TimestampS: float64(i), Image: f.frame}
	}
	return out, model.VideoInfo{DurationS: float64(count)}, f.err
}

func (f *fakeFrames) CaptureFrameAt(_ context.Context, _ []byte, _ float64, _ int, _ int) (model.ImageArtifact, error) {
	return f.frame, f.err
}

type editReply struct {
	image model.ImageArtifact
	err   error
	gate  chan struct{}
}

type fakeEditor struct {
	mu      sync.Mutex
	replies []editReply
	bases   []model.ImageArtifact
}

func (f *fakeEditor) Edit(ctx context.Context, _ model.Location, base model.ImageArtifact, _ imageedit.Request) (model.ImageArtifact, error) {
	f.mu.Lock()
	reply := f.replies[0]
	f.replies = f.replies[1:]
	f.bases = append(f.bases, base)
	f.mu.Unlock()
	if reply.gate != nil {
		<-reply.gate
	}
	return reply.image, reply.err
}

func sessionWithVideo() *services.Session {
	session := services.NewSession()
	session.SetVideo(model.NewVideoAsset("clip.mp4", "video/mp4", test.MP4Header()))
	return session
}

var tied = imageedit.Request{Operation: imageedit.OpSetHairStyle, HairStyle: imageedit.HairTied}

func TestAnalysisSlotLastRequestWins(t *testing.T) {
	slot := services.NewAnalysisSlot()
	assert.Equal(t, services.AnalysisIdle, slot.View().State)

	first := slot.Begin()
	second := slot.Begin()
	assert.False(t, slot.Resolve(first, test.SampleAnalysis(7), nil))
	assert.Equal(t, services.AnalysisRunning, slot.View().State)

	require.True(t, slot.Resolve(second, test.SampleAnalysis(16), nil))
	view := slot.View()
	assert.Equal(t, services.AnalysisDone, view.State)
	assert.Equal(t, second, view.Token)
	assert.Len(t, view.Headers, 3)
	assert.Contains(t, view.MasterPrompt, "[TAKE 1 00:00–00:07]")

	assert.False(t, slot.Resolve(second, nil, errors.New("late")), "a resolved token is spent")
}

func TestAnalysisSlotInvalidate(t *testing.T) {
	slot := services.NewAnalysisSlot()
	token := slot.Begin()
	slot.Invalidate()
	assert.False(t, slot.Resolve(token, test.SampleAnalysis(7), nil))
	view := slot.View()
	assert.Equal(t, services.AnalysisIdle, view.State)
	assert.Nil(t, view.Result)
}

func TestSessionManager(t *testing.T) {
	manager := services.NewSessionManager()
	session := manager.Create()
	assert.NotEmpty(t, session.ID)

	got, err := manager.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	session.SetVideo(model.NewVideoAsset("clip.mp4", "video/mp4", test.MP4Header()))
	session.History.CaptureFrame(png(red))
	require.NoError(t, manager.Reset(session.ID))
	_, ok := session.Video()
	assert.False(t, ok)
	assert.Equal(t, history.PhaseEmpty, session.History.Snapshot().Primary.State.Phase)

	require.NoError(t, manager.Delete(session.ID))
	_, err = manager.Get(session.ID)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
	assert.ErrorIs(t, manager.Delete(session.ID), services.ErrSessionNotFound)
	assert.Zero(t, manager.Len())
}

func TestAnalysisServiceLastRequestWins(t *testing.T) {
	analyzer := newFakeAnalyzer()
	svc := services.NewAnalysisService(analyzer, time.Minute)
	session := sessionWithVideo()

	first, err := svc.Start(session)
	require.NoError(t, err)
	second, err := svc.Start(session)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	analyzer.answer(test.SampleAnalysis(16), nil)
	require.Eventually(t, func() bool {
		return session.Analysis.View().State == services.AnalysisDone
	}, 2*time.Second, 5*time.Millisecond)

	view := session.Analysis.View()
	assert.Equal(t, second, view.Token)
	assert.Len(t, view.Result.Takes, 3)
}

func TestAnalysisServiceConcurrentStartAndSetVideo(t *testing.T) {
	for round := 0; round < 20; round++ {
		analyzer := &videoAnalyzer{gate: make(chan struct{})}
		svc := services.NewAnalysisService(analyzer, time.Minute)
		session := sessionWithVideo()
		next := model.NewVideoAsset("other.mp4", "video/mp4", append(test.MP4Header(), 1))

		const starts = 16
		var wg sync.WaitGroup
		for i := 0; i < starts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Start(session)
				assert.NoError(t, err)
			}()
			if i == starts/2 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					session.SetVideo(next)
				}()
			}
		}
		wg.Wait()
		before := session.Analysis.View()
		close(analyzer.gate)

		require.Eventually(t, func() bool {
			done, _ := analyzer.finished()
			return done == starts
		}, 2*time.Second, 5*time.Millisecond)
		_, analysed := analyzer.finished()

		switch before.State {
		case services.AnalysisIdle:
			// The new video landed last, so every request was cancelled.
			assert.Empty(t, analysed)
			assert.Equal(t, services.AnalysisIdle, session.Analysis.View().State)
		case services.AnalysisRunning:
			// Exactly the newest request survives, and it saw the new video.
			require.Equal(t, []string{next.ID}, analysed)
			require.Eventually(t, func() bool {
				return session.Analysis.View().State == services.AnalysisDone
			}, 2*time.Second, 5*time.Millisecond)
			assert.Equal(t, before.Token, session.Analysis.View().Token)
		default:
			t.Fatalf("unexpected state %q", before.State)
		}
	}
}

func TestAnalysisServiceFailureAndRetry(t *testing.T) {
	analyzer := newFakeAnalyzer()
	svc := services.NewAnalysisService(analyzer, time.Minute)
	session := sessionWithVideo()

	_, err := svc.Retry(session)
	assert.ErrorIs(t, err, services.ErrNothingToRetry)

	_, err = svc.Start(session)
	require.NoError(t, err)
	analyzer.answer(nil, errors.New("model unavailable"))
	require.Eventually(t, func() bool {
		return session.Analysis.View().State == services.AnalysisFailed
	}, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, session.Analysis.View().Err, model.ErrAnalysisFailed)

	analyzer.set(test.SampleAnalysis(7), nil)
	_, err = svc.Retry(session)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return session.Analysis.View().State == services.AnalysisDone
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAnalysisServiceNeedsVideo(t *testing.T) {
	svc := services.NewAnalysisService(newFakeAnalyzer(), time.Minute)
	_, err := svc.Start(services.NewSession())
	assert.ErrorIs(t, err, services.ErrNoVideo)
}

func TestNewVideoInvalidatesAnalysis(t *testing.T) {
	analyzer := newFakeAnalyzer()
	svc := services.NewAnalysisService(analyzer, time.Minute)
	session := sessionWithVideo()
	_, err := svc.Start(session)
	require.NoError(t, err)

	session.SetVideo(model.NewVideoAsset("other.mp4", "video/mp4", append(test.MP4Header(), 1)))
	analyzer.answer(test.SampleAnalysis(16), nil)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, services.AnalysisIdle, session.Analysis.View().State)
}

func TestFrameServiceCachesThumbnails(t *testing.T) {
	frames := &fakeFrames{frame: png(red)}
	svc := services.NewFrameService(frames, 360, time.Minute)
	session := sessionWithVideo()

	got, err := svc.Thumbnails(context.Background(), session, 4)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	frames.err = errors.New("ffmpeg gone")
	again, err := svc.Thumbnails(context.Background(), session, 4)
	require.NoError(t, err, "served from cache")
	assert.Equal(t, got, again)

	_, err = svc.Thumbnails(context.Background(), session, 5)
	assert.ErrorIs(t, err, model.ErrFrameExtractionFailed)
}

func newEditService(editor *fakeEditor, frame model.ImageArtifact) *services.EditService {
	return services.NewEditService(services.EditServiceOptions{
		Editor:        editor,
		Frames:        &fakeFrames{frame: frame},
		CaptureWidth:  576,
		CaptureHeight: 1024,
		FramesTimeout: time.Minute,
	})
}

func TestEditServiceFlow(t *testing.T) {
	editor := &fakeEditor{replies: []editReply{{image: png(green)}, {image: png(blue)}}}
	svc := newEditService(editor, png(red))
	session := sessionWithVideo()
	ctx := context.Background()

	_, err := svc.ApplyPrimary(ctx, session, tied)
	assert.ErrorIs(t, err, history.ErrChainEmpty)

	frame, err := svc.Capture(ctx, session, 3.5)
	require.NoError(t, err)
	assert.Equal(t, png(red), frame)

	outcome, err := svc.ApplyPrimary(ctx, session, tied)
	require.NoError(t, err)
	assert.Equal(t, png(green), outcome.Head)
	assert.Equal(t, png(red), editor.bases[0])

	next := imageedit.Request{Operation: imageedit.OpContinuationInstruction, Instruction: "now she waves"}
	outcome, err = svc.ProposeContinuation(ctx, session, next)
	require.NoError(t, err)
	assert.True(t, outcome.Pending)
	assert.Equal(t, png(green), editor.bases[1], "continuation starts from the primary result")

	accepted, err := svc.Accept(session)
	require.NoError(t, err)
	assert.Equal(t, png(blue), accepted)
	assert.False(t, svc.Discard(session))

	snap := session.History.Snapshot()
	assert.Len(t, snap.Primary.Entries, 2)
	assert.Len(t, snap.Continuation.Entries, 2)

	require.NoError(t, svc.Revert(session, model.LocationContinuation, 0))
	assert.Len(t, session.History.Snapshot().Continuation.Entries, 1)
	assert.ErrorIs(t, svc.Revert(session, model.LocationPrimary, 5), history.ErrIndexOutOfRange)
}

func TestEditServiceRejectsInvalidRequestBeforeReserving(t *testing.T) {
	editor := &fakeEditor{}
	svc := newEditService(editor, png(red))
	session := sessionWithVideo()
	session.History.CaptureFrame(png(red))

	next := imageedit.Request{Operation: imageedit.OpContinuationInstruction, Instruction: "go on"}
	_, err := svc.ApplyPrimary(context.Background(), session, next)
	assert.ErrorIs(t, err, imageedit.ErrInvalidRequest)
	_, ok := session.History.LastError(model.LocationPrimary)
	assert.False(t, ok, "invalid requests are not kept for retry")
}

func TestEditServiceRetry(t *testing.T) {
	editor := &fakeEditor{replies: []editReply{
		{err: model.Errorf(model.KindBlockedByPolicy, "SAFETY")},
		{image: png(green)},
	}}
	svc := newEditService(editor, png(red))
	session := sessionWithVideo()
	ctx := context.Background()

	_, err := svc.Retry(ctx, session, model.LocationPrimary)
	assert.ErrorIs(t, err, services.ErrNothingToRetry)

	session.History.CaptureFrame(png(red))
	outcome, err := svc.ApplyPrimary(ctx, session, tied)
	assert.ErrorIs(t, err, model.ErrBlockedByPolicy)
	assert.Equal(t, png(red), outcome.Head)
	assert.Equal(t, model.KindBlockedByPolicy, session.History.Snapshot().Primary.ErrorKind)

	outcome, err = svc.Retry(ctx, session, model.LocationPrimary)
	require.NoError(t, err)
	assert.Equal(t, png(green), outcome.Head)
	_, ok := session.History.LastError(model.LocationPrimary)
	assert.False(t, ok)
}

func TestEditServiceDropsStaleResult(t *testing.T) {
	gate := make(chan struct{})
	editor := &fakeEditor{replies: []editReply{{image: png(green), gate: gate}}}
	svc := newEditService(editor, png(blue))
	session := sessionWithVideo()
	session.History.CaptureFrame(png(red))

	done := make(chan error, 1)
	go func() {
		_, err := svc.ApplyPrimary(context.Background(), session, tied)
		done <- err
	}()
	require.Eventually(t, func() bool {
		_, busy := session.History.InFlight()
		return busy
	}, 2*time.Second, time.Millisecond)

	_, err := svc.ApplyPrimary(context.Background(), session, tied)
	assert.ErrorIs(t, err, history.ErrEditInFlight)

	_, err = svc.Capture(context.Background(), session, 1)
	require.NoError(t, err)
	close(gate)

	assert.ErrorIs(t, <-done, model.ErrStaleResponseDiscarded)
	snap := session.History.Snapshot()
	require.Len(t, snap.Primary.Entries, 1)
	assert.Equal(t, png(blue), snap.Primary.Entries[0])
}

func TestEditServiceUploadContinuationBase(t *testing.T) {
	svc := newEditService(&fakeEditor{}, png(red))
	session := services.NewSession()

	image, err := svc.UploadContinuationBase(session, test.PNG(2, 2, green))
	require.NoError(t, err)
	assert.Equal(t, "image/png", image.MIMEType)
	assert.Equal(t, history.PhaseRooted, session.History.Snapshot().Continuation.State.Phase)

	_, err = svc.UploadContinuationBase(session, []byte("plain text"))
	assert.ErrorIs(t, err, model.ErrInvalidFileType)
}

func TestEditServiceCaptureNeedsVideo(t *testing.T) {
	svc := newEditService(&fakeEditor{}, png(red))
	_, err := svc.Capture(context.Background(), services.NewSession(), 0)
	assert.ErrorIs(t, err, services.ErrNoVideo)
}
