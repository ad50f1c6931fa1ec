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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/history"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoVideo         = errors.New("the session has no video")
	ErrNothingToRetry  = errors.New("there is no failed request to retry")
)

type frameKey struct {
	count int
	width int
}

// Session is the server side state of one browser tab or CLI run: the
// video, its sampled frames, the analysis slot and the edit history.
type Session struct {
	ID        string
	CreatedAt time.Time
	Analysis  *AnalysisSlot
	History   *history.Engine

	mu             sync.Mutex
	video          *model.VideoAsset
	frames         map[frameKey][]model.Frame
	cancelAnalysis context.CancelFunc
}

// NewSession returns an empty session with a random id.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Analysis:  NewAnalysisSlot(),
		History:   history.NewEngine(),
		frames:    make(map[frameKey][]model.Frame),
	}
}

// Video returns the loaded video.
func (s *Session) Video() (*model.VideoAsset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video, s.video != nil
}

// SetVideo replaces the video. The frame cache is dropped and any analysis
// of the previous video is invalidated; the edit history is kept.
func (s *Session) SetVideo(asset *model.VideoAsset) {
	s.mu.Lock()
	s.video = asset
	clear(s.frames)
	s.stopAnalysisLocked()
	s.Analysis.Invalidate()
	s.mu.Unlock()
}

// Frames returns cached thumbnails sampled with count and width.
func (s *Session) Frames(count int, width int) ([]model.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames, ok := s.frames[frameKey{count, width}]
	return frames, ok
}

// StoreFrames caches thumbnails of the current video. Frames sampled from a
// video that has since been replaced are ignored.
func (s *Session) StoreFrames(videoID string, count int, width int, frames []model.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil || s.video.ID != videoID {
		return
	}
	s.frames[frameKey{count, width}] = frames
}

// beginAnalysis issues a token for the current video and records cancel as
// the live request, cancelling the previous one. Reading the video, issuing
// the token and swapping the cancel happen under one lock so that a
// concurrent SetVideo or Start is ordered wholly before or after.
func (s *Session) beginAnalysis(cancel context.CancelFunc) (*model.VideoAsset, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return nil, 0, ErrNoVideo
	}
	token := s.Analysis.Begin()
	s.stopAnalysisLocked()
	s.cancelAnalysis = cancel
	return s.video, token, nil
}

func (s *Session) stopAnalysisLocked() {
	if s.cancelAnalysis != nil {
		s.cancelAnalysis()
		s.cancelAnalysis = nil
	}
}

// Reset drops the video and frames, invalidates the analysis and empties
// both edit chains.
func (s *Session) Reset() {
	s.mu.Lock()
	s.video = nil
	clear(s.frames)
	s.stopAnalysisLocked()
	s.Analysis.Invalidate()
	s.mu.Unlock()
	s.History.Reset()
}

// SessionManager keeps the live sessions in memory.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager returns an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create registers a new session.
func (m *SessionManager) Create() *Session {
	session := NewSession()
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	slog.Debug("session created", "session", session.ID)
	return session
}

// Get returns the session with id or ErrSessionNotFound.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Reset resets the session with id.
func (m *SessionManager) Reset(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Reset()
	return nil
}

// Delete resets and forgets the session with id.
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	session.Reset()
	slog.Debug("session deleted", "session", id)
	return nil
}

// Len is the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
