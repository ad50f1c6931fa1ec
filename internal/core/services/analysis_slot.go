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

// Package services holds the session level logic behind the HTTP API and the
// CLI: sessions and their analysis slot, the analysis and edit services, the
// short video URL lookup and the preference store.
package services

import (
	"sync"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

// AnalysisState is the lifecycle state of a session's analysis.
type AnalysisState string

const (
	AnalysisIdle    AnalysisState = "idle"
	AnalysisRunning AnalysisState = "running"
	AnalysisDone    AnalysisState = "done"
	AnalysisFailed  AnalysisState = "failed"
)

// AnalysisView is a copy of the slot for display.
type AnalysisView struct {
	State        AnalysisState         `json:"state"`
	Token        uint64                `json:"token"`
	Result       *model.AnalysisResult `json:"result,omitempty"`
	Err          error                 `json:"-"`
	MasterPrompt string                `json:"master_prompt,omitempty"`
	Headers      []string              `json:"headers,omitempty"`
}

// AnalysisSlot holds the latest analysis of a session. Every Begin issues a
// new token; only the holder of the latest token can resolve the slot, so
// the last request wins and earlier answers are dropped.
type AnalysisSlot struct {
	mu     sync.Mutex
	token  uint64
	state  AnalysisState
	result *model.AnalysisResult
	err    error
}

// NewAnalysisSlot returns an idle slot.
func NewAnalysisSlot() *AnalysisSlot {
	return &AnalysisSlot{state: AnalysisIdle}
}

// Begin marks the slot running and returns the token of the new request.
func (s *AnalysisSlot) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.state = AnalysisRunning
	s.result = nil
	s.err = nil
	return s.token
}

// Resolve stores the outcome of the request holding token. It reports false,
// leaving the slot untouched, when a later request or an Invalidate
// superseded the token.
func (s *AnalysisSlot) Resolve(token uint64, result *model.AnalysisResult, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || s.state != AnalysisRunning {
		return false
	}
	if err != nil {
		s.state = AnalysisFailed
		s.err = err
		return true
	}
	s.state = AnalysisDone
	s.result = result
	return true
}

// Invalidate returns the slot to idle and supersedes any running request.
func (s *AnalysisSlot) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.state = AnalysisIdle
	s.result = nil
	s.err = nil
}

// Token is the token of the latest request.
func (s *AnalysisSlot) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// View copies the slot. A finished analysis carries its master prompt and
// take headers.
func (s *AnalysisSlot) View() AnalysisView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := AnalysisView{State: s.state, Token: s.token, Err: s.err}
	if s.result != nil {
		out.Result = s.result.Clone()
		out.MasterPrompt = takes.MasterPrompt(s.result.Takes)
		out.Headers = make([]string, 0, len(s.result.Takes))
		for _, take := range s.result.Takes {
			out.Headers = append(out.Headers, takes.Header(take))
		}
	}
	return out
}
