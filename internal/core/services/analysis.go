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
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// Analyzer runs one take analysis. workflow.TakeAnalysisWorkflow is the
// production implementation.
type Analyzer interface {
	Run(ctx context.Context, asset *model.VideoAsset) (*model.AnalysisResult, error)
}

// AnalysisService starts analyses in the background and stores their
// outcome in the session's AnalysisSlot.
type AnalysisService struct {
	analyzer Analyzer
	timeout  time.Duration
}

// NewAnalysisService returns the service; timeout bounds every analysis.
func NewAnalysisService(analyzer Analyzer, timeout time.Duration) *AnalysisService {
	return &AnalysisService{analyzer: analyzer, timeout: timeout}
}

// Start analyses the session's video asynchronously.
//
// A new request supersedes the previous one: the earlier request is
// cancelled and its outcome, should it still arrive, is discarded.
//
// Inputs:
//   - session: the session whose video is analysed.
//
// Outputs:
//   - uint64: the token of the request, visible in AnalysisSlot.View.
//   - error: ErrNoVideo when nothing is loaded.
func (s *AnalysisService) Start(session *Session) (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	asset, token, err := session.beginAnalysis(cancel)
	if err != nil {
		cancel()
		return 0, err
	}

	go func() {
		defer cancel()
		slog.InfoContext(ctx, "analysis started", "session", session.ID, "token", token, "video", asset.ID)
		result, err := s.analyzer.Run(ctx, asset)
		err = model.Classify(err, model.KindAnalysisFailed)
		if !session.Analysis.Resolve(token, result, err) {
			slog.Debug("stale analysis discarded", "session", session.ID, "token", token)
			return
		}
		if err != nil {
			slog.Warn("analysis failed", "session", session.ID, "token", token, "error", err)
			return
		}
		slog.Info("analysis finished", "session", session.ID, "token", token, "takes", len(result.Takes))
	}()
	return token, nil
}

// Retry re-issues the analysis with the retained video after a failure.
func (s *AnalysisService) Retry(session *Session) (uint64, error) {
	if session.Analysis.View().State != AnalysisFailed {
		return 0, ErrNothingToRetry
	}
	return s.Start(session)
}
