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

package workflow

import (
	"context"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// TakeAnalysisWorkflow analyses a video that is already in memory:
//
//	validate-video-type -> probe-video -> stage-video ->
//	generate-take-analysis -> convert-take-analysis
//
// A video staged to Cloud Storage is deleted once the chain finishes.
type TakeAnalysisWorkflow struct {
	cor.BaseCommand
	options AnalysisOptions
	chain   cor.Chain
	cleanup *commands.StagedVideoCleanup
}

// NewTakeAnalysisWorkflow builds the workflow.
func NewTakeAnalysisWorkflow(options AnalysisOptions) *TakeAnalysisWorkflow {
	out := &TakeAnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand("take-analysis-workflow"),
		options:     options,
	}
	out.initializeChain()
	return out
}

func (w *TakeAnalysisWorkflow) initializeChain() {
	chain := cor.NewBaseChain(w.GetName())
	addAnalysisSteps(chain, w.options)
	w.chain = chain
	w.cleanup = commands.NewStagedVideoCleanup("staged-video-cleanup", w.options.StorageClient)
}

// Execute runs the chain; the input is a *model.VideoAsset.
func (w *TakeAnalysisWorkflow) Execute(context cor.Context) {
	defer func() {
		if w.cleanup.IsExecutable(context) {
			w.cleanup.Execute(context)
		}
	}()
	w.chain.Execute(context)
}

// Run analyses asset and returns the validated result.
//
// Inputs:
//   - ctx: bounds the whole analysis.
//   - asset: the video.
//
// Outputs:
//   - *model.AnalysisResult: the validated analysis.
//   - error: a classified *model.Error; AnalysisFailed unless the failure
//     was more specific (InvalidFileType, Timeout).
func (w *TakeAnalysisWorkflow) Run(ctx context.Context, asset *model.VideoAsset) (*model.AnalysisResult, error) {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, asset)
	defer chainCtx.Close()

	w.Execute(chainCtx)
	return analysisOutcome(chainCtx)
}

func analysisOutcome(chainCtx cor.Context) (*model.AnalysisResult, error) {
	if err := chainCtx.FirstError(); err != nil {
		return nil, model.Classify(err, model.KindAnalysisFailed)
	}
	result, ok := cor.Value[*model.AnalysisResult](chainCtx, commands.AnalysisParam)
	if !ok {
		return nil, model.Errorf(model.KindAnalysisFailed, "the workflow produced no analysis")
	}
	return result, nil
}
