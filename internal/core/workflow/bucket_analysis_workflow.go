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
	"github.com/jaycherian/gcp-go-take-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
)

// BucketAnalysisWorkflow is attached to the Pub/Sub listener of the staging
// bucket. Every video dropped into the bucket is analysed and the result is
// published to the analysis results topic:
//
//	media-trigger-to-gcs-object -> gcs-to-video-asset -> (analysis steps) ->
//	publish-analysis
//
// The triggering object is referenced in place and never deleted.
type BucketAnalysisWorkflow struct {
	cor.BaseCommand
	options AnalysisOptions
	chain   cor.Chain
}

// NewBucketAnalysisWorkflow builds the workflow.
func NewBucketAnalysisWorkflow(options AnalysisOptions) *BucketAnalysisWorkflow {
	out := &BucketAnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand("bucket-analysis-workflow"),
		options:     options,
	}
	out.initializeChain()
	return out
}

func (w *BucketAnalysisWorkflow) initializeChain() {
	chain := cor.NewBaseChain(w.GetName())
	chain.AddCommand(commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object"))
	chain.AddCommand(commands.NewGCSToVideoAsset("gcs-to-video-asset", w.options.StorageClient, w.options.MaxObjectBytes))
	addAnalysisSteps(chain, w.options)
	chain.AddCommand(commands.NewPublishAnalysis("publish-analysis", w.options.Publisher))
	w.chain = chain
}

// Execute runs the chain; the input is the raw notification text.
func (w *BucketAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
