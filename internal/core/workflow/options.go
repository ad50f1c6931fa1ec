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

// Package workflow assembles the cor commands into the take analysis
// pipelines: one for videos handed over directly (uploads, lookups, the
// CLI) and one triggered by Cloud Storage notifications.
package workflow

import (
	"text/template"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/prompts"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

// AnalysisOptions are the dependencies of the analysis workflows.
type AnalysisOptions struct {
	Model          cloud.ContentGenerator // The analysis model.
	Template       *template.Template     // The analysis instruction.
	StorageClient  *storage.Client        // Optional; needed for staging and bucket triggers.
	StagingBucket  string                 // Empty sends videos inline.
	StagingPrefix  string                 // Object name prefix of staged videos.
	Sampler        *media.FrameSampler    // Optional; probes the video duration.
	Publisher      commands.Publisher     // Optional; receives bucket triggered analyses.
	MaxObjectBytes int64                  // Size cap of triggering objects.
}

// NewAnalysisOptions derives the options from the configuration and the
// service clients, and configures the analysis model for structured output.
//
// Inputs:
//   - config: the loaded configuration.
//   - clients: the service clients.
//   - sampler: the frame sampler, may be nil.
//
// Outputs:
//   - AnalysisOptions: the options.
//   - error: a missing model or a template that does not parse.
func NewAnalysisOptions(config *cloud.Config, clients *cloud.ServiceClients, sampler *media.FrameSampler) (AnalysisOptions, error) {
	analysisModel, err := clients.Model(cloud.AnalysisModelName)
	if err != nil {
		return AnalysisOptions{}, err
	}
	takes.ConfigureRequest(analysisModel.GenerativeContentConfig)

	tmpl, err := prompts.NewAnalysisTemplate(config.PromptTemplates.Analysis)
	if err != nil {
		return AnalysisOptions{}, err
	}

	out := AnalysisOptions{
		Model:          analysisModel,
		Template:       tmpl,
		StorageClient:  clients.StorageClient,
		StagingPrefix:  config.Storage.StagingPrefix,
		Sampler:        sampler,
		MaxObjectBytes: config.Lookup.MaxMediaBytes,
	}
	// Only Vertex AI reads gs:// URIs; the Gemini API gets the bytes inline.
	if config.Application.Backend == cloud.BackendVertex {
		out.StagingBucket = config.Storage.StagingBucket
	}
	if clients.Publisher != nil {
		out.Publisher = clients.Publisher
	}
	return out, nil
}

// addAnalysisSteps appends the steps shared by both workflows, from a
// *model.VideoAsset in the chain input to a validated analysis stored under
// commands.AnalysisParam.
func addAnalysisSteps(chain cor.Chain, opts AnalysisOptions) {
	chain.AddCommand(commands.NewVideoTypeValidator("validate-video-type"))
	chain.AddCommand(commands.NewVideoProbe("probe-video", opts.Sampler))
	chain.AddCommand(commands.NewVideoStager("stage-video", opts.StorageClient, opts.StagingBucket, opts.StagingPrefix))
	chain.AddCommand(commands.NewTakeAnalysisCreator("generate-take-analysis", opts.Model, opts.Template))
	chain.AddCommand(commands.NewTakeAnalysisJsonToStruct("convert-take-analysis", commands.AnalysisParam))
}
