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

package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

// Publisher sends a JSON payload to a topic. cloud.ResultPublisher is the
// production implementation.
type Publisher interface {
	Publish(ctx context.Context, payload any, attributes map[string]string) (string, error)
}

// AnalysisMessage is the payload published for every bucket triggered
// analysis.
type AnalysisMessage struct {
	AnalysisID   string                `json:"analysis_id"`
	SourceURI    string                `json:"source_uri"`
	VideoID      string                `json:"video_id"`
	MasterPrompt string                `json:"master_prompt"`
	Headers      []string              `json:"headers"`
	Result       *model.AnalysisResult `json:"result"`
}

// NewAnalysisMessage builds the message. The analysis id is derived from
// the source URI and the video content so a redelivered notification
// publishes the same id.
func NewAnalysisMessage(sourceURI string, videoID string, result *model.AnalysisResult) *AnalysisMessage {
	headers := make([]string, 0, len(result.Takes))
	for _, take := range result.Takes {
		headers = append(headers, takes.Header(take))
	}
	return &AnalysisMessage{
		AnalysisID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceURI+"#"+videoID)).String(),
		SourceURI:    sourceURI,
		VideoID:      videoID,
		MasterPrompt: takes.MasterPrompt(result.Takes),
		Headers:      headers,
		Result:       result,
	}
}

// PublishAnalysis publishes the validated analysis.
type PublishAnalysis struct {
	cor.BaseCommand
	publisher Publisher
}

// NewPublishAnalysis returns the command; with a nil publisher it never runs.
func NewPublishAnalysis(name string, publisher Publisher) *PublishAnalysis {
	out := &PublishAnalysis{BaseCommand: *cor.NewBaseCommand(name), publisher: publisher}
	out.OutputParamName = PublishedIDParam
	return out
}

func (p *PublishAnalysis) IsExecutable(context cor.Context) bool {
	return p.publisher != nil && p.BaseCommand.IsExecutable(context)
}

func (p *PublishAnalysis) Execute(context cor.Context) {
	result, ok := cor.Value[*model.AnalysisResult](context, p.GetInputParam())
	if !ok {
		p.Fail(context, errMissingInput(p.GetInputParam(), "*model.AnalysisResult"))
		return
	}
	var sourceURI, videoID string
	if object, ok := cor.Value[*cloud.GCSObject](context, cloud.GetGCSObjectName()); ok {
		sourceURI = object.URI()
	}
	if asset, ok := cor.Value[*model.VideoAsset](context, VideoAssetParam); ok {
		videoID = asset.ID
	}

	msg := NewAnalysisMessage(sourceURI, videoID, result)
	id, err := p.publisher.Publish(context.GetContext(), msg, map[string]string{
		"analysis_id": msg.AnalysisID,
		"source_uri":  sourceURI,
	})
	if err != nil {
		p.Fail(context, err)
		return
	}
	p.Succeed(context, id)
}
