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

package imageedit

import (
	"strings"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// DefaultImageMIMEType is assumed when an image part does not name its type.
const DefaultImageMIMEType = "image/png"

// Interpret turns an image model response into the produced image. The
// checks run in a fixed order and the first failing one decides the error,
// so a blocked prompt is reported as blocked even when an image came back.
//
// Inputs:
//   - resp: the raw response; nil is treated as having no candidates.
//
// Outputs:
//   - model.ImageArtifact: the first non-empty inline image of the first candidate.
//   - error: BlockedByPolicy, NoCandidates, GenerationInterrupted,
//     EmptyContent or NoImageProduced.
func Interpret(resp *genai.GenerateContentResponse) (model.ImageArtifact, error) {
	if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		reason := resp.PromptFeedback.BlockReasonMessage
		if reason == "" {
			reason = string(resp.PromptFeedback.BlockReason)
		}
		return model.ImageArtifact{}, model.NewError(model.KindBlockedByPolicy, reason, nil)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return model.ImageArtifact{}, model.Errorf(model.KindNoCandidates, "the model returned no candidates")
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case "", genai.FinishReasonStop, genai.FinishReasonMaxTokens:
	default:
		reason := string(candidate.FinishReason)
		if candidate.FinishMessage != "" {
			reason += ": " + candidate.FinishMessage
		}
		return model.ImageArtifact{}, model.NewError(model.KindGenerationInterrupted, reason, nil)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return model.ImageArtifact{}, model.Errorf(model.KindEmptyContent, "the candidate has no content")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = DefaultImageMIMEType
			}
			return model.NewImageArtifact(mimeType, part.InlineData.Data), nil
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}

	if said := strings.TrimSpace(text.String()); said != "" {
		return model.ImageArtifact{}, model.NewError(model.KindNoImageProduced, said, nil)
	}
	return model.ImageArtifact{}, model.Errorf(model.KindNoImageProduced, "the model returned neither an image nor text")
}
