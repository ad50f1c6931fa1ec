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
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/prompts"
)

// TakeAnalysisCreator asks the analysis model to split the video into takes.
// The request is the rendered instruction followed by the video part; the
// raw text of the answer is the output.
type TakeAnalysisCreator struct {
	cor.BaseCommand
	generativeAIModel cloud.ContentGenerator
	template          *template.Template
	counters          cloud.TokenCounters
}

// NewTakeAnalysisCreator returns the command.
//
// Inputs:
//   - name: the command name; also the prefix of its token counters.
//   - generativeAIModel: the analysis model, configured with takes.ConfigureRequest.
//   - template: the analysis instruction, see prompts.NewAnalysisTemplate.
//
// Outputs:
//   - *TakeAnalysisCreator: the command.
func NewTakeAnalysisCreator(name string, generativeAIModel cloud.ContentGenerator, template *template.Template) *TakeAnalysisCreator {
	out := &TakeAnalysisCreator{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          template,
	}
	out.counters = cloud.NewTokenCounters(out.GetMeter(), name)
	return out
}

// Execute reads the *genai.Part of the video and leaves the model's text.
func (t *TakeAnalysisCreator) Execute(context cor.Context) {
	videoPart, ok := cor.Value[*genai.Part](context, t.GetInputParam())
	if !ok {
		t.Fail(context, errMissingInput(t.GetInputParam(), "*genai.Part"))
		return
	}

	instruction, err := prompts.RenderAnalysis(t.template)
	if err != nil {
		t.Fail(context, model.NewError(model.KindAnalysisFailed, "the analysis instruction could not be rendered", err))
		return
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{cloud.NewTextPart(instruction), videoPart}, genai.RoleUser),
	}
	out, err := cloud.GenerateMultiModalResponse(context.GetContext(), t.counters, t.generativeAIModel, contents)
	if err != nil {
		t.Fail(context, model.Classify(err, model.KindAnalysisFailed))
		return
	}
	if strings.TrimSpace(out) == "" {
		t.Fail(context, model.Errorf(model.KindAnalysisFailed, "the model returned an empty analysis"))
		return
	}
	t.Succeed(context, out)
}
