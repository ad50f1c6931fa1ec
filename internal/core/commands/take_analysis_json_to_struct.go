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
	"log/slog"
	"math"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

// durationDriftWarning is how far the reported duration may stray from the
// probed one before it is logged.
const durationDriftWarning = 0.5

// TakeAnalysisJsonToStruct decodes and validates the model's answer.
type TakeAnalysisJsonToStruct struct {
	cor.BaseCommand
}

// NewTakeAnalysisJsonToStruct returns the command. The result is stored
// under outputParamName as well as the chain output.
func NewTakeAnalysisJsonToStruct(name string, outputParamName string) *TakeAnalysisJsonToStruct {
	out := &TakeAnalysisJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return out
}

func (s *TakeAnalysisJsonToStruct) Execute(context cor.Context) {
	in, ok := cor.Value[string](context, s.GetInputParam())
	if !ok {
		s.Fail(context, errMissingInput(s.GetInputParam(), "string"))
		return
	}
	result, err := takes.Decode([]byte(in))
	if err != nil {
		slog.WarnContext(context.GetContext(), "analysis rejected", "command", s.GetName(), "error", err)
		s.Fail(context, err)
		return
	}

	if info, ok := cor.Value[model.VideoInfo](context, VideoInfoParam); ok && info.DurationS > 0 {
		if math.Abs(info.DurationS-result.VideoDurationS) > durationDriftWarning {
			slog.WarnContext(context.GetContext(), "reported duration differs from the video",
				"reported", result.VideoDurationS, "probed", info.DurationS)
		}
	}

	s.Succeed(context, result)
	context.Add(cor.CtxOut, result)
}
