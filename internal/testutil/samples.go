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

package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

// SampleAnalysis builds a valid analysis of a video of the given duration,
// one copy of the example take per window with ids "1", "2", ...
func SampleAnalysis(duration float64) *model.AnalysisResult {
	out := &model.AnalysisResult{
		VideoDurationS: duration,
		TakeSizeS:      takes.TakeDurationSeconds,
		Takes:          make([]model.Take, 0),
	}
	for _, w := range takes.Windows(duration, takes.TakeDurationSeconds) {
		take := model.GetExampleTake()
		take.TakeID = fmt.Sprintf("%d", w.Index+1)
		take.Timecode = model.Timecode{StartS: w.StartS, EndS: w.EndS, DurationS: w.DurationS}
		take.Veo3PromptEn = fmt.Sprintf("Prompt for take %d.", w.Index+1)
		out.Takes = append(out.Takes, take)
	}
	return out
}

// SampleAnalysisJSON is SampleAnalysis rendered the way the model answers.
func SampleAnalysisJSON(duration float64) string {
	b, err := json.Marshal(SampleAnalysis(duration))
	if err != nil {
		panic(err)
	}
	return string(b)
}

// SampleAnalysisDocument is SampleAnalysisJSON decoded into generic JSON so
// tests can corrupt individual fields.
func SampleAnalysisDocument(duration float64) map[string]any {
	var doc map[string]any
	if err := json.Unmarshal([]byte(SampleAnalysisJSON(duration)), &doc); err != nil {
		panic(err)
	}
	return doc
}

// PNG encodes a solid w x h image.
func PNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// MP4Header is the start of an ISO base media file, enough for type sniffing.
func MP4Header() []byte {
	return []byte{0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2', 'a', 'v', 'c', '1', 'm', 'p', '4', '1'}
}
