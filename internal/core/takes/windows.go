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

// Package takes owns the contract between take studio and the analysis
// model: the fixed-length windowing of a video, the response schema the model
// must honour, strict decoding of its answer, and the text renderings built
// from a validated result.
package takes

import "math"

const (
	// TakeDurationSeconds is the fixed length of every take but the last.
	TakeDurationSeconds = 7.0

	// SpeechLanguage is the language transcribed dialogue is kept in.
	SpeechLanguage = "pt-BR"

	// SegmentTolerance is how far, in seconds, a returned timecode may drift
	// from the computed window and still be accepted.
	SegmentTolerance = 0.05
)

// Count returns ceil(total / size), or zero for a non-positive duration.
func Count(total float64, size float64) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int(math.Ceil(total / size))
}

// Window is one computed take span: [StartS, EndS).
type Window struct {
	Index     int
	StartS    float64
	EndS      float64
	DurationS float64
}

// Windows partitions [0, total) into contiguous spans of size seconds. Every
// span but the last is exactly size long; the last ends at total.
//
// Inputs:
//   - total: video duration in seconds.
//   - size: take length in seconds.
//
// Outputs:
//   - []Window: the spans in order; empty when total or size is not positive.
func Windows(total float64, size float64) []Window {
	count := Count(total, size)
	out := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * size
		end := math.Min(float64(i+1)*size, total)
		out = append(out, Window{Index: i, StartS: start, EndS: end, DurationS: end - start})
	}
	return out
}
