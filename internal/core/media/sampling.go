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

package media

import (
	"image"
	"math"
)

// Frame sampling defaults.
const (
	DefaultThumbnailCount       = 20
	DefaultEditorThumbnailCount = 24
	DefaultThumbnailWidth       = 360
	DefaultCaptureWidth         = 576
	DefaultCaptureHeight        = 1024

	// tailMargin keeps the last sample away from the final frame, which many
	// decoders cannot seek to.
	tailMargin = 0.25
)

// SampleTimestamps spreads count timestamps over a video of the given
// duration. The first is always 0; when the video is longer than half a
// second the last lands tailMargin before the end. No timestamp exceeds
// duration.
func SampleTimestamps(duration float64, count int) []float64 {
	if count <= 0 || duration < 0 {
		return nil
	}
	if count == 1 {
		return []float64{0}
	}
	effective := duration
	if duration > 2*tailMargin {
		effective = duration - tailMargin
	}
	interval := effective / float64(count-1)

	out := make([]float64, count)
	for i := range out {
		out[i] = math.Min(float64(i)*interval, duration)
	}
	return out
}

// CropRect returns the centred region of a srcW x srcH picture that has the
// aspect ratio of dstW x dstH. The longer dimension is cropped; nothing is
// letterboxed or stretched.
func CropRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}
	target := float64(dstW) / float64(dstH)
	source := float64(srcW) / float64(srcH)

	if source > target {
		w := int(math.Round(float64(srcH) * target))
		x := (srcW - w) / 2
		return image.Rect(x, 0, x+w, srcH)
	}
	h := int(math.Round(float64(srcW) / target))
	y := (srcH - h) / 2
	return image.Rect(0, y, srcW, y+h)
}
