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

// Package media covers the local handling of video and image bytes: type
// sniffing, frame timestamp sampling, centre-crop geometry and the ffmpeg
// backed frame sampler.
package media

import (
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// DetectVideo sniffs data and returns its MIME type. Anything that is not a
// recognised video container fails with InvalidFileType; the name and the
// declared content type of an upload are never trusted.
//
// Inputs:
//   - data: the leading bytes of the file, or all of it.
//
// Outputs:
//   - string: the sniffed MIME type, e.g. "video/mp4".
//   - error: an InvalidFileType *model.Error.
func DetectVideo(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", model.Errorf(model.KindInvalidFileType, "the file is not a recognised video")
	}
	if !filetype.IsVideo(data) {
		return "", model.Errorf(model.KindInvalidFileType, "expected a video, got %s", kind.MIME.Value)
	}
	return kind.MIME.Value, nil
}

// DetectImage is DetectVideo for reference and base images.
func DetectImage(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", model.Errorf(model.KindInvalidFileType, "the file is not a recognised image")
	}
	if !filetype.IsImage(data) {
		return "", model.Errorf(model.KindInvalidFileType, "expected an image, got %s", kind.MIME.Value)
	}
	return kind.MIME.Value, nil
}

// Extension returns the usual file extension of data without the dot, or
// "bin" when the type is unknown.
func Extension(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || kind.Extension == "" {
		return "bin"
	}
	return kind.Extension
}

// ImageArtifact sniffs data and wraps it as an image artifact.
func ImageArtifact(data []byte) (model.ImageArtifact, error) {
	mimeType, err := DetectImage(data)
	if err != nil {
		return model.ImageArtifact{}, err
	}
	return model.NewImageArtifact(mimeType, data), nil
}
