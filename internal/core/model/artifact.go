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

package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ImageArtifact is an immutable encoded image: a captured frame, an uploaded
// reference or a model result. It travels as a data URI in JSON.
type ImageArtifact struct {
	MIMEType string
	Data     []byte
}

// NewImageArtifact copies data so later changes by the caller cannot leak in.
func NewImageArtifact(mimeType string, data []byte) ImageArtifact {
	return ImageArtifact{MIMEType: mimeType, Data: append([]byte(nil), data...)}
}

// IsZero reports whether the artifact carries no bytes.
func (a ImageArtifact) IsZero() bool {
	return len(a.Data) == 0
}

// DataURI renders the artifact as "data:<mime>;base64,<payload>".
func (a ImageArtifact) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
}

// ParseDataURI is the inverse of DataURI. Only base64 payloads are accepted.
func ParseDataURI(uri string) (ImageArtifact, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ImageArtifact{}, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ImageArtifact{}, fmt.Errorf("data URI has no payload")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return ImageArtifact{}, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImageArtifact{}, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return ImageArtifact{MIMEType: mimeType, Data: data}, nil
}

func (a ImageArtifact) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(a.DataURI())
}

func (a *ImageArtifact) UnmarshalJSON(b []byte) error {
	var uri *string
	if err := json.Unmarshal(b, &uri); err != nil {
		return err
	}
	if uri == nil {
		*a = ImageArtifact{}
		return nil
	}
	parsed, err := ParseDataURI(*uri)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Frame is a still sampled from a video at TimestampS seconds.
type Frame struct {
	TimestampS float64       `json:"timestamp_s"`
	Image      ImageArtifact `json:"image"`
}
