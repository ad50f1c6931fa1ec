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
	"time"

	"github.com/google/uuid"
)

// VideoAsset is a video held in memory for the lifetime of a session.
type VideoAsset struct {
	ID       string // Content derived; identical bytes give identical ids.
	Name     string // Original file name or source URL.
	MIMEType string // Sniffed type, always video/*.
	Data     []byte
	Source   string // "upload", "remote" or "gcs"
}

// NewVideoAsset builds an asset whose ID is a UUIDv5 of the content.
//
// Inputs:
//   - name: file name or URL the bytes came from.
//   - mimeType: sniffed video MIME type.
//   - data: the encoded video.
//
// Outputs:
//   - *VideoAsset: the asset.
func NewVideoAsset(name string, mimeType string, data []byte) *VideoAsset {
	return &VideoAsset{
		ID:       uuid.NewSHA1(uuid.NameSpaceOID, data).String(),
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
	}
}

// VideoInfo is what the frame sampler learns from probing a video.
type VideoInfo struct {
	DurationS float64 `json:"duration_s"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// ISOTimestampLayout matches JavaScript's Date.toISOString, the format
// history items are stored in.
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatISOTimestamp renders t in UTC with millisecond precision.
func FormatISOTimestamp(t time.Time) string {
	return t.UTC().Format(ISOTimestampLayout)
}
