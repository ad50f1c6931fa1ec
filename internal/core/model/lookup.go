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

// Author of a looked up video.
type Author struct {
	Nickname string `json:"nickname"`
}

// VideoMetadata is the "data" object of the URL resolution service. Play,
// Music and Cover are direct asset URLs.
type VideoMetadata struct {
	ID     string `json:"id"`
	Play   string `json:"play"`
	Cover  string `json:"cover"`
	Music  string `json:"music"`
	Author Author `json:"author"`
	Title  string `json:"title"`
}

// LookupResponse is the envelope returned by the URL resolution service.
// Code zero means success; Msg carries the service's reason otherwise.
type LookupResponse struct {
	Code int            `json:"code"`
	Msg  string         `json:"msg"`
	Data *VideoMetadata `json:"data"`
}

// HistoryItem is one entry of the persisted lookup history.
type HistoryItem struct {
	Data    VideoMetadata `json:"data"`
	AddedAt string        `json:"addedAt"` // ISOTimestampLayout
}

// AssetKind names one of the downloadable assets of a looked up video.
type AssetKind string

const (
	AssetVideo AssetKind = "video"
	AssetAudio AssetKind = "audio"
	AssetCover AssetKind = "cover"
)

// AssetURL returns the direct URL for kind, or "" when the service did not
// provide one.
func (m VideoMetadata) AssetURL(kind AssetKind) string {
	switch kind {
	case AssetVideo:
		return m.Play
	case AssetAudio:
		return m.Music
	case AssetCover:
		return m.Cover
	}
	return ""
}
