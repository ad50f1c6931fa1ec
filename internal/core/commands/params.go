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

// Package commands holds the cor commands the take analysis workflows are
// assembled from. Each command reads one value from the context, does one
// thing and leaves its result for the next command.
package commands

// Context keys shared by the analysis commands.
const (
	// VideoAssetParam holds the *model.VideoAsset being analysed.
	VideoAssetParam = "__video_asset__"
	// VideoInfoParam holds the model.VideoInfo probed from the video, when
	// ffprobe is available.
	VideoInfoParam = "__video_info__"
	// StagedObjectParam holds the *cloud.GCSObject a video was staged to.
	// Only objects written by VideoStager are recorded here; they are deleted
	// by StagedVideoCleanup.
	StagedObjectParam = "__staged_object__"
	// AnalysisParam holds the validated *model.AnalysisResult.
	AnalysisParam = "__analysis__"
	// PublishedIDParam holds the Pub/Sub message id of the published analysis.
	PublishedIDParam = "__published_id__"
)
