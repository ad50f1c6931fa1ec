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

// Package cloud holds the configuration of take studio and everything that
// talks to Google Cloud: the generative model clients, Cloud Storage staging,
// and the Pub/Sub listeners and publishers.
//
// Structs:
//   - Config: root of the TOML configuration.
//   - AgentModel: settings of one generative model, keyed by role.
//   - Storage, Lookup, Frames, Timeouts: per concern settings.
package cloud

import (
	"time"

	"google.golang.org/genai"
)

// Logical names of the configured agent models.
const (
	AnalysisModelName = "take-analyzer"
	EditModelName     = "image-editor"
)

// Backends accepted in application.backend.
const (
	BackendVertex = "vertex"
	BackendGemini = "gemini"
)

// Environment variables that carry the Gemini API key.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
)

// DefaultSafetySettings leaves blocking to the service defaults for the
// listed categories. Product demo footage trips the stricter thresholds.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
}

// PromptTemplates overrides the built-in instructions. Empty values keep the
// defaults.
type PromptTemplates struct {
	Analysis string `toml:"analysis"` // Template for the take analysis instruction.
}

// AgentModel configures one generative model.
type AgentModel struct {
	Model              string   `toml:"model"`               // Model id, e.g. "gemini-2.5-flash".
	SystemInstructions string   `toml:"system_instructions"` // Optional system instruction.
	Temperature        float32  `toml:"temperature"`         // Sampling temperature; 0 leaves the service default.
	TopP               float32  `toml:"top_p"`               // Nucleus sampling; 0 leaves the service default.
	TopK               float32  `toml:"top_k"`               // Top-k sampling; 0 leaves the service default.
	MaxTokens          int32    `toml:"max_tokens"`          // Output token cap; 0 leaves the service default.
	OutputFormat       string   `toml:"output_format"`       // Response MIME type, e.g. "application/json".
	ResponseModalities []string `toml:"response_modalities"` // e.g. ["IMAGE", "TEXT"] for image output.
	RateLimit          int      `toml:"rate_limit"`          // Requests per second.
}

// TopicSubscription is a Pub/Sub subscription the server listens on.
type TopicSubscription struct {
	Name             string `toml:"name"`               // Subscription id.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // Dead letter topic, informational.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Per message processing budget.
}

// Topics are the Pub/Sub topics the server publishes to.
type Topics struct {
	AnalysisResults string `toml:"analysis_results"` // Receives every bucket triggered analysis.
}

// Storage configures video staging and local persistence.
type Storage struct {
	StagingBucket    string `toml:"staging_bucket"`     // Bucket videos are staged in before analysis; empty sends bytes inline.
	StagingPrefix    string `toml:"staging_prefix"`     // Object name prefix inside the staging bucket.
	Endpoint         string `toml:"endpoint"`           // Optional Cloud Storage endpoint override (emulators).
	PreferenceDBPath string `toml:"preference_db_path"` // SQLite file of the preference store; empty keeps preferences in memory.
}

// Lookup configures the short video URL resolver and media downloads.
type Lookup struct {
	Endpoint      string `toml:"endpoint"`        // Resolver endpoint.
	RelayURL      string `toml:"relay_url"`       // Optional relay; "{url}" is replaced by the escaped target, otherwise the target is appended.
	MaxMediaBytes int64  `toml:"max_media_bytes"` // Download cap.
	MaxHistory    int    `toml:"max_history"`     // History cap; 0 keeps everything.
}

// Frames configures the ffmpeg frame sampler.
type Frames struct {
	FFmpegPath           string `toml:"ffmpeg_path"`            // ffmpeg binary; a bare name is looked up on PATH.
	FFprobePath          string `toml:"ffprobe_path"`           // ffprobe binary; a bare name is looked up on PATH.
	ThumbnailCount       int    `toml:"thumbnail_count"`        // Frames sampled for the timeline strip.
	EditorThumbnailCount int    `toml:"editor_thumbnail_count"` // Frames offered as capture points in the editor.
	ThumbnailWidth       int    `toml:"thumbnail_width"`        // Thumbnail width in pixels; height follows the aspect ratio.
	CaptureWidth         int    `toml:"capture_width"`          // Width of a captured edit base.
	CaptureHeight        int    `toml:"capture_height"`         // Height of a captured edit base; with CaptureWidth it sets the crop ratio.
}

// Timeouts bound every remote or external call, in seconds.
type Timeouts struct {
	Analysis int `toml:"analysis"` // One take analysis from upload to parsed answer.
	Edit     int `toml:"edit"`     // One image edit.
	Lookup   int `toml:"lookup"`   // Short URL resolution.
	Fetch    int `toml:"fetch"`    // Media download.
	Frames   int `toml:"frames"`   // One frame sampling or capture request.
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// AnalysisTimeout bounds one analysis request.
func (t Timeouts) AnalysisTimeout() time.Duration { return seconds(t.Analysis) }

// EditTimeout bounds one image edit.
func (t Timeouts) EditTimeout() time.Duration { return seconds(t.Edit) }

// LookupTimeout bounds one URL resolution.
func (t Timeouts) LookupTimeout() time.Duration { return seconds(t.Lookup) }

// FetchTimeout bounds one media download.
func (t Timeouts) FetchTimeout() time.Duration { return seconds(t.Fetch) }

// FramesTimeout bounds one frame extraction or capture.
func (t Timeouts) FramesTimeout() time.Duration { return seconds(t.Frames) }

// Config is the root of the TOML configuration.
type Config struct {
	Application struct {
		Name             string `toml:"name"`              // Service name used in telemetry.
		GoogleProjectId  string `toml:"google_project_id"` // Google Cloud project.
		GoogleLocation   string `toml:"location"`          // Vertex AI location.
		Backend          string `toml:"backend"`           // "vertex" or "gemini".
		APIKey           string `toml:"api_key"`           // Gemini API key; the environment wins.
		ThreadPoolSize   int    `toml:"thread_pool_size"`  // Worker pool size of the frame sampler.
		ListenAddress    string `toml:"listen_address"`    // HTTP listen address.
		TelemetryEnabled bool   `toml:"telemetry_enabled"` // Export traces and metrics to Google Cloud.
		LogFile          string `toml:"log_file"`          // Optional file the logs are copied to.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	AgentModels        map[string]AgentModel        `toml:"agent_models"`        // Keyed by AnalysisModelName / EditModelName.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name, e.g. "StagingBucketTopic".
	Topics             Topics                       `toml:"topics"`
	Lookup             Lookup                       `toml:"lookup"`
	Frames             Frames                       `toml:"frames"`
	Timeouts           Timeouts                     `toml:"timeouts"`
}

// NewConfig returns a Config with its maps initialised so the TOML decoder
// can merge several files into it.
func NewConfig() *Config {
	return &Config{
		AgentModels:        make(map[string]AgentModel),
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
}

// ApplyDefaults fills every setting that was left empty.
func (c *Config) ApplyDefaults() {
	if c.AgentModels == nil {
		c.AgentModels = make(map[string]AgentModel)
	}
	if c.TopicSubscriptions == nil {
		c.TopicSubscriptions = make(map[string]TopicSubscription)
	}
	if c.Application.Name == "" {
		c.Application.Name = "take-studio"
	}
	if c.Application.Backend == "" {
		c.Application.Backend = BackendGemini
	}
	if c.Application.GoogleLocation == "" {
		c.Application.GoogleLocation = "us-central1"
	}
	if c.Application.ThreadPoolSize <= 0 {
		c.Application.ThreadPoolSize = 4
	}
	if c.Application.ListenAddress == "" {
		c.Application.ListenAddress = ":8080"
	}

	analysis := c.AgentModels[AnalysisModelName]
	if analysis.Model == "" {
		analysis.Model = "gemini-2.5-flash"
	}
	if analysis.OutputFormat == "" {
		analysis.OutputFormat = "application/json"
	}
	if analysis.RateLimit <= 0 {
		analysis.RateLimit = 1
	}
	c.AgentModels[AnalysisModelName] = analysis

	edit := c.AgentModels[EditModelName]
	if edit.Model == "" {
		edit.Model = "gemini-2.5-flash-image-preview"
	}
	if len(edit.ResponseModalities) == 0 {
		edit.ResponseModalities = []string{string(genai.ModalityImage), string(genai.ModalityText)}
	}
	if edit.RateLimit <= 0 {
		edit.RateLimit = 1
	}
	c.AgentModels[EditModelName] = edit

	if c.Storage.StagingPrefix == "" {
		c.Storage.StagingPrefix = "staging/"
	}

	if c.Lookup.Endpoint == "" {
		c.Lookup.Endpoint = "https://www.tikwm.com/api/"
	}
	if c.Lookup.MaxMediaBytes <= 0 {
		c.Lookup.MaxMediaBytes = 200 << 20
	}

	if c.Frames.ThumbnailCount <= 0 {
		c.Frames.ThumbnailCount = 20
	}
	if c.Frames.EditorThumbnailCount <= 0 {
		c.Frames.EditorThumbnailCount = 24
	}
	if c.Frames.ThumbnailWidth <= 0 {
		c.Frames.ThumbnailWidth = 360
	}
	if c.Frames.CaptureWidth <= 0 {
		c.Frames.CaptureWidth = 576
	}
	if c.Frames.CaptureHeight <= 0 {
		c.Frames.CaptureHeight = 1024
	}

	if c.Timeouts.Analysis <= 0 {
		c.Timeouts.Analysis = 300
	}
	if c.Timeouts.Edit <= 0 {
		c.Timeouts.Edit = 120
	}
	if c.Timeouts.Lookup <= 0 {
		c.Timeouts.Lookup = 30
	}
	if c.Timeouts.Fetch <= 0 {
		c.Timeouts.Fetch = 120
	}
	if c.Timeouts.Frames <= 0 {
		c.Timeouts.Frames = 60
	}
}
