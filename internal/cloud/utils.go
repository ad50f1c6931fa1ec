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

// Package cloud provides components for interacting with Google Cloud services.
// This file contains the hierarchical configuration loader and the helpers
// every model call goes through.
//
// Functions:
//   - LoadConfig: reads the base TOML file, then the runtime override.
//   - Generate: one model call with retries and token metrics.
//   - GenerateMultiModalResponse: Generate, reduced to the response text.
//   - ResponseText: concatenates the text parts of the first candidate.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// Cloud Constants define key strings and values used throughout the package,
// primarily for configuration loading and API interaction policies.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	MaxRetries          = 3                   // The maximum number of times to retry a failed API call.
)

// RetryBackoff is the pause before the first retry; it doubles on each
// further attempt.
var RetryBackoff = 2 * time.Second

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and the runtime specific configuration file
// names derived from GCP_CONFIG_PREFIX and GCP_RUNTIME.
func ConfigFiles() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	env := os.Getenv(EnvConfigRuntime)
	if env == "" {
		env = "test"
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	runtime = prefix + ConfigFileBaseName + ConfigSeparator + env + ConfigFileExtension
	return base, runtime
}

// LoadConfig decodes the base configuration file and then the runtime
// override into baseConfig. Missing files are skipped; a file that exists
// but cannot be decoded is an error.
//
// Inputs:
//   - baseConfig: pointer to the struct to populate.
//
// Outputs:
//   - error: the first decoding failure.
func LoadConfig(baseConfig interface{}) error {
	base, runtime := ConfigFiles()
	for _, name := range []string{base, runtime} {
		if !fileExists(name) {
			slog.Debug("configuration file not found", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
		slog.Debug("configuration file loaded", "file", name)
	}
	return nil
}

// ApplyEnvironment copies secrets from the environment into config.
func ApplyEnvironment(config *Config) {
	for _, key := range []string{EnvGeminiAPIKey, EnvGoogleAPIKey} {
		if value := os.Getenv(key); value != "" {
			config.Application.APIKey = value
			return
		}
	}
}

// TokenCounters are the per caller metrics of model usage.
type TokenCounters struct {
	Input  metric.Int64Counter
	Output metric.Int64Counter
	Retry  metric.Int64Counter
}

// NewTokenCounters creates "<name>.gemini.token.input", "...output" and
// "...retry" on meter.
func NewTokenCounters(meter metric.Meter, name string) TokenCounters {
	var out TokenCounters
	var err error
	if out.Input, err = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.input", name)); err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
	}
	if out.Output, err = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.output", name)); err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
	}
	if out.Retry, err = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.retry", name)); err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
	}
	return out
}

func (t TokenCounters) add(ctx context.Context, counter metric.Int64Counter, n int64) {
	if counter != nil {
		counter.Add(ctx, n)
	}
}

// Generate sends contents to model, retrying transport failures up to
// MaxRetries times with a doubling backoff. A cancelled or expired context
// is never retried. Token usage of the successful attempt is recorded.
//
// Inputs:
//   - ctx: bounds all attempts.
//   - counters: token and retry metrics.
//   - model: the generator to call.
//   - contents: the request.
//
// Outputs:
//   - *genai.GenerateContentResponse: the raw response.
//   - error: the last failure once retries are exhausted.
func Generate(
	ctx context.Context,
	counters TokenCounters,
	model ContentGenerator,
	contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	backoff := RetryBackoff
	for attempt := 0; ; attempt++ {
		resp, err := model.GenerateContent(ctx, contents)
		if err == nil {
			if resp != nil && resp.UsageMetadata != nil {
				counters.add(ctx, counters.Input, int64(resp.UsageMetadata.PromptTokenCount))
				counters.add(ctx, counters.Output, int64(resp.UsageMetadata.CandidatesTokenCount))
			}
			return resp, nil
		}
		if ctx.Err() != nil || attempt >= MaxRetries {
			return nil, err
		}
		counters.add(ctx, counters.Retry, 1)
		slog.WarnContext(ctx, "model call failed, retrying", "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// GenerateMultiModalResponse is Generate for text answers. A surrounding
// markdown fence is not removed here; callers that expect JSON strip it.
func GenerateMultiModalResponse(
	ctx context.Context,
	counters TokenCounters,
	model ContentGenerator,
	contents []*genai.Content) (string, error) {
	resp, err := Generate(ctx, counters, model, contents)
	if err != nil {
		return "", err
	}
	return ResponseText(resp), nil
}

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// NewTextPart returns a text part.
func NewTextPart(in string) *genai.Part {
	return &genai.Part{Text: in}
}

// NewFileData returns a part that references a stored file by URI.
func NewFileData(in string, mimeType string) *genai.Part {
	return &genai.Part{FileData: &genai.FileData{FileURI: in, MIMEType: mimeType}}
}

// NewInlineData returns a part that carries bytes inline.
func NewInlineData(data []byte, mimeType string) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}}
}
