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

// Package test provides the helpers shared by the test suites: configuration
// loading, canned Cloud Storage notifications, a scripted stand-in for the
// generative model and sample payloads.
package test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
)

// StateManager caches the test configuration for the whole run.
type StateManager struct {
	once   sync.Once
	config *cloud.Config
	err    error
}

var state = &StateManager{}

// GetTestStagingMessageText simulates the notification of a video finalized
// in the staging bucket.
func GetTestStagingMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "take_studio_staging/inbox/demo-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/take_studio_staging/o/inbox%2Fdemo-001.mp4",
  "name": "inbox/demo-001.mp4",
  "bucket": "take_studio_staging",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "2593480",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/take_studio_staging/o/inbox%2Fdemo-001.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

// ModuleRoot walks up from the working directory to the directory holding
// go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found")
		}
		dir = parent
	}
}

// SetupOS points the configuration loader at <module>/configs with the
// "test" runtime.
func SetupOS() error {
	root, err := ModuleRoot()
	if err != nil {
		return err
	}
	if err := os.Setenv(cloud.EnvConfigFilePrefix, filepath.Join(root, "configs")); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads configs/.env.toml and configs/.env.test.toml once and
// returns a copy with defaults applied, so a test may change its copy.
func GetConfig(t *testing.T) *cloud.Config {
	t.Helper()
	state.once.Do(func() {
		if state.err = SetupOS(); state.err != nil {
			return
		}
		config := cloud.NewConfig()
		if state.err = cloud.LoadConfig(config); state.err != nil {
			return
		}
		config.ApplyDefaults()
		state.config = config
	})
	if state.err != nil {
		t.Fatalf("failed to load test configuration: %v", state.err)
	}
	out := *state.config
	out.AgentModels = make(map[string]cloud.AgentModel, len(state.config.AgentModels))
	for k, v := range state.config.AgentModels {
		out.AgentModels[k] = v
	}
	out.TopicSubscriptions = make(map[string]cloud.TopicSubscription, len(state.config.TopicSubscriptions))
	for k, v := range state.config.TopicSubscriptions {
		out.TopicSubscriptions[k] = v
	}
	return &out
}

// Reply is one scripted answer of a FakeGenerator.
type Reply struct {
	Response *genai.GenerateContentResponse
	Err      error
	// Wait, when set, blocks the call until it is closed or the call's
	// context ends.
	Wait <-chan struct{}
}

// FakeGenerator is a cloud.ContentGenerator that answers from a script and
// records every request. When the script runs out the last reply repeats.
type FakeGenerator struct {
	mu       sync.Mutex
	replies  []Reply
	requests [][]*genai.Content
}

// NewFakeGenerator scripts the given replies in order.
func NewFakeGenerator(replies ...Reply) *FakeGenerator {
	return &FakeGenerator{replies: replies}
}

// Push appends replies to the script.
func (f *FakeGenerator) Push(replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *FakeGenerator) GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, contents)
	var reply Reply
	switch {
	case len(f.replies) > 1:
		reply, f.replies = f.replies[0], f.replies[1:]
	case len(f.replies) == 1:
		reply = f.replies[0]
	default:
		f.mu.Unlock()
		return nil, errors.New("fake generator has no scripted reply")
	}
	f.mu.Unlock()

	if reply.Wait != nil {
		select {
		case <-reply.Wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return reply.Response, reply.Err
}

// Requests returns the recorded requests.
func (f *FakeGenerator) Requests() [][]*genai.Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*genai.Content(nil), f.requests...)
}

// Calls returns how many requests were made.
func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Candidate builds a response with one candidate.
func Candidate(finish genai.FinishReason, parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: finish,
			Content:      &genai.Content{Role: "model", Parts: parts},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5},
	}
}

// TextReply answers with a single text part.
func TextReply(text string) Reply {
	return Reply{Response: Candidate(genai.FinishReasonStop, &genai.Part{Text: text})}
}

// ImageReply answers with an image part preceded by an optional comment.
func ImageReply(mimeType string, data []byte, comment string) Reply {
	parts := make([]*genai.Part, 0, 2)
	if comment != "" {
		parts = append(parts, &genai.Part{Text: comment})
	}
	parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}})
	return Reply{Response: Candidate(genai.FinishReasonStop, parts...)}
}

// ErrorReply fails the call.
func ErrorReply(err error) Reply {
	return Reply{Err: err}
}
