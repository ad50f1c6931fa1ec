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
// This file wraps the generative model client with a rate limiter so bursts
// of analyses and edits stay inside the project quota.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: a model name, its request configuration and
//     a token bucket, bound to the genai Models service.
//
// Functions:
//   - NewQuotaAwareModel: builds the wrapper.
//   - GenerateContent: waits for a token, then calls the model.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the one model call the application needs. It is
// satisfied by QuotaAwareGenerativeAIModel and by test fakes.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel decorates a genai model with a rate limiter.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Settings sent with every request.
	ModelName               string                       // Model id.
	ModelHandle             *genai.Models                // The client's Models service.
	RateLimit               *rate.Limiter                // Replenishes one request per second.
}

// NewQuotaAwareModel wraps a model.
//
// Inputs:
//   - wrapped: the request configuration of every call.
//   - name: the model id.
//   - modelHandle: the Models service of a genai client.
//   - requestsPerSecond: the burst size of the limiter; values below 1 mean 1.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: the wrapper.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent blocks until the limiter grants a token or ctx ends, then
// performs a single call. Retries belong to Generate.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter for %s: %w", q.ModelName, err)
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, contents, q.GenerativeContentConfig)
}

// NewGenerateContentConfig turns the TOML settings of a model into the
// request configuration. Zero sampling values are left to the service.
func NewGenerateContentConfig(values AgentModel) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		MaxOutputTokens:    values.MaxTokens,
		SafetySettings:     DefaultSafetySettings,
		ResponseMIMEType:   values.OutputFormat,
		ResponseModalities: values.ResponseModalities,
	}
	if values.Temperature > 0 {
		out.Temperature = genai.Ptr[float32](values.Temperature)
	}
	if values.TopP > 0 {
		out.TopP = genai.Ptr[float32](values.TopP)
	}
	if values.TopK > 0 {
		out.TopK = genai.Ptr[float32](values.TopK)
	}
	if values.SystemInstructions != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return out
}
