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
// This file builds the container of every external client the application
// uses, so handlers, services and workflows share one set of connections.
//
// Logic Flow:
//  1. NewCloudServiceClients is called once at startup with the loaded Config.
//  2. The genai client is created for the configured backend.
//  3. Cloud Storage and Pub/Sub clients are created only when the
//     configuration asks for staging, bucket listeners or published results.
//  4. Every configured agent model is wrapped in a QuotaAwareGenerativeAIModel.
package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
	"google.golang.org/genai"
)

// ServiceClients holds the shared clients. StorageClient and PubsubClient
// are nil when the configuration does not need them.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	PubSubListeners map[string]*PubSubListener
	Publisher       *ResultPublisher
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

// Close releases the clients that own connections.
func (c *ServiceClients) Close() {
	if c.Publisher != nil {
		c.Publisher.Stop()
	}
	if c.StorageClient != nil {
		if err := c.StorageClient.Close(); err != nil {
			slog.Warn("failed to close storage client", "error", err)
		}
	}
	if c.PubsubClient != nil {
		if err := c.PubsubClient.Close(); err != nil {
			slog.Warn("failed to close pubsub client", "error", err)
		}
	}
}

// Model returns the agent model registered under name.
func (c *ServiceClients) Model(name string) (*QuotaAwareGenerativeAIModel, error) {
	model, ok := c.AgentModels[name]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", name)
	}
	return model, nil
}

// NewGenAIClient creates the genai client for the configured backend.
func NewGenAIClient(ctx context.Context, config *Config) (*genai.Client, error) {
	cc := &genai.ClientConfig{}
	switch config.Application.Backend {
	case BackendVertex:
		cc.Backend = genai.BackendVertexAI
		cc.Project = config.Application.GoogleProjectId
		cc.Location = config.Application.GoogleLocation
	case BackendGemini:
		if config.Application.APIKey == "" {
			return nil, fmt.Errorf("backend %q needs an API key (%s)", BackendGemini, EnvGeminiAPIKey)
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = config.Application.APIKey
	default:
		return nil, fmt.Errorf("unknown backend %q", config.Application.Backend)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}
	return client, nil
}

// NewCloudServiceClients initialises every client the configuration asks for.
//
// Inputs:
//   - ctx: the root context of the application.
//   - config: the loaded configuration with defaults applied.
//
// Outputs:
//   - *ServiceClients: the container.
//   - error: the first client that failed to initialise.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	gc, err := NewGenAIClient(ctx, config)
	if err != nil {
		return nil, err
	}
	cloud = &ServiceClients{
		GenAIClient:     gc,
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}

	if config.Storage.StagingBucket != "" || len(config.TopicSubscriptions) > 0 {
		var opts []option.ClientOption
		if config.Storage.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(config.Storage.Endpoint))
		}
		cloud.StorageClient, err = storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("error creating storage client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 || config.Topics.AnalysisResults != "" {
		cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			cloud.Close()
			return nil, fmt.Errorf("error creating pubsub client: %w", err)
		}
		// The command is attached once the workflows are built.
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				cloud.Close()
				return nil, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
		if config.Topics.AnalysisResults != "" {
			cloud.Publisher = NewResultPublisher(cloud.PubsubClient, config.Topics.AnalysisResults)
		}
	}

	for amKey, values := range config.AgentModels {
		slog.Debug("configuring agent model", "name", amKey, "model", values.Model)
		cloud.AgentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, gc.Models, values.RateLimit)
	}
	return cloud, nil
}
