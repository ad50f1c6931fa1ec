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
// This file publishes finished analyses to Pub/Sub. Bucket triggered
// analyses have no browser waiting for them, so the topic is where their
// results go.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// ResultPublisher sends finished analyses to a Pub/Sub topic so downstream
// systems (prompt queues, video generation) can pick them up.
type ResultPublisher struct {
	topic *pubsub.Topic
}

// NewResultPublisher binds a publisher to topicID.
func NewResultPublisher(client *pubsub.Client, topicID string) *ResultPublisher {
	return &ResultPublisher{topic: client.Topic(topicID)}
}

// Publish marshals payload as JSON and waits for the server to accept it.
//
// Inputs:
//   - ctx: bounds the publish.
//   - payload: any JSON serialisable value.
//   - attributes: message attributes, e.g. the source object.
//
// Outputs:
//   - string: the server assigned message id.
//   - error: marshalling or publishing failure.
func (p *ResultPublisher) Publish(ctx context.Context, payload any, attributes map[string]string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", p.topic.ID(), err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *ResultPublisher) Stop() {
	p.topic.Stop()
}
