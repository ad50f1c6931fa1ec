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

package imageedit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

const meterName = "imageedit"

// Editor runs edits against the image model.
type Editor struct {
	model    cloud.ContentGenerator
	counters cloud.TokenCounters
	timeout  time.Duration
	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

// NewEditor binds an editor to the image model.
//
// Inputs:
//   - generator: the image model, usually the "image-editor" agent model.
//   - timeout: bound of one edit including retries; 0 means no bound.
//
// Outputs:
//   - *Editor: the editor.
func NewEditor(generator cloud.ContentGenerator, timeout time.Duration) *Editor {
	meter := otel.Meter(meterName)
	outcomes, err := meter.Int64Counter("imageedit.outcome")
	if err != nil {
		slog.Warn("failed to create counter", "name", "imageedit.outcome", "error", err)
	}
	return &Editor{
		model:    generator,
		counters: cloud.NewTokenCounters(meter, meterName),
		timeout:  timeout,
		tracer:   otel.Tracer(meterName),
		outcomes: outcomes,
	}
}

// Edit applies req to base as an edit on the chain at location.
//
// Inputs:
//   - ctx: cancels the call.
//   - location: the chain the edit is for; it restricts which operations apply.
//   - base: the current head of that chain.
//   - req: the operation.
//
// Outputs:
//   - model.ImageArtifact: the produced image.
//   - error: ErrInvalidRequest for incomplete requests, otherwise a classified
//     *model.Error. A failed call to the model is GenerationInterrupted, or
//     Timeout when the edit timeout expired.
func (e *Editor) Edit(ctx context.Context, location model.Location, base model.ImageArtifact, req Request) (model.ImageArtifact, error) {
	if err := req.Validate(location); err != nil {
		return model.ImageArtifact{}, err
	}
	if base.IsZero() {
		return model.ImageArtifact{}, invalid("there is no base image to edit")
	}

	ctx, span := e.tracer.Start(ctx, "image-edit")
	defer span.End()
	span.SetAttributes(
		attribute.String("operation", string(req.Operation)),
		attribute.String("location", string(location)),
	)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out, err := e.edit(ctx, base, req)
	kind := "ok"
	if err != nil {
		if k, ok := model.KindOf(err); ok {
			kind = string(k)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "image edit failed", "operation", req.Operation, "location", location, "error", err)
	}
	if e.outcomes != nil {
		e.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
	return out, err
}

func (e *Editor) edit(ctx context.Context, base model.ImageArtifact, req Request) (model.ImageArtifact, error) {
	resp, err := cloud.Generate(ctx, e.counters, e.model, BuildContents(base, req))
	if err != nil {
		return model.ImageArtifact{}, model.Classify(
			fmt.Errorf("image model call failed: %w", err),
			model.KindGenerationInterrupted)
	}
	return Interpret(resp)
}
