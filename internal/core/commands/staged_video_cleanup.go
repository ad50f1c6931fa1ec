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

package commands

import (
	"log/slog"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
)

// StagedVideoCleanup deletes the object VideoStager wrote. Workflows run it
// after their chain whether or not the chain succeeded.
type StagedVideoCleanup struct {
	cor.BaseCommand
	client *storage.Client
}

// NewStagedVideoCleanup returns the command.
func NewStagedVideoCleanup(name string, client *storage.Client) *StagedVideoCleanup {
	out := &StagedVideoCleanup{BaseCommand: *cor.NewBaseCommand(name), client: client}
	out.InputParamName = StagedObjectParam
	return out
}

// IsExecutable requires a client and a staged object.
func (c *StagedVideoCleanup) IsExecutable(context cor.Context) bool {
	if context == nil || c.client == nil {
		return false
	}
	_, ok := cor.Value[*cloud.GCSObject](context, StagedObjectParam)
	return ok
}

// Execute deletes the object. A failure is logged rather than recorded so
// that it never masks the outcome of the analysis.
func (c *StagedVideoCleanup) Execute(context cor.Context) {
	object, _ := cor.Value[*cloud.GCSObject](context, StagedObjectParam)
	if err := cloud.DeleteObject(context.GetContext(), c.client, *object); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.WarnContext(context.GetContext(), "failed to delete staged video", "uri", object.URI(), "error", err)
		return
	}
	context.Remove(StagedObjectParam)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
