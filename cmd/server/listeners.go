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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/workflow"
)

// SetupListeners attaches a bucket analysis workflow to every configured
// subscription and starts receiving.
func SetupListeners(ctx context.Context, clients *cloud.ServiceClients, options workflow.AnalysisOptions) {
	for name, listener := range clients.PubSubListeners {
		listener.SetCommand(workflow.NewBucketAnalysisWorkflow(options))
		listener.Listen(ctx)
		slog.Info("listening for staged videos", "subscription", name)
	}
}
