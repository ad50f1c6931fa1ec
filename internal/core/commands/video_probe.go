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

	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// VideoProbe records the duration and size of the video with ffprobe. The
// analysis itself does not depend on it: when ffprobe is missing or fails
// the command logs and passes the asset through.
type VideoProbe struct {
	cor.BaseCommand
	sampler *media.FrameSampler
}

// NewVideoProbe returns the command; sampler may be nil.
func NewVideoProbe(name string, sampler *media.FrameSampler) *VideoProbe {
	return &VideoProbe{BaseCommand: *cor.NewBaseCommand(name), sampler: sampler}
}

func (c *VideoProbe) Execute(context cor.Context) {
	asset, ok := cor.Value[*model.VideoAsset](context, c.GetInputParam())
	if !ok {
		c.Fail(context, errMissingInput(c.GetInputParam(), "*model.VideoAsset"))
		return
	}
	if c.sampler != nil && c.sampler.Available() {
		info, err := c.sampler.Probe(context.GetContext(), asset.Data)
		if err != nil {
			slog.WarnContext(context.GetContext(), "failed to probe video", "video", asset.ID, "error", err)
		} else {
			context.Add(VideoInfoParam, info)
		}
	}
	c.Succeed(context, asset)
}
