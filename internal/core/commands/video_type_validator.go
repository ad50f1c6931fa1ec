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

// VideoTypeValidator rejects anything that does not sniff as a video before
// a remote call is made. The declared MIME type is replaced by the sniffed one.
type VideoTypeValidator struct {
	cor.BaseCommand
}

// NewVideoTypeValidator returns the command.
func NewVideoTypeValidator(name string) *VideoTypeValidator {
	return &VideoTypeValidator{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *VideoTypeValidator) Execute(context cor.Context) {
	asset, ok := cor.Value[*model.VideoAsset](context, c.GetInputParam())
	if !ok {
		c.Fail(context, errMissingInput(c.GetInputParam(), "*model.VideoAsset"))
		return
	}
	mimeType, err := media.DetectVideo(asset.Data)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if asset.MIMEType != "" && asset.MIMEType != mimeType {
		slog.DebugContext(context.GetContext(), "declared type differs from content",
			"video", asset.ID, "declared", asset.MIMEType, "sniffed", mimeType)
	}
	asset.MIMEType = mimeType
	context.Add(VideoAssetParam, asset)
	c.Succeed(context, asset)
}
