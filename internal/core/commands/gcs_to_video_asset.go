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
	"path"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// GCSToVideoAsset downloads the announced object into memory so it can be
// sniffed and, if needed, sent inline.
type GCSToVideoAsset struct {
	cor.BaseCommand
	client   *storage.Client
	maxBytes int64
}

// NewGCSToVideoAsset returns the command.
//
// Inputs:
//   - name: the command name.
//   - client: the Cloud Storage client.
//   - maxBytes: objects larger than this fail the command.
//
// Outputs:
//   - *GCSToVideoAsset: the command.
func NewGCSToVideoAsset(name string, client *storage.Client, maxBytes int64) *GCSToVideoAsset {
	return &GCSToVideoAsset{BaseCommand: *cor.NewBaseCommand(name), client: client, maxBytes: maxBytes}
}

// Execute reads a *cloud.GCSObject and leaves a *model.VideoAsset in the
// output and under VideoAssetParam.
func (c *GCSToVideoAsset) Execute(context cor.Context) {
	object, ok := cor.Value[*cloud.GCSObject](context, c.GetInputParam())
	if !ok {
		c.Fail(context, errMissingInput(c.GetInputParam(), "*cloud.GCSObject"))
		return
	}
	if c.client == nil {
		c.Fail(context, model.Errorf(model.KindMediaFetchFailed, "no storage client to read %s", object.URI()))
		return
	}

	ctx, span := c.GetTracer().Start(context.GetContext(), "read-object")
	defer span.End()

	data, err := cloud.ReadObject(ctx, c.client, *object, c.maxBytes)
	if err != nil {
		span.RecordError(err)
		c.Fail(context, model.Classify(err, model.KindMediaFetchFailed))
		return
	}
	asset := model.NewVideoAsset(path.Base(object.Name), object.MIMEType, data)
	asset.Source = "gcs"
	context.Add(VideoAssetParam, asset)
	c.Succeed(context, asset)
}
