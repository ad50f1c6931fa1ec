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
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// VideoStager turns the video into the model part that carries it.
//
// With a staging bucket the bytes are written to
// gs://<bucket>/<prefix><video id>.<ext> and referenced by URI; a video that
// already lives in Cloud Storage (see GCSToVideoAsset) is referenced in
// place. Without a bucket the bytes travel inline in the request.
type VideoStager struct {
	cor.BaseCommand
	client *storage.Client
	bucket string
	prefix string
}

// NewVideoStager returns the command. A nil client or empty bucket selects
// inline transfer.
func NewVideoStager(name string, client *storage.Client, bucket string, prefix string) *VideoStager {
	return &VideoStager{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket, prefix: prefix}
}

func (c *VideoStager) usesBucket() bool {
	return c.client != nil && c.bucket != ""
}

// Execute reads a *model.VideoAsset and leaves a *genai.Part in the output.
func (c *VideoStager) Execute(context cor.Context) {
	asset, ok := cor.Value[*model.VideoAsset](context, c.GetInputParam())
	if !ok {
		c.Fail(context, errMissingInput(c.GetInputParam(), "*model.VideoAsset"))
		return
	}

	if !c.usesBucket() {
		c.Succeed(context, cloud.NewInlineData(asset.Data, asset.MIMEType))
		return
	}

	if source, ok := cor.Value[*cloud.GCSObject](context, cloud.GetGCSObjectName()); ok && asset.Source == "gcs" {
		c.Succeed(context, cloud.NewFileData(source.URI(), asset.MIMEType))
		return
	}

	object := &cloud.GCSObject{
		Bucket:   c.bucket,
		Name:     fmt.Sprintf("%s%s.%s", c.prefix, asset.ID, media.Extension(asset.Data)),
		MIMEType: asset.MIMEType,
	}
	ctx, span := c.GetTracer().Start(context.GetContext(), "stage-object")
	defer span.End()
	if err := cloud.UploadObject(ctx, c.client, *object, asset.Data); err != nil {
		span.RecordError(err)
		c.Fail(context, model.Classify(err, model.KindAnalysisFailed))
		return
	}
	slog.DebugContext(ctx, "staged video", "video", asset.ID, "uri", object.URI())
	context.Add(StagedObjectParam, object)
	c.Succeed(context, cloud.NewFileData(object.URI(), asset.MIMEType))
}
