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

package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// LookupRouter registers URL resolution and proxied downloads.
func LookupRouter(r *gin.RouterGroup, deps *Dependencies) {
	lookup := r.Group("/lookup")
	{
		lookup.POST("", func(c *gin.Context) {
			var body urlBody
			if err := c.ShouldBindJSON(&body); err != nil {
				abort(c, badInput(err))
				return
			}
			metadata, err := deps.Lookup.Resolve(c.Request.Context(), body.URL)
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, metadata)
		})

		// The url parameter is the page URL; the asset is resolved again so
		// the server never proxies arbitrary addresses.
		lookup.GET("/download", func(c *gin.Context) {
			pageURL := c.Query("url")
			kind := model.AssetKind(c.DefaultQuery("kind", string(model.AssetVideo)))
			switch kind {
			case model.AssetVideo, model.AssetAudio, model.AssetCover:
			default:
				abort(c, badInput(fmt.Errorf("kind %q is not video, audio or cover", kind)))
				return
			}
			if pageURL == "" {
				abort(c, badInput(fmt.Errorf("missing url")))
				return
			}
			metadata, err := deps.Lookup.Resolve(c.Request.Context(), pageURL)
			if err != nil {
				abort(c, err)
				return
			}
			target := metadata.AssetURL(kind)
			if target == "" {
				abort(c, model.Errorf(model.KindLookupFailed, "the video has no %s asset", kind))
				return
			}
			data, contentType, err := deps.Fetcher.Fetch(c.Request.Context(), target)
			if err != nil {
				abort(c, err)
				return
			}
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
				fmt.Sprintf("%s-%s.%s", metadata.ID, kind, media.Extension(data))))
			c.Data(http.StatusOK, contentType, data)
		})
	}
}
