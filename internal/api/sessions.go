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
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
)

// maxThumbnails bounds the count parameter of GET /frames.
const maxThumbnails = 120

type videoView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
	Source   string `json:"source"`
}

func newVideoView(asset *model.VideoAsset) videoView {
	return videoView{ID: asset.ID, Name: asset.Name, MIMEType: asset.MIMEType, Size: len(asset.Data), Source: asset.Source}
}

type analysisView struct {
	services.AnalysisView
	Error *ErrorDetail `json:"error,omitempty"`
}

type urlBody struct {
	URL string `json:"url" binding:"required"`
}

// readUpload reads the multipart file field, refusing more than limit bytes.
func readUpload(c *gin.Context, field string, limit int64) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", badInput(fmt.Errorf("multipart field %q: %w", field, err))
	}
	if limit > 0 && header.Size > limit {
		return nil, "", badInput(fmt.Errorf("%s is larger than %d bytes", header.Filename, limit))
	}
	f, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

// SessionRouter registers session lifecycle, video loading, thumbnails and
// analysis routes.
func SessionRouter(r *gin.RouterGroup, deps *Dependencies) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", func(c *gin.Context) {
			s := deps.Sessions.Create()
			c.JSON(http.StatusCreated, gin.H{"id": s.ID, "created_at": s.CreatedAt.Format(time.RFC3339)})
		})

		sessions.DELETE("/:id", func(c *gin.Context) {
			if err := deps.Sessions.Delete(c.Param("id")); err != nil {
				abort(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		sessions.POST("/:id/reset", func(c *gin.Context) {
			if err := deps.Sessions.Reset(c.Param("id")); err != nil {
				abort(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		sessions.POST("/:id/video", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			data, name, err := readUpload(c, "file", deps.MaxVideoBytes)
			if err != nil {
				abort(c, err)
				return
			}
			mimeType, err := media.DetectVideo(data)
			if err != nil {
				abort(c, err)
				return
			}
			asset := model.NewVideoAsset(name, mimeType, data)
			asset.Source = "upload"
			s.SetVideo(asset)
			c.JSON(http.StatusOK, newVideoView(asset))
		})

		sessions.POST("/:id/video/remote", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
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
			data, _, err := deps.Fetcher.Fetch(c.Request.Context(), metadata.Play)
			if err != nil {
				abort(c, err)
				return
			}
			mimeType, err := media.DetectVideo(data)
			if err != nil {
				abort(c, err)
				return
			}
			asset := model.NewVideoAsset(body.URL, mimeType, data)
			asset.Source = "remote"
			s.SetVideo(asset)
			c.JSON(http.StatusOK, gin.H{"video": newVideoView(asset), "metadata": metadata})
		})

		sessions.GET("/:id/frames", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			count := deps.ThumbnailCount
			if raw := c.Query("count"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 1 || n > maxThumbnails {
					abort(c, badInput(fmt.Errorf("count must be between 1 and %d", maxThumbnails)))
					return
				}
				count = n
			}
			frames, err := deps.Frames.Thumbnails(c.Request.Context(), s, count)
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"frames": frames})
		})

		sessions.POST("/:id/analysis", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			token, err := deps.Analysis.Start(s)
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"token": token})
		})

		sessions.POST("/:id/analysis/retry", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			token, err := deps.Analysis.Retry(s)
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"token": token})
		})

		sessions.GET("/:id/analysis", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			view := analysisView{AnalysisView: s.Analysis.View()}
			if view.Err != nil {
				_, body := Describe(view.Err)
				view.Error = &body.Error
			}
			c.JSON(http.StatusOK, view)
		})
	}
}
