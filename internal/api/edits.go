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
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/history"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
)

// maxImageBytes caps uploaded base and reference images.
const maxImageBytes = 20 << 20

type editBody struct {
	imageedit.Request
	UsePinnedCharacter bool `json:"use_pinned_character"`
}

type captureBody struct {
	Timestamp *float64 `json:"timestamp" binding:"required"`
}

type revertBody struct {
	Index *int `json:"index" binding:"required"`
}

type outcomeView struct {
	Location  model.Location       `json:"location"`
	Result    *model.ImageArtifact `json:"result,omitempty"`
	Pending   bool                 `json:"pending"`
	Discarded bool                 `json:"discarded,omitempty"`
	History   history.Snapshot     `json:"history"`
}

// editRequest decodes the body and substitutes the pinned character when
// asked to.
func editRequest(c *gin.Context, deps *Dependencies) (imageedit.Request, error) {
	var body editBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return imageedit.Request{}, badInput(err)
	}
	req := body.Request
	if body.UsePinnedCharacter && req.Reference == nil {
		pinned, ok, err := deps.Preferences.PinnedCharacter(c.Request.Context())
		if err != nil {
			return imageedit.Request{}, err
		}
		if !ok {
			return imageedit.Request{}, fmt.Errorf("%w: no character is pinned", imageedit.ErrInvalidRequest)
		}
		req.Reference = &pinned
	}
	return req, nil
}

// respondOutcome answers an edit. A result dropped as stale is reported as
// discarded together with the current history, never as an error.
func respondOutcome(c *gin.Context, s *services.Session, outcome history.Outcome, err error) {
	view := outcomeView{Location: outcome.Location, Pending: outcome.Pending}
	switch {
	case errors.Is(err, model.ErrStaleResponseDiscarded):
		view.Discarded = true
	case err != nil:
		abort(c, err)
		return
	default:
		result := outcome.Result
		view.Result = &result
	}
	view.History = s.History.Snapshot()
	c.JSON(http.StatusOK, view)
}

// EditRouter registers frame capture and the routes of both edit chains.
func EditRouter(r *gin.RouterGroup, deps *Dependencies) {
	sessions := r.Group("/sessions/:id")
	{
		sessions.GET("/history", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, s.History.Snapshot())
		})

		sessions.POST("/capture", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			var body captureBody
			if err := c.ShouldBindJSON(&body); err != nil {
				abort(c, badInput(err))
				return
			}
			frame, err := deps.Edits.Capture(c.Request.Context(), s, *body.Timestamp)
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"frame": frame, "history": s.History.Snapshot()})
		})

		sessions.POST("/edits", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			req, err := editRequest(c, deps)
			if err != nil {
				abort(c, err)
				return
			}
			outcome, err := deps.Edits.ApplyPrimary(c.Request.Context(), s, req)
			respondOutcome(c, s, outcome, err)
		})

		sessions.POST("/edits/retry", func(c *gin.Context) {
			s, ok := session(c, deps)
			if !ok {
				return
			}
			outcome, err := deps.Edits.Retry(c.Request.Context(), s, model.LocationPrimary)
			respondOutcome(c, s, outcome, err)
		})

		sessions.POST("/primary/revert", func(c *gin.Context) {
			revert(c, deps, model.LocationPrimary)
		})

		continuation := sessions.Group("/continuation")
		{
			continuation.POST("/base", func(c *gin.Context) {
				s, ok := session(c, deps)
				if !ok {
					return
				}
				data, _, err := readUpload(c, "file", maxImageBytes)
				if err != nil {
					abort(c, err)
					return
				}
				if _, err := deps.Edits.UploadContinuationBase(s, data); err != nil {
					abort(c, err)
					return
				}
				c.JSON(http.StatusOK, s.History.Snapshot())
			})

			continuation.POST("/edits", func(c *gin.Context) {
				s, ok := session(c, deps)
				if !ok {
					return
				}
				req, err := editRequest(c, deps)
				if err != nil {
					abort(c, err)
					return
				}
				outcome, err := deps.Edits.ProposeContinuation(c.Request.Context(), s, req)
				respondOutcome(c, s, outcome, err)
			})

			continuation.POST("/edits/retry", func(c *gin.Context) {
				s, ok := session(c, deps)
				if !ok {
					return
				}
				outcome, err := deps.Edits.Retry(c.Request.Context(), s, model.LocationContinuation)
				respondOutcome(c, s, outcome, err)
			})

			continuation.POST("/accept", func(c *gin.Context) {
				s, ok := session(c, deps)
				if !ok {
					return
				}
				if _, err := deps.Edits.Accept(s); err != nil {
					abort(c, err)
					return
				}
				c.JSON(http.StatusOK, s.History.Snapshot())
			})

			continuation.POST("/discard", func(c *gin.Context) {
				s, ok := session(c, deps)
				if !ok {
					return
				}
				discarded := deps.Edits.Discard(s)
				c.JSON(http.StatusOK, gin.H{"discarded": discarded, "history": s.History.Snapshot()})
			})

			continuation.POST("/revert", func(c *gin.Context) {
				revert(c, deps, model.LocationContinuation)
			})
		}
	}
}

func revert(c *gin.Context, deps *Dependencies, location model.Location) {
	s, ok := session(c, deps)
	if !ok {
		return
	}
	var body revertBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, badInput(err))
		return
	}
	if err := deps.Edits.Revert(s, location, *body.Index); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, s.History.Snapshot())
}
