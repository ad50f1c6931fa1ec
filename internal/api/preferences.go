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
	"net/http"

	"github.com/gin-gonic/gin"
)

// PreferenceRouter registers the pinned character and lookup history routes.
func PreferenceRouter(r *gin.RouterGroup, deps *Dependencies) {
	prefs := r.Group("/preferences")
	{
		prefs.GET("/pinned-character", func(c *gin.Context) {
			image, ok, err := deps.Preferences.PinnedCharacter(c.Request.Context())
			if err != nil {
				abort(c, err)
				return
			}
			if !ok {
				c.JSON(http.StatusOK, gin.H{"image": nil})
				return
			}
			c.JSON(http.StatusOK, gin.H{"image": image})
		})

		prefs.PUT("/pinned-character", func(c *gin.Context) {
			data, _, err := readUpload(c, "file", maxImageBytes)
			if err != nil {
				abort(c, err)
				return
			}
			image, err := deps.Preferences.SavePinnedCharacter(c.Request.Context(), data)
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"image": image})
		})

		prefs.DELETE("/pinned-character", func(c *gin.Context) {
			if err := deps.Preferences.RemovePinnedCharacter(c.Request.Context()); err != nil {
				abort(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		prefs.GET("/history", func(c *gin.Context) {
			items, err := deps.Preferences.History(c.Request.Context())
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, items)
		})

		prefs.DELETE("/history/:id", func(c *gin.Context) {
			items, err := deps.Preferences.RemoveHistory(c.Request.Context(), c.Param("id"))
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, items)
		})
	}
}
