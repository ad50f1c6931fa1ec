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

// Package api exposes the sessions, analyses, edits, lookups and
// preferences of take studio over HTTP with gin. Every route lives under
// /api/v1; failures answer {"error": {"kind", "reason", "retryable"}}.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
)

// maxUploadBytes caps multipart uploads held in memory.
const maxUploadBytes = 32 << 20

// Dependencies are the services behind the routes.
type Dependencies struct {
	Sessions    *services.SessionManager
	Analysis    *services.AnalysisService
	Frames      *services.FrameService
	Edits       *services.EditService
	Lookup      *services.LookupService
	Fetcher     *services.MediaFetcher
	Preferences *services.PreferenceService

	ThumbnailCount int   // Default of GET /frames.
	MaxVideoBytes  int64 // Upload cap of videos.
}

// NewRouter builds the gin engine with tracing, CORS and every route.
//
// Inputs:
//   - serviceName: the otelgin service name.
//   - deps: the services behind the routes.
//
// Outputs:
//   - *gin.Engine: ready to serve.
func NewRouter(serviceName string, deps *Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())
	r.MaxMultipartMemory = maxUploadBytes

	apiV1 := r.Group("/api/v1")
	{
		SessionRouter(apiV1, deps)
		EditRouter(apiV1, deps)
		LookupRouter(apiV1, deps)
		PreferenceRouter(apiV1, deps)
		SchemaRouter(apiV1)
		Dashboard(apiV1, deps)
	}
	return r
}

// session resolves the :id path parameter.
func session(c *gin.Context, deps *Dependencies) (*services.Session, bool) {
	s, err := deps.Sessions.Get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return nil, false
	}
	return s, true
}
