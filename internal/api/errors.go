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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/history"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
)

// Kinds used for failures that are not *model.Error.
const (
	kindBadRequest = "BadRequest"
	kindConflict   = "Conflict"
	kindNotFound   = "NotFound"
	kindInternal   = "Internal"
)

// ErrorDetail is the "error" member of every failed response.
type ErrorDetail struct {
	Kind      string `json:"kind"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// ErrorBody is the body of every failed response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

var kindStatus = map[model.ErrorKind]int{
	model.KindInvalidFileType:       http.StatusUnsupportedMediaType,
	model.KindLookupFailed:          http.StatusUnprocessableEntity,
	model.KindMediaFetchFailed:      http.StatusBadGateway,
	model.KindBlockedByPolicy:       http.StatusUnprocessableEntity,
	model.KindNoCandidates:          http.StatusUnprocessableEntity,
	model.KindGenerationInterrupted: http.StatusUnprocessableEntity,
	model.KindEmptyContent:          http.StatusUnprocessableEntity,
	model.KindNoImageProduced:       http.StatusUnprocessableEntity,
	model.KindAnalysisFailed:        http.StatusBadGateway,
	model.KindFrameExtractionFailed: http.StatusUnprocessableEntity,
	model.KindTimeout:               http.StatusGatewayTimeout,
}

// Describe maps err to its HTTP status and error body.
//
// Inputs:
//   - err: any error returned by a service.
//
// Outputs:
//   - int: the HTTP status.
//   - ErrorBody: the body to send.
func Describe(err error) (int, ErrorBody) {
	var me *model.Error
	if errors.As(err, &me) {
		status, ok := kindStatus[me.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		reason := me.Reason
		if reason == "" {
			reason = me.Error()
		}
		return status, ErrorBody{ErrorDetail{Kind: string(me.Kind), Reason: reason, Retryable: me.Kind.Retryable()}}
	}

	detail := ErrorDetail{Reason: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		status, detail.Kind = http.StatusNotFound, kindNotFound
	case errors.Is(err, history.ErrEditInFlight),
		errors.Is(err, history.ErrChainEmpty),
		errors.Is(err, history.ErrNoPendingResult),
		errors.Is(err, services.ErrNoVideo),
		errors.Is(err, services.ErrNothingToRetry):
		status, detail.Kind = http.StatusConflict, kindConflict
	case errors.Is(err, history.ErrIndexOutOfRange),
		errors.Is(err, imageedit.ErrInvalidRequest),
		errors.Is(err, errBadInput):
		status, detail.Kind = http.StatusBadRequest, kindBadRequest
	default:
		detail.Kind = kindInternal
		detail.Reason = "internal error"
		detail.Retryable = true
	}
	return status, detail.body()
}

func (d ErrorDetail) body() ErrorBody {
	return ErrorBody{Error: d}
}

// errBadInput marks malformed requests.
var errBadInput = errors.New("bad request")

func badInput(err error) error {
	return fmt.Errorf("%w: %v", errBadInput, err)
}

// abort writes the error response for err.
func abort(c *gin.Context, err error) {
	status, body := Describe(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "status", status, "error", err)
	} else {
		slog.InfoContext(c.Request.Context(), "request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}
