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

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// genericLookupFailure is reported when the resolver gives no reason.
const genericLookupFailure = "failed to resolve the video, the URL may be invalid or the video private"

// LookupService resolves short video page URLs into direct asset URLs.
type LookupService struct {
	endpoint    string
	timeout     time.Duration
	httpClient  *http.Client
	preferences *PreferenceService
}

// NewLookupService returns the service.
//
// Inputs:
//   - endpoint: the resolver endpoint.
//   - timeout: bounds one resolution.
//   - preferences: when not nil, every resolved video is saved to the history.
//
// Outputs:
//   - *LookupService: the service.
func NewLookupService(endpoint string, timeout time.Duration, preferences *PreferenceService) *LookupService {
	return &LookupService{
		endpoint:    endpoint,
		timeout:     timeout,
		httpClient:  &http.Client{},
		preferences: preferences,
	}
}

// Resolve asks the resolver for the assets of pageURL and records the video
// in the lookup history.
func (s *LookupService) Resolve(ctx context.Context, pageURL string) (*model.VideoMetadata, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, model.Errorf(model.KindLookupFailed, "no URL given")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return nil, fmt.Errorf("marshal lookup request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, model.NewError(model.KindLookupFailed, "invalid resolver endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, model.Classify(fmt.Errorf("lookup request failed: %w", err), model.KindLookupFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.Errorf(model.KindLookupFailed, "the resolver answered HTTP %d", resp.StatusCode)
	}
	var result model.LookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, model.NewError(model.KindLookupFailed, "the resolver answer is not JSON", err)
	}
	if result.Code != 0 || result.Data == nil || result.Data.Play == "" {
		reason := result.Msg
		if reason == "" {
			reason = genericLookupFailure
		}
		return nil, model.Errorf(model.KindLookupFailed, "%s", reason)
	}

	data := *result.Data
	data.Play = s.absolute(data.Play)
	data.Cover = s.absolute(data.Cover)
	data.Music = s.absolute(data.Music)

	if s.preferences != nil {
		if _, err := s.preferences.SaveHistory(ctx, data); err != nil {
			slog.WarnContext(ctx, "failed to save lookup history", "video", data.ID, "error", err)
		}
	}
	return &data, nil
}

// absolute resolves a relative asset URL against the endpoint.
func (s *LookupService) absolute(ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(s.endpoint)
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

// MediaFetcher downloads remote media. When a direct download fails and a
// relay is configured, the download is retried through the relay.
type MediaFetcher struct {
	relayURL   string
	maxBytes   int64
	timeout    time.Duration
	httpClient *http.Client
}

// NewMediaFetcher returns the fetcher.
//
// Inputs:
//   - relayURL: optional relay; "{url}" is replaced by the escaped target,
//     otherwise the escaped target is appended.
//   - maxBytes: responses larger than this fail.
//   - timeout: bounds one download including the relay attempt.
//
// Outputs:
//   - *MediaFetcher: the fetcher.
func NewMediaFetcher(relayURL string, maxBytes int64, timeout time.Duration) *MediaFetcher {
	return &MediaFetcher{relayURL: relayURL, maxBytes: maxBytes, timeout: timeout, httpClient: &http.Client{}}
}

// RelayTarget returns the relay URL for target, or "" without a relay.
func (f *MediaFetcher) RelayTarget(target string) string {
	if f.relayURL == "" {
		return ""
	}
	escaped := url.QueryEscape(target)
	if strings.Contains(f.relayURL, "{url}") {
		return strings.ReplaceAll(f.relayURL, "{url}", escaped)
	}
	return f.relayURL + escaped
}

// Fetch downloads target and returns its bytes with the declared content type.
func (f *MediaFetcher) Fetch(ctx context.Context, target string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	data, contentType, err := f.get(ctx, target)
	if err == nil {
		return data, contentType, nil
	}
	relay := f.RelayTarget(target)
	if relay == "" || ctx.Err() != nil {
		return nil, "", model.Classify(err, model.KindMediaFetchFailed)
	}
	slog.WarnContext(ctx, "direct download failed, using relay", "url", target, "error", err)
	data, contentType, rerr := f.get(ctx, relay)
	if rerr != nil {
		return nil, "", model.Classify(fmt.Errorf("relay download failed: %w (direct: %v)", rerr, err), model.KindMediaFetchFailed)
	}
	return data, contentType, nil
}

func (f *MediaFetcher) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%s answered HTTP %d", req.URL.Host, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("%s is larger than %d bytes", req.URL.Host, f.maxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
