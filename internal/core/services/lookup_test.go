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

package services_test

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/services"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/store"
	test "github.com/jaycherian/gcp-go-take-studio/internal/testutil"
)

func resolver(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://vm.example.com/abc", req["url"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupResolve(t *testing.T) {
	srv := resolver(t, http.StatusOK, map[string]any{
		"code": 0,
		"msg":  "success",
		"data": map[string]any{
			"id":     "7301",
			"play":   "/video/media/play/7301.mp4",
			"cover":  "https://cdn.example.com/7301.jpg",
			"music":  "",
			"title":  "demo",
			"author": map[string]any{"nickname": "maria"},
		},
	})
	prefs := services.NewPreferenceService(store.NewMemoryStore(), 0)
	svc := services.NewLookupService(srv.URL+"/api/", time.Second, prefs)

	data, err := svc.Resolve(context.Background(), "https://vm.example.com/abc")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/video/media/play/7301.mp4", data.Play)
	assert.Equal(t, "https://cdn.example.com/7301.jpg", data.Cover)
	assert.Empty(t, data.Music)
	assert.Equal(t, "maria", data.Author.Nickname)

	items, err := prefs.History(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "7301", items[0].Data.ID)
}

func TestLookupFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   any
		reason string
	}{
		{"http error", http.StatusBadGateway, map[string]any{}, "HTTP 502"},
		{"service message", http.StatusOK, map[string]any{"code": -1, "msg": "Url parsing is failed!"}, "Url parsing is failed!"},
		{"no data", http.StatusOK, map[string]any{"code": 0}, "private"},
		{"no play url", http.StatusOK, map[string]any{"code": 0, "data": map[string]any{"id": "1"}}, "private"},
		{"not json", http.StatusOK, "<html>", "not JSON"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := resolver(t, tc.status, tc.body)
			prefs := services.NewPreferenceService(store.NewMemoryStore(), 0)
			svc := services.NewLookupService(srv.URL, time.Second, prefs)

			_, err := svc.Resolve(context.Background(), "https://vm.example.com/abc")
			require.ErrorIs(t, err, model.ErrLookupFailed)
			assert.Contains(t, err.Error(), tc.reason)

			items, err := prefs.History(context.Background())
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestLookupRejectsBlankURL(t *testing.T) {
	svc := services.NewLookupService("http://127.0.0.1:1", time.Second, nil)
	_, err := svc.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, model.ErrLookupFailed)
}

func TestMediaFetcherDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(test.MP4Header())
	}))
	defer srv.Close()

	fetcher := services.NewMediaFetcher("", 1<<20, time.Second)
	data, contentType, err := fetcher.Fetch(context.Background(), srv.URL+"/v.mp4")
	require.NoError(t, err)
	assert.Equal(t, test.MP4Header(), data)
	assert.Equal(t, "video/mp4", contentType)
}

func TestMediaFetcherFallsBackToRelay(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer origin.Close()

	var relayed string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayed = r.URL.Query().Get("target")
		_, _ = w.Write([]byte("relayed bytes"))
	}))
	defer relay.Close()

	target := origin.URL + "/v.mp4?sig=1&x=2"
	fetcher := services.NewMediaFetcher(relay.URL+"/fetch?target={url}", 1<<20, time.Second)
	data, _, err := fetcher.Fetch(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, "relayed bytes", string(data))
	assert.Equal(t, target, relayed)

	direct := services.NewMediaFetcher("", 1<<20, time.Second)
	_, _, err = direct.Fetch(context.Background(), target)
	assert.ErrorIs(t, err, model.ErrMediaFetchFailed)
}

func TestMediaFetcherRelayPrefix(t *testing.T) {
	fetcher := services.NewMediaFetcher("https://relay.example.com/?u=", 10, time.Second)
	assert.Equal(t, "https://relay.example.com/?u="+url.QueryEscape("https://a.b/c?d=e"), fetcher.RelayTarget("https://a.b/c?d=e"))
	assert.Empty(t, services.NewMediaFetcher("", 10, time.Second).RelayTarget("https://a.b"))
}

func TestMediaFetcherSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	_, _, err := services.NewMediaFetcher("", 63, time.Second).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, model.ErrMediaFetchFailed)
	data, _, err := services.NewMediaFetcher("", 64, time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestPinnedCharacter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	prefs := services.NewPreferenceService(kv, 0)

	_, ok, err := prefs.PinnedCharacter(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	saved, err := prefs.SavePinnedCharacter(ctx, test.PNG(3, 3, color.Black))
	require.NoError(t, err)
	assert.Equal(t, saved.DataURI(), kv.Dump()[services.PinnedCharacterKey])

	got, ok, err := prefs.PinnedCharacter(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved, got)

	_, err = prefs.SavePinnedCharacter(ctx, test.MP4Header())
	assert.ErrorIs(t, err, model.ErrInvalidFileType)

	require.NoError(t, prefs.RemovePinnedCharacter(ctx))
	_, ok, err = prefs.PinnedCharacter(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistoryOrderingAndCap(t *testing.T) {
	ctx := context.Background()
	prefs := services.NewPreferenceService(store.NewMemoryStore(), 3)

	for _, id := range []string{"a", "b", "c", "a", "d"} {
		_, err := prefs.SaveHistory(ctx, model.VideoMetadata{ID: id, Play: "https://cdn/" + id})
		require.NoError(t, err)
	}
	items, err := prefs.History(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Data.ID)
		_, perr := time.Parse(model.ISOTimestampLayout, item.AddedAt)
		assert.NoError(t, perr)
	}
	assert.Equal(t, []string{"d", "a", "c"}, ids)

	items, err = prefs.RemoveHistory(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	items, err = prefs.RemoveHistory(ctx, "missing")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCorruptHistoryReadsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, services.HistoryKey, "{not json"))
	prefs := services.NewPreferenceService(kv, 0)

	items, err := prefs.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = prefs.SaveHistory(ctx, model.VideoMetadata{ID: "x", Play: "p"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
