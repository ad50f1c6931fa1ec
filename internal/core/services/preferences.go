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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/store"
)

// Keys of the preference store.
const (
	PinnedCharacterKey = "pinnedCharacter"
	HistoryKey         = "tiktokVideoHistory"
)

// PreferenceService keeps the pinned character image and the lookup history.
type PreferenceService struct {
	store      store.KeyValueStore
	maxHistory int
	now        func() time.Time
}

// NewPreferenceService returns the service. maxHistory caps the history;
// zero keeps every entry.
func NewPreferenceService(kv store.KeyValueStore, maxHistory int) *PreferenceService {
	return &PreferenceService{store: kv, maxHistory: maxHistory, now: time.Now}
}

// PinnedCharacter returns the pinned reference image.
func (p *PreferenceService) PinnedCharacter(ctx context.Context) (model.ImageArtifact, bool, error) {
	value, ok, err := p.store.Get(ctx, PinnedCharacterKey)
	if err != nil || !ok {
		return model.ImageArtifact{}, false, err
	}
	image, err := model.ParseDataURI(value)
	if err != nil {
		slog.WarnContext(ctx, "ignoring unreadable pinned character", "error", err)
		return model.ImageArtifact{}, false, nil
	}
	return image, true, nil
}

// SavePinnedCharacter pins an image; anything that does not sniff as an
// image is rejected with InvalidFileType.
func (p *PreferenceService) SavePinnedCharacter(ctx context.Context, data []byte) (model.ImageArtifact, error) {
	image, err := media.ImageArtifact(data)
	if err != nil {
		return model.ImageArtifact{}, err
	}
	if err := p.store.Set(ctx, PinnedCharacterKey, image.DataURI()); err != nil {
		return model.ImageArtifact{}, err
	}
	return image, nil
}

// RemovePinnedCharacter unpins the image.
func (p *PreferenceService) RemovePinnedCharacter(ctx context.Context) error {
	return p.store.Remove(ctx, PinnedCharacterKey)
}

// History returns the lookup history, newest first. A stored value that
// does not decode reads as an empty history.
func (p *PreferenceService) History(ctx context.Context) ([]model.HistoryItem, error) {
	value, ok, err := p.store.Get(ctx, HistoryKey)
	if err != nil {
		return nil, err
	}
	items := make([]model.HistoryItem, 0)
	if !ok || value == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		slog.WarnContext(ctx, "failed to parse lookup history", "error", err)
		return make([]model.HistoryItem, 0), nil
	}
	return items, nil
}

// SaveHistory puts data at the front of the history, removing an older
// entry with the same id, and returns the new history.
func (p *PreferenceService) SaveHistory(ctx context.Context, data model.VideoMetadata) ([]model.HistoryItem, error) {
	current, err := p.History(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]model.HistoryItem, 0, len(current)+1)
	items = append(items, model.HistoryItem{Data: data, AddedAt: model.FormatISOTimestamp(p.now())})
	for _, item := range current {
		if item.Data.ID != data.ID {
			items = append(items, item)
		}
	}
	if p.maxHistory > 0 && len(items) > p.maxHistory {
		items = items[:p.maxHistory]
	}
	return items, p.write(ctx, items)
}

// RemoveHistory drops the entry with id and returns the new history.
func (p *PreferenceService) RemoveHistory(ctx context.Context, id string) ([]model.HistoryItem, error) {
	current, err := p.History(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]model.HistoryItem, 0, len(current))
	for _, item := range current {
		if item.Data.ID != id {
			items = append(items, item)
		}
	}
	return items, p.write(ctx, items)
}

func (p *PreferenceService) write(ctx context.Context, items []model.HistoryItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return p.store.Set(ctx, HistoryKey, string(b))
}
