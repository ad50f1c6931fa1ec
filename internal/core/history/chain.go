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

// Package history keeps the version chains of an edit session. The primary
// chain starts at a captured video frame and grows with every successful
// edit; the continuation chain is seeded from the newest primary result (or
// an uploaded image) and only grows when a proposed result is accepted.
package history

import (
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// Engine misuse. These are caller errors, not model failures.
var (
	ErrEditInFlight    = errors.New("an edit is already in progress")
	ErrChainEmpty      = errors.New("the chain has no base image")
	ErrIndexOutOfRange = errors.New("version index out of range")
	ErrNoPendingResult = errors.New("there is no pending result to accept")
)

// Phase is the lifecycle position of a chain.
type Phase string

const (
	PhaseEmpty  Phase = "empty"
	PhaseRooted Phase = "rooted"
	PhaseEdited Phase = "edited"
)

// ChainState summarises a chain. Edits counts the entries after the root.
type ChainState struct {
	Phase      Phase `json:"phase"`
	Edits      int   `json:"edits"`
	HasPending bool  `json:"has_pending"`
}

// Chain is an ordered sequence of images with an optional pending result.
// The zero value is an empty chain. A Chain is not safe for concurrent use;
// Engine serialises access.
type Chain struct {
	entries []model.ImageArtifact
	pending *model.ImageArtifact
}

// Root replaces the whole chain with a single entry.
func (c *Chain) Root(image model.ImageArtifact) {
	c.entries = []model.ImageArtifact{image}
	c.pending = nil
}

// Clear empties the chain.
func (c *Chain) Clear() {
	c.entries = nil
	c.pending = nil
}

// Append adds image as the new head.
func (c *Chain) Append(image model.ImageArtifact) error {
	if len(c.entries) == 0 {
		return ErrChainEmpty
	}
	c.entries = append(c.entries, image)
	return nil
}

// RevertTo truncates the chain after index, which becomes the head. A
// pending result is discarded because it was produced from another head.
func (c *Chain) RevertTo(index int) error {
	if len(c.entries) == 0 {
		return ErrChainEmpty
	}
	if index < 0 || index >= len(c.entries) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(c.entries))
	}
	c.entries = c.entries[:index+1:index+1]
	c.pending = nil
	return nil
}

// Head returns the newest entry.
func (c *Chain) Head() (model.ImageArtifact, bool) {
	if len(c.entries) == 0 {
		return model.ImageArtifact{}, false
	}
	return c.entries[len(c.entries)-1], true
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries, root first.
func (c *Chain) Entries() []model.ImageArtifact {
	return append([]model.ImageArtifact(nil), c.entries...)
}

// State reports the phase of the chain.
func (c *Chain) State() ChainState {
	out := ChainState{HasPending: c.pending != nil}
	switch n := len(c.entries); {
	case n == 0:
		out.Phase = PhaseEmpty
	case n == 1:
		out.Phase = PhaseRooted
	default:
		out.Phase = PhaseEdited
		out.Edits = n - 1
	}
	return out
}

// Propose holds image as the pending result, replacing any earlier one.
func (c *Chain) Propose(image model.ImageArtifact) error {
	if len(c.entries) == 0 {
		return ErrChainEmpty
	}
	c.pending = &image
	return nil
}

// Accept appends the pending result.
func (c *Chain) Accept() (model.ImageArtifact, error) {
	if c.pending == nil {
		return model.ImageArtifact{}, ErrNoPendingResult
	}
	accepted := *c.pending
	c.entries = append(c.entries, accepted)
	c.pending = nil
	return accepted, nil
}

// Discard drops the pending result and reports whether there was one.
func (c *Chain) Discard() bool {
	had := c.pending != nil
	c.pending = nil
	return had
}

// Pending returns the pending result.
func (c *Chain) Pending() (model.ImageArtifact, bool) {
	if c.pending == nil {
		return model.ImageArtifact{}, false
	}
	return *c.pending, true
}
