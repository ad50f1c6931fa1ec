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

package history_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/history"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

func version(n byte) model.ImageArtifact {
	return model.NewImageArtifact("image/png", []byte{n})
}

var hat = imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "add a hat"}

func TestChainLifecycle(t *testing.T) {
	var c history.Chain
	assert.Equal(t, history.ChainState{Phase: history.PhaseEmpty}, c.State())
	assert.ErrorIs(t, c.Append(version(1)), history.ErrChainEmpty)
	assert.ErrorIs(t, c.Propose(version(1)), history.ErrChainEmpty)
	assert.ErrorIs(t, c.RevertTo(0), history.ErrChainEmpty)

	c.Root(version(0))
	assert.Equal(t, history.ChainState{Phase: history.PhaseRooted}, c.State())
	require.NoError(t, c.Append(version(1)))
	require.NoError(t, c.Append(version(2)))
	assert.Equal(t, history.ChainState{Phase: history.PhaseEdited, Edits: 2}, c.State())

	head, ok := c.Head()
	require.True(t, ok)
	assert.Equal(t, version(2), head)
}

func TestChainRevertDiscardsForwardHistory(t *testing.T) {
	var c history.Chain
	c.Root(version(0))
	for i := byte(1); i <= 3; i++ {
		require.NoError(t, c.Append(version(i)))
	}

	require.NoError(t, c.RevertTo(1))
	assert.Equal(t, []model.ImageArtifact{version(0), version(1)}, c.Entries())

	require.NoError(t, c.Append(version(9)))
	assert.Equal(t, []model.ImageArtifact{version(0), version(1), version(9)}, c.Entries())

	assert.ErrorIs(t, c.RevertTo(3), history.ErrIndexOutOfRange)
	assert.ErrorIs(t, c.RevertTo(-1), history.ErrIndexOutOfRange)
}

func TestChainEntriesAreCopies(t *testing.T) {
	var c history.Chain
	c.Root(version(0))
	entries := c.Entries()
	entries[0] = version(5)
	head, _ := c.Head()
	assert.Equal(t, version(0), head)
}

func TestChainPending(t *testing.T) {
	var c history.Chain
	c.Root(version(0))

	_, err := c.Accept()
	assert.ErrorIs(t, err, history.ErrNoPendingResult)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Propose(version(1)))
	require.NoError(t, c.Propose(version(2)))
	assert.True(t, c.State().HasPending)
	assert.Equal(t, 1, c.Len())

	accepted, err := c.Accept()
	require.NoError(t, err)
	assert.Equal(t, version(2), accepted)
	assert.Equal(t, []model.ImageArtifact{version(0), version(2)}, c.Entries())

	require.NoError(t, c.Propose(version(3)))
	require.NoError(t, c.RevertTo(0))
	_, ok := c.Pending()
	assert.False(t, ok)
	assert.False(t, c.Discard())
}

// applyPrimary runs one successful primary edit.
func applyPrimary(t *testing.T, e *history.Engine, result model.ImageArtifact) history.Outcome {
	t.Helper()
	ticket, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)
	out, err := e.CompleteEdit(ticket, result, nil)
	require.NoError(t, err)
	return out
}

func TestEngineRequiresRoot(t *testing.T) {
	e := history.NewEngine()
	_, err := e.BeginEdit(model.LocationPrimary, hat)
	assert.ErrorIs(t, err, history.ErrChainEmpty)
	_, err = e.BeginEdit(model.LocationContinuation, hat)
	assert.ErrorIs(t, err, history.ErrChainEmpty)
}

func TestEnginePrimaryEditSeedsContinuation(t *testing.T) {
	e := history.NewEngine()
	e.CaptureFrame(version(0))

	out := applyPrimary(t, e, version(1))
	assert.Equal(t, version(1), out.Head)
	assert.False(t, out.Pending)

	ticket, err := e.BeginEdit(model.LocationContinuation, hat)
	require.NoError(t, err)
	assert.Equal(t, version(1), ticket.Base)
	_, err = e.CompleteEdit(ticket, version(10), nil)
	require.NoError(t, err)
	_, err = e.AcceptContinuation()
	require.NoError(t, err)
	assert.Len(t, e.Snapshot().Continuation.Entries, 2)

	applyPrimary(t, e, version(2))
	snap := e.Snapshot()
	assert.Equal(t, []model.ImageArtifact{version(0), version(1), version(2)}, snap.Primary.Entries)
	assert.Equal(t, []model.ImageArtifact{version(2)}, snap.Continuation.Entries)
	assert.Equal(t, history.PhaseRooted, snap.Continuation.State.Phase)
}

func TestEngineRevertThenEdit(t *testing.T) {
	e := history.NewEngine()
	e.CaptureFrame(version(0))
	for i := byte(1); i <= 3; i++ {
		applyPrimary(t, e, version(i))
	}

	require.NoError(t, e.RevertTo(model.LocationPrimary, 1))
	assert.Equal(t, []model.ImageArtifact{version(0), version(1)}, e.Snapshot().Primary.Entries)

	ticket, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)
	assert.Equal(t, version(1), ticket.Base)
	_, err = e.CompleteEdit(ticket, version(7), nil)
	require.NoError(t, err)
	assert.Equal(t, []model.ImageArtifact{version(0), version(1), version(7)}, e.Snapshot().Primary.Entries)
}

func TestEngineContinuationNeedsAcceptance(t *testing.T) {
	e := history.NewEngine()
	e.UploadContinuationBase(version(20))

	_, err := e.AcceptContinuation()
	assert.ErrorIs(t, err, history.ErrNoPendingResult)

	ticket, err := e.BeginEdit(model.LocationContinuation, hat)
	require.NoError(t, err)
	out, err := e.CompleteEdit(ticket, version(21), nil)
	require.NoError(t, err)
	assert.True(t, out.Pending)
	assert.Equal(t, version(20), out.Head)

	snap := e.Snapshot()
	assert.Equal(t, []model.ImageArtifact{version(20)}, snap.Continuation.Entries)
	require.NotNil(t, snap.Continuation.Pending)
	assert.Equal(t, version(21), *snap.Continuation.Pending)
	assert.Equal(t, history.PhaseEmpty, snap.Primary.State.Phase)

	assert.True(t, e.DiscardContinuation())
	_, err = e.AcceptContinuation()
	assert.ErrorIs(t, err, history.ErrNoPendingResult)
	assert.Equal(t, 1, len(e.Snapshot().Continuation.Entries))
}

func TestEngineOneEditInFlight(t *testing.T) {
	e := history.NewEngine()
	e.CaptureFrame(version(0))
	e.UploadContinuationBase(version(20))

	ticket, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)
	location, ok := e.InFlight()
	require.True(t, ok)
	assert.Equal(t, model.LocationPrimary, location)

	_, err = e.BeginEdit(model.LocationContinuation, hat)
	assert.ErrorIs(t, err, history.ErrEditInFlight)
	assert.ErrorIs(t, e.RevertTo(model.LocationPrimary, 0), history.ErrEditInFlight)
	assert.NoError(t, e.RevertTo(model.LocationContinuation, 0))

	_, err = e.CompleteEdit(ticket, version(1), nil)
	require.NoError(t, err)
	_, ok = e.InFlight()
	assert.False(t, ok)
}

func TestEngineFailureKeepsState(t *testing.T) {
	e := history.NewEngine()
	e.CaptureFrame(version(0))
	applyPrimary(t, e, version(1))
	before := e.Snapshot()

	failure := model.Errorf(model.KindBlockedByPolicy, "SAFETY")
	ticket, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)
	out, err := e.CompleteEdit(ticket, model.ImageArtifact{}, failure)
	assert.ErrorIs(t, err, model.ErrBlockedByPolicy)
	assert.Equal(t, version(1), out.Head)
	assert.Equal(t, failure, out.Err)

	after := e.Snapshot()
	assert.Equal(t, before.Primary.Entries, after.Primary.Entries)
	assert.Equal(t, before.Continuation.Entries, after.Continuation.Entries)
	assert.Equal(t, model.KindBlockedByPolicy, after.Primary.ErrorKind)

	failed, ok := e.LastError(model.LocationPrimary)
	require.True(t, ok)
	assert.Equal(t, hat, failed.Request)

	applyPrimary(t, e, version(2))
	_, ok = e.LastError(model.LocationPrimary)
	assert.False(t, ok)
}

func TestEngineEmptyResultIsFailure(t *testing.T) {
	e := history.NewEngine()
	e.CaptureFrame(version(0))
	ticket, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)
	_, err = e.CompleteEdit(ticket, model.ImageArtifact{}, nil)
	assert.ErrorIs(t, err, model.ErrNoImageProduced)
	assert.Equal(t, 1, len(e.Snapshot().Primary.Entries))
}

func TestEngineStaleCompletions(t *testing.T) {
	cases := []struct {
		name     string
		location model.Location
		event    func(e *history.Engine)
	}{
		{"capture invalidates primary", model.LocationPrimary, func(e *history.Engine) { e.CaptureFrame(version(50)) }},
		{"capture invalidates continuation", model.LocationContinuation, func(e *history.Engine) { e.CaptureFrame(version(50)) }},
		{"upload invalidates continuation", model.LocationContinuation, func(e *history.Engine) { e.UploadContinuationBase(version(51)) }},
		{"reset invalidates primary", model.LocationPrimary, func(e *history.Engine) { e.Reset() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := history.NewEngine()
			e.CaptureFrame(version(0))
			e.UploadContinuationBase(version(20))

			ticket, err := e.BeginEdit(tc.location, hat)
			require.NoError(t, err)
			tc.event(e)
			before := e.Snapshot()

			_, err = e.CompleteEdit(ticket, version(99), nil)
			assert.ErrorIs(t, err, model.ErrStaleResponseDiscarded)
			assert.Equal(t, before, e.Snapshot())
		})
	}
}

func TestEngineUploadKeepsPrimaryEditValid(t *testing.T) {
	e := history.NewEngine()
	e.CaptureFrame(version(0))
	ticket, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)

	e.UploadContinuationBase(version(20))
	_, err = e.CompleteEdit(ticket, version(1), nil)
	require.NoError(t, err)
	assert.Equal(t, []model.ImageArtifact{version(1)}, e.Snapshot().Continuation.Entries)
}

func TestEngineStaleTicketDoesNotReleaseNewEdit(t *testing.T) {
	e := history.NewEngine()
	e.CaptureFrame(version(0))
	old, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)

	e.CaptureFrame(version(1))
	current, err := e.BeginEdit(model.LocationPrimary, hat)
	require.NoError(t, err)

	_, err = e.CompleteEdit(old, version(2), errors.New("late"))
	assert.ErrorIs(t, err, model.ErrStaleResponseDiscarded)
	_, ok := e.LastError(model.LocationPrimary)
	assert.False(t, ok)

	_, err = e.CompleteEdit(current, version(3), nil)
	require.NoError(t, err)
	assert.Equal(t, []model.ImageArtifact{version(1), version(3)}, e.Snapshot().Primary.Entries)
}
