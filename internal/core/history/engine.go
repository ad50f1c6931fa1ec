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

package history

import (
	"sync"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// Ticket identifies one edit in flight. It carries everything needed to run
// the edit so the caller can release the engine while the model works.
type Ticket struct {
	ID       uint64
	Location model.Location
	Base     model.ImageArtifact
	Request  imageedit.Request
}

// Outcome is the state of the target chain after an edit completed.
type Outcome struct {
	Location model.Location
	Result   model.ImageArtifact // The produced image; zero on failure.
	Head     model.ImageArtifact // Head of the chain after the edit.
	Pending  bool                // The result waits for acceptance.
	Err      error               // The classified failure, if any.
}

// FailedEdit is the last failed request of a chain, kept so it can be
// retried without asking for its inputs again.
type FailedEdit struct {
	Request imageedit.Request
	Err     error
}

// Engine owns the two chains of one session and enforces their transitions.
// At most one edit is in flight per session. Events that replace a chain's
// base (CaptureFrame, UploadContinuationBase, Reset) invalidate the ticket
// of an affected edit; its completion is then dropped as stale.
type Engine struct {
	mu           sync.Mutex
	primary      Chain
	continuation Chain
	inflight     *Ticket
	nextID       uint64
	failed       map[model.Location]FailedEdit
}

// NewEngine returns an engine with both chains empty.
func NewEngine() *Engine {
	return &Engine{failed: make(map[model.Location]FailedEdit)}
}

func (e *Engine) chain(location model.Location) *Chain {
	if location == model.LocationContinuation {
		return &e.continuation
	}
	return &e.primary
}

func (e *Engine) invalidate(locations ...model.Location) {
	if e.inflight == nil {
		return
	}
	for _, l := range locations {
		if e.inflight.Location == l {
			e.inflight = nil
			return
		}
	}
}

// CaptureFrame roots the primary chain at frame and empties the
// continuation chain. Any edit in flight becomes stale.
func (e *Engine) CaptureFrame(frame model.ImageArtifact) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.primary.Root(frame)
	e.continuation.Clear()
	e.invalidate(model.LocationPrimary, model.LocationContinuation)
	clear(e.failed)
}

// UploadContinuationBase roots the continuation chain at image and leaves
// the primary chain alone. A continuation edit in flight becomes stale.
func (e *Engine) UploadContinuationBase(image model.ImageArtifact) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.continuation.Root(image)
	e.invalidate(model.LocationContinuation)
	delete(e.failed, model.LocationContinuation)
}

// BeginEdit reserves the session for an edit of the chain at location.
//
// Inputs:
//   - location: the target chain.
//   - req: the edit; it is kept on the ticket and, if the edit fails, for retry.
//
// Outputs:
//   - Ticket: the reservation, carrying the current head as the base.
//   - error: ErrEditInFlight or ErrChainEmpty.
func (e *Engine) BeginEdit(location model.Location, req imageedit.Request) (Ticket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight != nil {
		return Ticket{}, ErrEditInFlight
	}
	base, ok := e.chain(location).Head()
	if !ok {
		return Ticket{}, ErrChainEmpty
	}
	e.nextID++
	ticket := Ticket{ID: e.nextID, Location: location, Base: base, Request: req}
	e.inflight = &ticket
	return ticket, nil
}

// CompleteEdit applies the result of the edit reserved by ticket.
//
// A primary success appends result and reseeds the continuation chain with
// it. A continuation success becomes the pending result. A failure leaves
// both chains untouched and is remembered for retry.
//
// Inputs:
//   - ticket: returned by BeginEdit.
//   - result: the produced image when err is nil.
//   - err: the classified failure of the edit.
//
// Outputs:
//   - Outcome: the target chain after the edit, including err.
//   - error: err itself, or StaleResponseDiscarded when the ticket was
//     invalidated; the chains are then unchanged.
func (e *Engine) CompleteEdit(ticket Ticket, result model.ImageArtifact, err error) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight == nil || e.inflight.ID != ticket.ID {
		return Outcome{Location: ticket.Location}, model.Errorf(model.KindStaleResponseDiscarded,
			"edit %d on %s was superseded", ticket.ID, ticket.Location)
	}
	e.inflight = nil

	chain := e.chain(ticket.Location)
	out := Outcome{Location: ticket.Location}
	if err == nil && result.IsZero() {
		err = model.Errorf(model.KindNoImageProduced, "the edit produced an empty image")
	}
	if err != nil {
		e.failed[ticket.Location] = FailedEdit{Request: ticket.Request, Err: err}
		out.Head, _ = chain.Head()
		out.Err = err
		return out, err
	}

	switch ticket.Location {
	case model.LocationContinuation:
		if perr := chain.Propose(result); perr != nil {
			return out, perr
		}
		out.Pending = true
		delete(e.failed, model.LocationContinuation)
	default:
		if aerr := chain.Append(result); aerr != nil {
			return out, aerr
		}
		e.continuation.Root(result)
		clear(e.failed)
	}
	out.Result = result
	out.Head, _ = chain.Head()
	return out, nil
}

// AcceptContinuation appends the pending continuation result.
func (e *Engine) AcceptContinuation() (model.ImageArtifact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight != nil && e.inflight.Location == model.LocationContinuation {
		return model.ImageArtifact{}, ErrEditInFlight
	}
	return e.continuation.Accept()
}

// DiscardContinuation drops the pending continuation result, reporting
// whether there was one.
func (e *Engine) DiscardContinuation() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.continuation.Discard()
}

// RevertTo truncates the chain at location after index. The chain that
// owns the edit in flight cannot be reverted.
func (e *Engine) RevertTo(location model.Location, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight != nil && e.inflight.Location == location {
		return ErrEditInFlight
	}
	return e.chain(location).RevertTo(index)
}

// Reset empties both chains, forgets failures and invalidates any edit in flight.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.primary.Clear()
	e.continuation.Clear()
	e.inflight = nil
	clear(e.failed)
}

// LastError returns the last failed edit of the chain at location.
func (e *Engine) LastError(location model.Location) (FailedEdit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.failed[location]
	return f, ok
}

// InFlight returns the location that owns the edit in flight.
func (e *Engine) InFlight() (model.Location, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight == nil {
		return "", false
	}
	return e.inflight.Location, true
}

// ChainSnapshot is a copy of one chain.
type ChainSnapshot struct {
	State     ChainState            `json:"state"`
	Entries   []model.ImageArtifact `json:"entries"`
	Pending   *model.ImageArtifact  `json:"pending,omitempty"`
	LastError string                `json:"last_error,omitempty"`
	ErrorKind model.ErrorKind       `json:"error_kind,omitempty"`
}

// Snapshot is a copy of the engine state.
type Snapshot struct {
	Primary      ChainSnapshot  `json:"primary"`
	Continuation ChainSnapshot  `json:"continuation"`
	InFlight     model.Location `json:"in_flight,omitempty"`
}

func (e *Engine) snapshot(location model.Location) ChainSnapshot {
	c := e.chain(location)
	out := ChainSnapshot{State: c.State(), Entries: c.Entries()}
	if p, ok := c.Pending(); ok {
		out.Pending = &p
	}
	if f, ok := e.failed[location]; ok {
		out.LastError = f.Err.Error()
		out.ErrorKind, _ = model.KindOf(f.Err)
	}
	return out
}

// Snapshot copies both chains, the failures and the owner of the edit in flight.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := Snapshot{
		Primary:      e.snapshot(model.LocationPrimary),
		Continuation: e.snapshot(model.LocationContinuation),
	}
	if e.inflight != nil {
		out.InFlight = e.inflight.Location
	}
	return out
}
