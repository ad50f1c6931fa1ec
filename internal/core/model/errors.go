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

package model

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies every failure that can reach a caller of take studio.
type ErrorKind string

const (
	KindAnalysisFailed         ErrorKind = "AnalysisFailed"
	KindStaleResponseDiscarded ErrorKind = "StaleResponseDiscarded"
	KindBlockedByPolicy        ErrorKind = "BlockedByPolicy"
	KindNoCandidates           ErrorKind = "NoCandidates"
	KindGenerationInterrupted  ErrorKind = "GenerationInterrupted"
	KindEmptyContent           ErrorKind = "EmptyContent"
	KindNoImageProduced        ErrorKind = "NoImageProduced"
	KindLookupFailed           ErrorKind = "LookupFailed"
	KindMediaFetchFailed       ErrorKind = "MediaFetchFailed"
	KindInvalidFileType        ErrorKind = "InvalidFileType"
	KindFrameExtractionFailed  ErrorKind = "FrameExtractionFailed"
	KindTimeout                ErrorKind = "Timeout"
)

// Retryable reports whether re-issuing the same operation can succeed.
// Stale responses are internal and never offered for retry.
func (k ErrorKind) Retryable() bool {
	return k != KindStaleResponseDiscarded
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrAnalysisFailed         = &Error{Kind: KindAnalysisFailed}
	ErrStaleResponseDiscarded = &Error{Kind: KindStaleResponseDiscarded}
	ErrBlockedByPolicy        = &Error{Kind: KindBlockedByPolicy}
	ErrNoCandidates           = &Error{Kind: KindNoCandidates}
	ErrGenerationInterrupted  = &Error{Kind: KindGenerationInterrupted}
	ErrEmptyContent           = &Error{Kind: KindEmptyContent}
	ErrNoImageProduced        = &Error{Kind: KindNoImageProduced}
	ErrLookupFailed           = &Error{Kind: KindLookupFailed}
	ErrMediaFetchFailed       = &Error{Kind: KindMediaFetchFailed}
	ErrInvalidFileType        = &Error{Kind: KindInvalidFileType}
	ErrFrameExtractionFailed  = &Error{Kind: KindFrameExtractionFailed}
	ErrTimeout                = &Error{Kind: KindTimeout}
)

// Error is a classified failure. Reason is the user facing text (the model's
// own words for NoImageProduced, the service message for LookupFailed); Err
// is the underlying cause, if any.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

// NewError returns a classified error.
func NewError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Errorf returns a classified error whose reason is built from format.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Classify converts err into a classified error at an operation boundary.
//
// Inputs:
//   - err: any error; nil stays nil.
//   - fallback: kind used when err is not already classified.
//
// Outputs:
//   - error: err unchanged if it already carries a kind, a Timeout if it
//     was caused by a context deadline, otherwise a fallback *Error wrapping err.
func Classify(err error, fallback ErrorKind) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Reason: "the remote call did not finish in time", Err: err}
	}
	return &Error{Kind: fallback, Err: err}
}
