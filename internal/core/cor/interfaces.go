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

// Package cor (Chain of Responsibility) holds the primitives every analysis
// pipeline in take studio is assembled from. A Command does one unit of work
// against a shared Context; a Chain runs commands in order and pipes the
// output of each into the input of the next.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Keys used by BaseChain to pipe data between commands.
const (
	// CtxIn holds the primary input of the command being executed.
	CtxIn = "__IN__"
	// CtxOut is where a command leaves its primary output. The chain moves it
	// to CtxIn before running the next command.
	CtxOut = "__OUT__"
)

// Context is the property bag shared by every command of one pipeline run.
type Context interface {
	// SetContext replaces the Go context carried for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext returns the Go context of the current command.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records a failure under the name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns every recorded failure keyed by command name.
	GetErrors() map[string]error

	// FirstError returns the earliest recorded failure, or nil.
	FirstError() error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// HasErrors reports whether any failure was recorded.
	HasErrors() bool

	// AddTempFile registers a file to be deleted by Close.
	AddTempFile(file string)

	// GetTempFiles lists the registered temporary files.
	GetTempFiles() []string

	// Close removes the registered temporary files.
	Close()
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one instrumented step of a pipeline.
type Command interface {
	Executable

	// GetName returns the name used for spans, counters and error keys.
	GetName() string

	// GetInputParam returns the context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable is checked by the chain before Execute is called.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered list of commands and is itself a Command, so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure keeps later commands running after one records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}

// Value returns the value stored under key converted to T. The boolean is
// false when the key is missing or holds a different type.
func Value[T any](context Context, key string) (T, bool) {
	var zero T
	raw := context.Get(key)
	if raw == nil {
		return zero, false
	}
	out, ok := raw.(T)
	return out, ok
}
