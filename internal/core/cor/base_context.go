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

// Package cor (Chain of Responsibility) holds the pipeline primitives. This
// file defines BaseContext, the default Context implementation.
//
// A BaseContext lives for exactly one pipeline run. It carries:
//   - the values commands hand to each other (data),
//   - the failures recorded by commands, in arrival order (errors, errorOrder),
//   - temporary files written while sampling frames (tempFiles),
//   - the Go context of the command currently executing, which carries the
//     request deadline and the active span.
package cor

import (
	"context"
	"log/slog"
	"os"
)

// BaseContext is the default Context. It is not safe for concurrent use; one
// pipeline run owns it from start to Close.
type BaseContext struct {
	data       map[string]interface{} // values keyed by parameter name
	errors     map[string]error       // failures keyed by command name
	errorOrder []string               // command names in the order their errors arrived
	tempFiles  []string               // removed by Close
	context    context.Context        // swapped by BaseChain around each command
}

// NewBaseContext returns an empty context ready for a pipeline run.
//
// Outputs:
//   - Context: the new context; callers set the Go context with SetContext.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// SetContext replaces the Go context. BaseChain calls it around every command
// so that spans started by the command nest under the command span.
//
// Inputs:
//   - context: the Go context to carry from now on.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the Go context of the command currently executing.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close deletes every registered temporary file. Failures are logged and
// otherwise ignored.
func (c *BaseContext) Close() {
	for _, file := range c.tempFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

// Add stores value under key, replacing any earlier value.
//
// Inputs:
//   - key: the parameter name, usually a constant from the commands package.
//   - value: any value; nil reads back as missing.
//
// Outputs:
//   - Context: the receiver, so calls can be chained.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers file for removal by Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles lists the files registered so far.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records err under key. A second error for the same key replaces
// the first but keeps its position.
func (c *BaseContext) AddError(key string, err error) {
	if _, ok := c.errors[key]; !ok {
		c.errorOrder = append(c.errorOrder, key)
	}
	c.errors[key] = err
}

// GetErrors returns the recorded failures keyed by command name. The map is
// the context's own; callers must not modify it.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// FirstError returns the failure recorded first. Pipelines surface it as the
// run's error since later failures are usually consequences of it.
//
// Outputs:
//   - error: the earliest failure, or nil when the run succeeded.
func (c *BaseContext) FirstError() error {
	if len(c.errorOrder) == 0 {
		return nil
	}
	return c.errors[c.errorOrder[0]]
}

// Get returns the value stored under key, or nil.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command recorded a failure.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
