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

package commands

import (
	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
)

// MediaTriggerToGCSObject reduces a Cloud Storage notification to the
// object it announces.
type MediaTriggerToGCSObject struct {
	cor.BaseCommand
}

// NewMediaTriggerToGCSObject returns the command.
func NewMediaTriggerToGCSObject(name string) *MediaTriggerToGCSObject {
	return &MediaTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute reads the raw notification text from the input and leaves a
// *cloud.GCSObject both in the output and under cloud.GetGCSObjectName().
func (c *MediaTriggerToGCSObject) Execute(context cor.Context) {
	in, ok := cor.Value[string](context, c.GetInputParam())
	if !ok {
		c.Fail(context, errMissingInput(c.GetInputParam(), "string"))
		return
	}
	object, err := cloud.ParseGCSNotification([]byte(in))
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(cloud.GetGCSObjectName(), object)
	c.Succeed(context, object)
}
