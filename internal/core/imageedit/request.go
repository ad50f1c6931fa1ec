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

// Package imageedit builds and interprets single edits against the
// generative image model. An edit is an Operation applied to a base image,
// optionally with a reference image, and yields exactly one new image or a
// classified failure.
package imageedit

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/prompts"
)

// Operation names the kind of edit.
type Operation string

const (
	OpSwapCharacter           Operation = "swap_character"
	OpSwapTop                 Operation = "swap_top"
	OpSwapBottom              Operation = "swap_bottom"
	OpSetHairStyle            Operation = "set_hair_style"
	OpFreeformInstruction     Operation = "freeform_instruction"
	OpContinuationInstruction Operation = "continuation_instruction"
)

// Operations lists every supported operation.
var Operations = []Operation{
	OpSwapCharacter,
	OpSwapTop,
	OpSwapBottom,
	OpSetHairStyle,
	OpFreeformInstruction,
	OpContinuationInstruction,
}

// NeedsReference reports whether op substitutes something from a reference image.
func (op Operation) NeedsReference() bool {
	switch op {
	case OpSwapCharacter, OpSwapTop, OpSwapBottom:
		return true
	}
	return false
}

// NeedsInstruction reports whether op carries free text from the user.
func (op Operation) NeedsInstruction() bool {
	return op == OpFreeformInstruction || op == OpContinuationInstruction
}

// HairStyle is the target of OpSetHairStyle.
type HairStyle string

const (
	HairTied  HairStyle = "tied"
	HairLoose HairStyle = "loose"
)

// ErrInvalidRequest is returned by Request.Validate. It is a caller mistake,
// not a model failure, and is never retried.
var ErrInvalidRequest = errors.New("invalid edit request")

// Request is one edit operation with its arguments.
type Request struct {
	Operation   Operation            `json:"operation"`
	Reference   *model.ImageArtifact `json:"reference,omitempty"`
	HairStyle   HairStyle            `json:"hair_style,omitempty"`
	Instruction string               `json:"instruction,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Validate checks that the request is complete for its operation and
// allowed on the chain at location. A reference that does not sniff as an
// image fails with InvalidFileType rather than ErrInvalidRequest.
func (r Request) Validate(location model.Location) error {
	switch r.Operation {
	case OpSwapCharacter, OpSwapTop, OpSwapBottom:
		if r.Reference == nil || r.Reference.IsZero() {
			return invalid("%s needs a reference image", r.Operation)
		}
		if _, err := media.DetectImage(r.Reference.Data); err != nil {
			return err
		}
	case OpSetHairStyle:
		if r.HairStyle != HairTied && r.HairStyle != HairLoose {
			return invalid("hair style %q is not %q or %q", r.HairStyle, HairTied, HairLoose)
		}
	case OpFreeformInstruction:
		if strings.TrimSpace(r.Instruction) == "" {
			return invalid("%s needs an instruction", r.Operation)
		}
	case OpContinuationInstruction:
		if strings.TrimSpace(r.Instruction) == "" {
			return invalid("%s needs an instruction", r.Operation)
		}
		if location != model.LocationContinuation {
			return invalid("%s is only allowed on the continuation chain", r.Operation)
		}
	default:
		return invalid("unknown operation %q", r.Operation)
	}
	return nil
}

// Prompt is the instruction text sent after the images: the shared
// preamble followed by the clause of the operation.
func (r Request) Prompt() string {
	var clause string
	switch r.Operation {
	case OpSwapCharacter:
		clause = prompts.SwapCharacterClause
	case OpSwapTop:
		clause = prompts.SwapTopClause
	case OpSwapBottom:
		clause = prompts.SwapBottomClause
	case OpSetHairStyle:
		clause = prompts.HairClause(r.HairStyle == HairTied)
	case OpFreeformInstruction:
		clause = prompts.ReeditClause(r.Instruction)
	case OpContinuationInstruction:
		clause = prompts.ContinuationClause(r.Instruction)
	}
	return prompts.EditPreamble + clause
}

// BuildContents assembles the single user turn of an edit. Each image is
// preceded by the label naming its role and the instruction comes last:
//
//	[base label, base image, (reference label, reference image), instruction]
//
// The reference pair is included only for operations that use one.
func BuildContents(base model.ImageArtifact, req Request) []*genai.Content {
	parts := []*genai.Part{
		cloud.NewTextPart(prompts.BaseImageLabel),
		cloud.NewInlineData(base.Data, base.MIMEType),
	}
	if req.Operation.NeedsReference() && req.Reference != nil && !req.Reference.IsZero() {
		parts = append(parts,
			cloud.NewTextPart(prompts.ReferenceImageLabel),
			cloud.NewInlineData(req.Reference.Data, req.Reference.MIMEType))
	}
	parts = append(parts, cloud.NewTextPart(req.Prompt()))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
