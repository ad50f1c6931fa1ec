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

package imageedit_test

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/prompts"
	test "github.com/jaycherian/gcp-go-take-studio/internal/testutil"
)

func pngArtifact(c color.Color) model.ImageArtifact {
	return model.NewImageArtifact("image/png", test.PNG(4, 4, c))
}

func reference() *model.ImageArtifact {
	ref := pngArtifact(color.White)
	return &ref
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		req      imageedit.Request
		location model.Location
		ok       bool
	}{
		{"swap character", imageedit.Request{Operation: imageedit.OpSwapCharacter, Reference: reference()}, model.LocationPrimary, true},
		{"swap without reference", imageedit.Request{Operation: imageedit.OpSwapTop}, model.LocationPrimary, false},
		{"hair tied", imageedit.Request{Operation: imageedit.OpSetHairStyle, HairStyle: imageedit.HairTied}, model.LocationPrimary, true},
		{"hair unknown", imageedit.Request{Operation: imageedit.OpSetHairStyle, HairStyle: "braided"}, model.LocationPrimary, false},
		{"freeform", imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "add a hat"}, model.LocationPrimary, true},
		{"freeform on continuation", imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "add a hat"}, model.LocationContinuation, true},
		{"freeform blank", imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "  "}, model.LocationPrimary, false},
		{"continuation", imageedit.Request{Operation: imageedit.OpContinuationInstruction, Instruction: "turn left"}, model.LocationContinuation, true},
		{"continuation on primary", imageedit.Request{Operation: imageedit.OpContinuationInstruction, Instruction: "turn left"}, model.LocationPrimary, false},
		{"unknown", imageedit.Request{Operation: "blur"}, model.LocationPrimary, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate(tc.location)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, imageedit.ErrInvalidRequest)
			}
		})
	}
}

func TestValidateRejectsNonImageReference(t *testing.T) {
	ref := model.NewImageArtifact("image/png", test.MP4Header())
	err := imageedit.Request{Operation: imageedit.OpSwapCharacter, Reference: &ref}.Validate(model.LocationPrimary)
	assert.ErrorIs(t, err, model.ErrInvalidFileType)
}

func TestPromptIsPreamblePlusClause(t *testing.T) {
	assert.Equal(t, prompts.EditPreamble+prompts.SwapCharacterClause,
		imageedit.Request{Operation: imageedit.OpSwapCharacter}.Prompt())
	assert.Equal(t, prompts.EditPreamble+prompts.HairClause(false),
		imageedit.Request{Operation: imageedit.OpSetHairStyle, HairStyle: imageedit.HairLoose}.Prompt())
	assert.Equal(t, prompts.EditPreamble+prompts.ReeditClause("add a hat"),
		imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "add a hat"}.Prompt())
	assert.Equal(t, prompts.EditPreamble+prompts.ContinuationClause("turn left"),
		imageedit.Request{Operation: imageedit.OpContinuationInstruction, Instruction: "turn left"}.Prompt())
}

func TestBuildContentsOrdersLabelsBeforeImages(t *testing.T) {
	base := pngArtifact(color.Black)
	ref := reference()
	for _, op := range []imageedit.Operation{imageedit.OpSwapCharacter, imageedit.OpSwapTop, imageedit.OpSwapBottom} {
		req := imageedit.Request{Operation: op, Reference: ref}
		contents := imageedit.BuildContents(base, req)
		require.Len(t, contents, 1)
		assert.Equal(t, genai.RoleUser, contents[0].Role)

		parts := contents[0].Parts
		require.Len(t, parts, 5, op)
		assert.Equal(t, prompts.BaseImageLabel, parts[0].Text)
		assert.Equal(t, base.Data, parts[1].InlineData.Data)
		assert.Equal(t, prompts.ReferenceImageLabel, parts[2].Text)
		assert.Equal(t, ref.Data, parts[3].InlineData.Data)
		assert.Equal(t, req.Prompt(), parts[4].Text)
	}
}

func TestBuildContentsWithoutReference(t *testing.T) {
	base := pngArtifact(color.Black)
	req := imageedit.Request{Operation: imageedit.OpSetHairStyle, HairStyle: imageedit.HairTied, Reference: reference()}
	parts := imageedit.BuildContents(base, req)[0].Parts

	require.Len(t, parts, 3)
	assert.Equal(t, prompts.BaseImageLabel, parts[0].Text)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, req.Prompt(), parts[2].Text)
}

func imagePart(data []byte, mimeType string) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}}
}

func TestInterpret(t *testing.T) {
	img := []byte{1, 2, 3}
	blocked := test.Candidate(genai.FinishReasonStop, imagePart(img, "image/png"))
	blocked.PromptFeedback = &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety}

	blockedWithMessage := test.Candidate(genai.FinishReasonStop)
	blockedWithMessage.PromptFeedback = &genai.GenerateContentResponsePromptFeedback{
		BlockReason:        genai.BlockedReasonOther,
		BlockReasonMessage: "prompt not allowed",
	}

	noContent := test.Candidate(genai.FinishReasonStop)
	noContent.Candidates[0].Content = nil

	cases := []struct {
		name   string
		resp   *genai.GenerateContentResponse
		kind   model.ErrorKind
		reason string
	}{
		{"block precedes image", blocked, model.KindBlockedByPolicy, "SAFETY"},
		{"block message", blockedWithMessage, model.KindBlockedByPolicy, "prompt not allowed"},
		{"nil response", nil, model.KindNoCandidates, ""},
		{"no candidates", &genai.GenerateContentResponse{}, model.KindNoCandidates, ""},
		{"safety finish", test.Candidate(genai.FinishReasonImageSafety, imagePart(img, "image/png")), model.KindGenerationInterrupted, "IMAGE_SAFETY"},
		{"unspecified finish", test.Candidate(genai.FinishReasonUnspecified, imagePart(img, "image/png")), model.KindGenerationInterrupted, "FINISH_REASON_UNSPECIFIED"},
		{"nil content", noContent, model.KindEmptyContent, ""},
		{"no parts", test.Candidate(genai.FinishReasonStop), model.KindEmptyContent, ""},
		{"text only", test.Candidate(genai.FinishReasonStop, &genai.Part{Text: "I cannot do "}, &genai.Part{Text: "that."}), model.KindNoImageProduced, "I cannot do that."},
		{"empty image data", test.Candidate(genai.FinishReasonStop, imagePart(nil, "image/png")), model.KindNoImageProduced, "the model returned neither an image nor text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := imageedit.Interpret(tc.resp)
			assert.True(t, out.IsZero())
			kind, ok := model.KindOf(err)
			require.True(t, ok, "unclassified error %v", err)
			assert.Equal(t, tc.kind, kind)
			if tc.reason != "" {
				var e *model.Error
				require.True(t, errors.As(err, &e))
				assert.Equal(t, tc.reason, e.Reason)
			}
		})
	}
}

func TestInterpretReturnsFirstImage(t *testing.T) {
	resp := test.Candidate(genai.FinishReasonMaxTokens,
		&genai.Part{Text: "Here you go"},
		imagePart(nil, "image/jpeg"),
		imagePart([]byte{9, 9}, ""),
		imagePart([]byte{7}, "image/webp"))

	out, err := imageedit.Interpret(resp)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, []byte{9, 9}, out.Data)
	assert.Equal(t, "data:image/png;base64,CQk=", out.DataURI())
}

func TestInterpretAcceptsMissingFinishReason(t *testing.T) {
	out, err := imageedit.Interpret(test.Candidate("", imagePart([]byte{1}, "image/png")))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, out.Data)
}

func TestEditorEdit(t *testing.T) {
	produced := test.PNG(2, 2, color.White)
	generator := test.NewFakeGenerator(test.ImageReply("image/png", produced, "done"))
	editor := imageedit.NewEditor(generator, time.Second)

	base := pngArtifact(color.Black)
	out, err := editor.Edit(context.Background(), model.LocationPrimary, base,
		imageedit.Request{Operation: imageedit.OpSwapCharacter, Reference: reference()})
	require.NoError(t, err)
	assert.Equal(t, produced, out.Data)

	require.Equal(t, 1, generator.Calls())
	parts := generator.Requests()[0][0].Parts
	assert.Equal(t, prompts.BaseImageLabel, parts[0].Text)
	assert.True(t, strings.Contains(parts[4].Text, "9:16"))
}

func TestEditorRejectsInvalidRequestWithoutCallingModel(t *testing.T) {
	generator := test.NewFakeGenerator(test.TextReply("unused"))
	editor := imageedit.NewEditor(generator, time.Second)

	_, err := editor.Edit(context.Background(), model.LocationPrimary, pngArtifact(color.Black),
		imageedit.Request{Operation: imageedit.OpContinuationInstruction, Instruction: "go on"})
	assert.ErrorIs(t, err, imageedit.ErrInvalidRequest)

	_, err = editor.Edit(context.Background(), model.LocationPrimary, model.ImageArtifact{},
		imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "go on"})
	assert.ErrorIs(t, err, imageedit.ErrInvalidRequest)
	assert.Equal(t, 0, generator.Calls())
}

func TestEditorClassifiesFailures(t *testing.T) {
	cloud.RetryBackoff = time.Millisecond
	editor := imageedit.NewEditor(test.NewFakeGenerator(test.TextReply("no can do")), time.Second)
	_, err := editor.Edit(context.Background(), model.LocationPrimary, pngArtifact(color.Black),
		imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "x"})
	assert.ErrorIs(t, err, model.ErrNoImageProduced)

	editor = imageedit.NewEditor(test.NewFakeGenerator(test.ErrorReply(errors.New("unavailable"))), time.Second)
	_, err = editor.Edit(context.Background(), model.LocationPrimary, pngArtifact(color.Black),
		imageedit.Request{Operation: imageedit.OpFreeformInstruction, Instruction: "x"})
	assert.ErrorIs(t, err, model.ErrGenerationInterrupted)

	never := make(chan struct{})
	editor = imageedit.NewEditor(test.NewFakeGenerator(test.Reply{Wait: never}), 20*time.Millisecond)
	_, err = editor.Edit(context.Background(), model.LocationContinuation, pngArtifact(color.Black),
		imageedit.Request{Operation: imageedit.OpContinuationInstruction, Instruction: "x"})
	assert.ErrorIs(t, err, model.ErrTimeout)
}
