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

package prompts_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/prompts"
)

func TestDefaultAnalysisInstruction(t *testing.T) {
	tmpl, err := prompts.NewAnalysisTemplate("")
	require.NoError(t, err)

	text, err := prompts.RenderAnalysis(tmpl)
	require.NoError(t, err)

	for _, clause := range []string{
		"ZERO HALLUCINATION",
		"gravity, weight, inertia, collision and the separation of objects",
		"REALISTIC BIOMECHANICS",
		"takes of 7 seconds",
		"Set take_size_s to 7.",
		"Brazilian Portuguese (pt-BR)",
		`under the bullet "- Dialogue pt-br:"`,
		`{"t":"1.2-1.5","actor":"A1"`,
		"SINGLE VALID JSON OBJECT",
		`"veo3_prompt_en"`,
		`"additionalProperties": false`,
	} {
		assert.Contains(t, text, clause)
	}
	assert.NotContains(t, text, "{{")
}

func TestAnalysisTemplateOverride(t *testing.T) {
	tmpl, err := prompts.NewAnalysisTemplate("Split into {{.TAKE_DURATION}}s takes, speech in {{.SPEECH_LANGUAGE}}.")
	require.NoError(t, err)

	text, err := prompts.RenderAnalysis(tmpl)
	require.NoError(t, err)
	assert.Equal(t, "Split into 7s takes, speech in pt-BR.", text)
}

func TestAnalysisTemplateRejectsUnknownKeys(t *testing.T) {
	tmpl, err := prompts.NewAnalysisTemplate("{{.CATEGORIES}}")
	require.NoError(t, err)

	_, err = prompts.RenderAnalysis(tmpl)
	assert.Error(t, err)

	_, err = prompts.NewAnalysisTemplate("{{.TAKE_DURATION")
	assert.Error(t, err)
}

func TestEditClauses(t *testing.T) {
	assert.True(t, strings.Contains(prompts.SwapCharacterClause, "9:16"))
	assert.Contains(t, prompts.HairClause(true), "tied style")
	assert.Contains(t, prompts.HairClause(false), "loose style")
	assert.Contains(t, prompts.ReeditClause("make it red"), `User command: "make it red"`)
	assert.Contains(t, prompts.ReeditClause("x"), "last generated image")
	assert.Contains(t, prompts.ContinuationClause("x"), "continues the scene")
}
