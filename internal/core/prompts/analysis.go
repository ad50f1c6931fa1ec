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

// Package prompts holds the instructions sent to the generative models: the
// take analysis instruction and the preamble, clauses and labels of image
// edits.
package prompts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

//go:embed templates/analysis.tmpl
var defaultAnalysis string

// DefaultAnalysisTemplate returns the built-in analysis instruction template.
func DefaultAnalysisTemplate() string {
	return defaultAnalysis
}

// NewAnalysisTemplate parses the analysis instruction. A blank override
// selects the built-in template.
//
// Inputs:
//   - override: template text from configuration, may be empty.
//
// Outputs:
//   - *template.Template: the parsed template.
//   - error: a parse failure.
func NewAnalysisTemplate(override string) (*template.Template, error) {
	text := defaultAnalysis
	if strings.TrimSpace(override) != "" {
		text = override
	}
	tmpl, err := template.New("analysis-template").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis template: %w", err)
	}
	return tmpl, nil
}

// AnalysisParams is the data available to the analysis template.
func AnalysisParams() (map[string]interface{}, error) {
	params := make(map[string]interface{})
	params["TAKE_DURATION"] = strconv.FormatFloat(takes.TakeDurationSeconds, 'f', -1, 64)
	params["SPEECH_LANGUAGE"] = takes.SpeechLanguage

	example, err := json.MarshalIndent(model.GetExampleTake(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal example take: %w", err)
	}
	params["EXAMPLE_JSON"] = string(example)

	schema, err := takes.JSONSchemaText()
	if err != nil {
		return nil, err
	}
	params["SCHEMA"] = schema
	return params, nil
}

// RenderAnalysis executes tmpl with AnalysisParams.
func RenderAnalysis(tmpl *template.Template) (string, error) {
	params, err := AnalysisParams()
	if err != nil {
		return "", err
	}
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, params); err != nil {
		return "", fmt.Errorf("failed to execute analysis template: %w", err)
	}
	return buffer.String(), nil
}
