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

package takes

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// ResponseSchema returns the structured output schema sent with every
// analysis request. Decode walks the same tree to check the answer, so the
// schema the model is asked to follow and the one it is held to never drift.
// A fresh tree is built on every call.
func ResponseSchema() *genai.Schema {
	return object(
		[]string{"video_duration_s", "take_size_s", "takes"},
		map[string]*genai.Schema{
			"video_duration_s": described(number(), "Total video duration in seconds."),
			"take_size_s":      described(number(), fmt.Sprintf("Standard take length; must be %g.", TakeDurationSeconds)),
			"takes":            described(array(takeSchema()), "Every take of the video in order."),
		},
	)
}

func takeSchema() *genai.Schema {
	return object(
		[]string{
			"take_id", "timecode", "speech_ptBR", "speech_meta", "actors", "objects",
			"environment", "camera", "actions", "start_state", "end_state", "veo3_prompt_en", "notes",
		},
		map[string]*genai.Schema{
			"take_id": str(),
			"timecode": object(
				[]string{"start_s", "end_s", "duration_s"},
				map[string]*genai.Schema{"start_s": number(), "end_s": number(), "duration_s": number()},
			),
			"speech_ptBR": str(),
			"speech_meta": object(
				[]string{"presence", "type", "speaker"},
				map[string]*genai.Schema{
					"presence": boolean(),
					"type":     enum(model.SpeechTypes),
					"speaker":  enum(model.Speakers),
				},
			),
			"actors": array(object(
				[]string{"id", "type", "age_hint", "wardrobe", "position"},
				map[string]*genai.Schema{
					"id":       str(),
					"type":     enum(model.ActorTypes),
					"age_hint": str(),
					"wardrobe": str(),
					"position": str(),
				},
			)),
			"objects": array(str()),
			"environment": object(
				[]string{"location", "lighting", "time_of_day"},
				map[string]*genai.Schema{"location": str(), "lighting": str(), "time_of_day": str()},
			),
			"camera": object(
				[]string{"mode", "shot_type", "movement", "notes"},
				map[string]*genai.Schema{
					"mode":      enum(model.CameraModes),
					"shot_type": enum(model.ShotTypes),
					"movement":  enum(model.Movements),
					"notes":     str(),
				},
			),
			"actions": array(object(
				[]string{"t", "actor", "action"},
				map[string]*genai.Schema{"t": str(), "actor": str(), "action": str()},
			)),
			"start_state":    str(),
			"end_state":      str(),
			"veo3_prompt_en": str(),
			"notes":          array(str()),
		},
	)
}

// object requires every listed property and keeps them in that order.
func object(order []string, properties map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       properties,
		Required:         append([]string(nil), order...),
		PropertyOrdering: order,
	}
}

func array(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

func str() *genai.Schema     { return &genai.Schema{Type: genai.TypeString} }
func number() *genai.Schema  { return &genai.Schema{Type: genai.TypeNumber} }
func boolean() *genai.Schema { return &genai.Schema{Type: genai.TypeBoolean} }

func enum(values []string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: append([]string(nil), values...)}
}

func described(s *genai.Schema, description string) *genai.Schema {
	s.Description = description
	return s
}

// JSONSchema reflects model.AnalysisResult into a draft 2020-12 JSON Schema
// document. It is embedded in the analysis instruction and published by the
// API for clients that validate results themselves.
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&model.AnalysisResult{})
	schema.Title = "Take analysis"
	schema.Description = fmt.Sprintf("Video split into %g second takes with generation prompts.", TakeDurationSeconds)
	return schema
}

// JSONSchemaText renders JSONSchema as indented JSON.
func JSONSchemaText() (string, error) {
	b, err := json.MarshalIndent(JSONSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal take schema: %w", err)
	}
	return string(b), nil
}

// ConfigureRequest asks for JSON output that follows ResponseSchema.
func ConfigureRequest(config *genai.GenerateContentConfig) {
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = ResponseSchema()
}
