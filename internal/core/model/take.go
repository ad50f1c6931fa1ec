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

// Package model holds the data that flows through take studio: the take
// breakdown returned by the analysis model, image artifacts produced by the
// edit model, sampled frames, and the lookup metadata kept in the preference
// store.
//
// JSON names on the take types are the wire contract with the analysis model
// and must not change. The `jsonschema` tags drive the published JSON Schema
// document and the `validate` tags drive the semantic checks applied after the
// structural pass.
package model

// Enumerated take vocabularies.
type (
	ActorType  string
	SpeechType string
	Speaker    string
	CameraMode string
	ShotType   string
	Movement   string
)

const (
	ActorWoman   ActorType = "woman"
	ActorMan     ActorType = "man"
	ActorPerson  ActorType = "person"
	ActorUnknown ActorType = "unknown"

	SpeechDialogue  SpeechType = "dialogue"
	SpeechVoiceover SpeechType = "voiceover"
	SpeechNoise     SpeechType = "noise"
	SpeechMusic     SpeechType = "music"
	SpeechSilence   SpeechType = "silence"

	SpeakerFemale  Speaker = "female"
	SpeakerMale    Speaker = "male"
	SpeakerChild   Speaker = "child"
	SpeakerUnknown Speaker = "unknown"

	CameraSelfie   CameraMode = "selfie"
	CameraExternal CameraMode = "external"
	CameraUnclear  CameraMode = "unclear"

	ShotCloseUp       ShotType = "CU"
	ShotMediumCloseUp ShotType = "MCU"
	ShotMedium        ShotType = "MS"
	ShotWide          ShotType = "WS"
	ShotUnclear       ShotType = "unclear"

	MovementStatic   Movement = "static"
	MovementPan      Movement = "pan"
	MovementTilt     Movement = "tilt"
	MovementDolly    Movement = "dolly"
	MovementHandheld Movement = "handheld"
	MovementUnclear  Movement = "unclear"
)

// Enum value lists, in the order they are offered to the model.
var (
	ActorTypes  = []string{string(ActorWoman), string(ActorMan), string(ActorPerson), string(ActorUnknown)}
	SpeechTypes = []string{string(SpeechDialogue), string(SpeechVoiceover), string(SpeechNoise), string(SpeechMusic), string(SpeechSilence)}
	Speakers    = []string{string(SpeakerFemale), string(SpeakerMale), string(SpeakerChild), string(SpeakerUnknown)}
	CameraModes = []string{string(CameraSelfie), string(CameraExternal), string(CameraUnclear)}
	ShotTypes   = []string{string(ShotCloseUp), string(ShotMediumCloseUp), string(ShotMedium), string(ShotWide), string(ShotUnclear)}
	Movements   = []string{string(MovementStatic), string(MovementPan), string(MovementTilt), string(MovementDolly), string(MovementHandheld), string(MovementUnclear)}
)

// Timecode locates a take in the source video, in seconds.
type Timecode struct {
	StartS    float64 `json:"start_s" jsonschema:"required,minimum=0" validate:"gte=0"`
	EndS      float64 `json:"end_s" jsonschema:"required,minimum=0" validate:"gtfield=StartS"`
	DurationS float64 `json:"duration_s" jsonschema:"required,exclusiveMinimum=0" validate:"gt=0"`
}

// SpeechMeta classifies the audio of a take.
type SpeechMeta struct {
	Presence bool       `json:"presence" jsonschema:"required"`
	Type     SpeechType `json:"type" jsonschema:"required,enum=dialogue,enum=voiceover,enum=noise,enum=music,enum=silence" validate:"oneof=dialogue voiceover noise music silence"`
	Speaker  Speaker    `json:"speaker" jsonschema:"required,enum=female,enum=male,enum=child,enum=unknown" validate:"oneof=female male child unknown"`
}

// Actor is one on-screen participant. ID is stable across takes (A1, A2...).
type Actor struct {
	ID       string    `json:"id" jsonschema:"required" validate:"required"`
	Type     ActorType `json:"type" jsonschema:"required,enum=woman,enum=man,enum=person,enum=unknown" validate:"oneof=woman man person unknown"`
	AgeHint  string    `json:"age_hint" jsonschema:"required"`
	Wardrobe string    `json:"wardrobe" jsonschema:"required"`
	Position string    `json:"position" jsonschema:"required"`
}

type Environment struct {
	Location  string `json:"location" jsonschema:"required"`
	Lighting  string `json:"lighting" jsonschema:"required"`
	TimeOfDay string `json:"time_of_day" jsonschema:"required"`
}

type Camera struct {
	Mode     CameraMode `json:"mode" jsonschema:"required,enum=selfie,enum=external,enum=unclear" validate:"oneof=selfie external unclear"`
	ShotType ShotType   `json:"shot_type" jsonschema:"required,enum=CU,enum=MCU,enum=MS,enum=WS,enum=unclear" validate:"oneof=CU MCU MS WS unclear"`
	Movement Movement   `json:"movement" jsonschema:"required,enum=static,enum=pan,enum=tilt,enum=dolly,enum=handheld,enum=unclear" validate:"oneof=static pan tilt dolly handheld unclear"`
	Notes    string     `json:"notes" jsonschema:"required"`
}

// Action is a timestamped micro-event inside a take. T is a sub-range of the
// take such as "1.2-1.5"; Actor references Actor.ID.
type Action struct {
	T      string `json:"t" jsonschema:"required" validate:"required"`
	Actor  string `json:"actor" jsonschema:"required"`
	Action string `json:"action" jsonschema:"required" validate:"required"`
}

// Take is one fixed-length analysis window of the source video.
type Take struct {
	TakeID       string      `json:"take_id" jsonschema:"required" validate:"required"`
	Timecode     Timecode    `json:"timecode" jsonschema:"required"`
	SpeechPtBR   string      `json:"speech_ptBR" jsonschema:"required" jsonschema_description:"Literal transcription of the speech in Brazilian Portuguese; empty when nobody speaks."`
	SpeechMeta   SpeechMeta  `json:"speech_meta" jsonschema:"required"`
	Actors       []Actor     `json:"actors" jsonschema:"required" validate:"dive"`
	Objects      []string    `json:"objects" jsonschema:"required"`
	Environment  Environment `json:"environment" jsonschema:"required"`
	Camera       Camera      `json:"camera" jsonschema:"required"`
	Actions      []Action    `json:"actions" jsonschema:"required" validate:"dive"`
	StartState   string      `json:"start_state" jsonschema:"required" validate:"required"`
	EndState     string      `json:"end_state" jsonschema:"required" validate:"required"`
	Veo3PromptEn string      `json:"veo3_prompt_en" jsonschema:"required" jsonschema_description:"Generation prompt in English; dialogue stays in pt-BR inside double quotes." validate:"required"`
	Notes        []string    `json:"notes" jsonschema:"required"`
}

// AnalysisResult is the full take breakdown of one video.
type AnalysisResult struct {
	VideoDurationS float64 `json:"video_duration_s" jsonschema:"required,exclusiveMinimum=0" validate:"gt=0"`
	TakeSizeS      float64 `json:"take_size_s" jsonschema:"required,exclusiveMinimum=0" validate:"gt=0"`
	Takes          []Take  `json:"takes" jsonschema:"required,minItems=1" validate:"min=1,dive"`
}

// Clone returns a deep copy so callers can hand results out without sharing
// slices with the stored value.
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	out := *a
	if a.Takes == nil {
		return &out
	}
	out.Takes = make([]Take, len(a.Takes))
	for i, take := range a.Takes {
		t := take
		t.Actors = cloneSlice(take.Actors)
		t.Objects = cloneSlice(take.Objects)
		t.Actions = cloneSlice(take.Actions)
		t.Notes = cloneSlice(take.Notes)
		out.Takes[i] = t
	}
	return &out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}
