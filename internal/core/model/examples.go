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

// GetExampleTake returns a fully populated take that is embedded in the
// analysis instruction as a one-shot example of the expected level of detail.
//
// Outputs:
//   - Take: a hand written take covering the first window of a product demo.
func GetExampleTake() Take {
	return Take{
		TakeID: "1",
		Timecode: Timecode{
			StartS:    0,
			EndS:      7,
			DurationS: 7,
		},
		SpeechPtBR: "Gente, olha que coisa linda esse pote!",
		SpeechMeta: SpeechMeta{
			Presence: true,
			Type:     SpeechDialogue,
			Speaker:  SpeakerFemale,
		},
		Actors: []Actor{
			{
				ID:       "A1",
				Type:     ActorWoman,
				AgeHint:  "25-30",
				Wardrobe: "white ribbed tank top, thin gold necklace",
				Position: "center frame, seated behind a light wooden table",
			},
		},
		Objects: []string{"glass cream jar with embossed lid", "wooden table", "ring light reflection"},
		Environment: Environment{
			Location:  "bedroom corner set up as a small studio",
			Lighting:  "soft frontal ring light, warm fill from a window on the left",
			TimeOfDay: "day",
		},
		Camera: Camera{
			Mode:     CameraSelfie,
			ShotType: ShotMediumCloseUp,
			Movement: MovementHandheld,
			Notes:    "phone held at eye level, slight sway from the presenter's breathing",
		},
		Actions: []Action{
			{T: "0.0-1.2", Actor: "A1", Action: "lifts the jar from the table with her right hand; the jar leaves a faint ring of condensation behind"},
			{T: "1.2-1.5", Actor: "A1", Action: "turns the jar slowly with her left hand while her right index fingertip traces the embossed logo on the lid"},
			{T: "3.4-4.0", Actor: "A1", Action: "after unscrewing the lid, raises her eyebrows slightly in pleasant surprise and a subtle smile forms at the corner of her mouth while looking at the camera"},
		},
		StartState: "A1 seated, jar closed on the table in front of her, both hands resting beside it",
		EndState:   "A1 holds the open jar at chest height tilted toward the lens, lid in her left hand",
		Veo3PromptEn: "A young woman in a white ribbed tank top sits behind a light wooden table in a softly lit bedroom studio, filmed selfie style in a handheld medium close-up. " +
			"She lifts a heavy glass cream jar with her right hand; the jar's weight makes her wrist dip slightly before she steadies it, and it leaves a faint ring on the table. " +
			"She rotates the jar so the ring light glides across the embossed lid, tracing the logo with her fingertip, then unscrews the lid, which separates cleanly while the jar stays firmly in her grip.\n" +
			"- Camera: handheld selfie, eye level, gentle sway\n" +
			"- Lighting: soft frontal ring light with warm window fill from the left\n" +
			"- Physics: the jar is a single solid glass object with real weight; the lid turns independently and comes away without deforming\n" +
			"- Dialogue pt-br: \"Gente, olha que coisa linda esse pote!\"",
		Notes: []string{"brand name on the lid is not legible"},
	}
}

// GetExampleAnalysis wraps GetExampleTake in a single-take result for a
// seven second video.
func GetExampleAnalysis() *AnalysisResult {
	return &AnalysisResult{
		VideoDurationS: 7,
		TakeSizeS:      7,
		Takes:          []Take{GetExampleTake()},
	}
}
