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

package prompts

import "fmt"

// Labels placed before each image of an edit request.
const (
	BaseImageLabel      = "This is the base image that needs to be edited:"
	ReferenceImageLabel = "This is the reference image for the substitution (character or item):"
)

// EditPreamble frames every edit request.
const EditPreamble = `
You are an expert image editor. Your task is to edit the supplied image following the user's instructions.
Make only the requested change and preserve the rest of the image (background, lighting, other people) with maximum fidelity.
The main character of the image is the person to be modified.
Do not change the camera angle or the character's pose.
`

// SwapCharacterClause replaces the main subject with the reference subject.
const SwapCharacterClause = `
**MAIN GOAL:** Replace the main character of the base image with the character from the reference image.

**CRITICAL, NON-NEGOTIABLE RULES:**

1.  **PRECISE SUBSTITUTION:** Identify the main character in the base image and replace them **ENTIRELY** with the character supplied in the reference image. Only the character changes.
2.  **BACKGROUND PRESERVATION:** The background, props and every element that is not the main character must stay **EXACTLY** as in the original image. Do not add, remove or alter anything in the scene.
3.  **REALISTIC INTEGRATION:** Integrate the new character realistically, matching the lighting, shadows, colour temperature and overall style of the original image.
4.  **POSE:** The new character must reproduce the original character's pose as faithfully as possible.
5.  **DIMENSIONS AND FRAMING (VERY IMPORTANT):** The generated image must have **EXACTLY THE SAME DIMENSIONS** as the original image (9:16). Cropping, letterboxing (black bars) or any change of framing is **FORBIDDEN**. The result must be a complete 9:16 frame.
`

// SwapTopClause replaces the upper garment.
const SwapTopClause = `
Change the main character's top/shirt to look like the one in the reference image.
Keep the character's body and pose, only replace the garment.
Fit the new top to the character's body and to the lighting of the scene.
`

// SwapBottomClause replaces the trousers.
const SwapBottomClause = `
Change the main character's trousers to look like the ones in the reference image.
Keep the character's body and pose, only replace the garment.
Fit the new trousers to the character's body and to the lighting of the scene.
`

const hairTiedClause = `
Change the main character's hair to a tied style (such as a ponytail or a bun).
The colour and texture of the hair must stay the same as in the original.
`

const hairLooseClause = `
Change the main character's hair to a loose style.
The colour and texture of the hair must stay the same as in the original.
`

// HairClause restyles the hair. Any style other than "tied" is worn loose.
func HairClause(tied bool) string {
	if tied {
		return hairTiedClause
	}
	return hairLooseClause
}

// ReeditClause applies a free-form user command to the latest image.
func ReeditClause(instruction string) string {
	return fmt.Sprintf(`
Apply the following change to the image, based on the user's chat command.
This is a re-edit, so apply the change to the last generated image.
User command: "%s"
`, instruction)
}

// ContinuationClause applies a free-form user command on a continuation
// chain, whose base may be an uploaded image rather than a primary result.
func ContinuationClause(instruction string) string {
	return fmt.Sprintf(`
Apply the following change to the image, based on the user's chat command.
This continues the scene from the supplied base image, so apply the change to that image and keep its framing.
User command: "%s"
`, instruction)
}
