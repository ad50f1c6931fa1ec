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
	"fmt"
	"math"
	"strings"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// FormatTime renders seconds as mm:ss. The value is rounded to whole seconds
// before it is split, so 59.6 becomes 01:00 rather than 00:60.
func FormatTime(seconds float64) string {
	total := int(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Header is the display title of a take: "TAKE 2 — 00:07–00:14 (7.0s)".
func Header(take model.Take) string {
	return fmt.Sprintf("TAKE %s — %s–%s (%.1fs)",
		take.TakeID,
		FormatTime(take.Timecode.StartS),
		FormatTime(take.Timecode.EndS),
		take.Timecode.DurationS)
}

// MasterPrompt concatenates the generation prompts of every take, each under
// a "[TAKE id mm:ss–mm:ss]" line, separated by blank lines.
func MasterPrompt(takes []model.Take) string {
	blocks := make([]string, 0, len(takes))
	for _, take := range takes {
		blocks = append(blocks, fmt.Sprintf("[TAKE %s %s–%s]\n%s",
			take.TakeID,
			FormatTime(take.Timecode.StartS),
			FormatTime(take.Timecode.EndS),
			take.Veo3PromptEn))
	}
	return strings.Join(blocks, "\n\n")
}
