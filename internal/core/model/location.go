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

import "fmt"

// Location names one of the two version chains of an edit session.
type Location string

const (
	LocationPrimary      Location = "primary"
	LocationContinuation Location = "continuation"
)

// Locations lists every chain location.
var Locations = []Location{LocationPrimary, LocationContinuation}

// ParseLocation accepts "primary" or "continuation".
func ParseLocation(s string) (Location, error) {
	switch Location(s) {
	case LocationPrimary, LocationContinuation:
		return Location(s), nil
	}
	return "", fmt.Errorf("unknown chain location %q", s)
}
