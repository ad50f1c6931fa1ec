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
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

// Violation is a single reason an analysis response was rejected. Path uses
// "$" for the document root, e.g. "$.takes[2].camera.mode".
type Violation struct {
	Path    string
	Problem string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Problem)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode turns the raw text of an analysis response into a validated result.
// Nothing is coerced: a missing field, a wrong JSON type, an unknown field, a
// value outside its enumeration or a segmentation that does not match the
// computed windows all fail the whole document.
//
// Inputs:
//   - raw: the model's text output; a surrounding ``` fence is tolerated.
//
// Outputs:
//   - *model.AnalysisResult: the decoded result, only when every check passed.
//   - error: an AnalysisFailed *model.Error wrapping a *Violation.
func Decode(raw []byte) (*model.AnalysisResult, error) {
	text := StripFences(string(raw))
	if text == "" {
		return nil, rejected(&Violation{Path: "$", Problem: "empty response"})
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, rejected(&Violation{Path: "$", Problem: fmt.Sprintf("not valid JSON: %v", err)})
	}
	if v := checkValue("$", ResponseSchema(), doc); v != nil {
		return nil, rejected(v)
	}

	result := &model.AnalysisResult{}
	if err := json.Unmarshal([]byte(text), result); err != nil {
		return nil, rejected(&Violation{Path: "$", Problem: fmt.Sprintf("failed to decode: %v", err)})
	}
	if err := Validate(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Validate applies the semantic rules and the segmentation check to a result
// that is already decoded. It only reads result.
func Validate(result *model.AnalysisResult) error {
	if result == nil {
		return rejected(&Violation{Path: "$", Problem: "no result"})
	}
	if err := validate.Struct(result); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			fe := fieldErrors[0]
			return rejected(&Violation{
				Path:    "$" + strings.TrimPrefix(fe.Namespace(), "AnalysisResult"),
				Problem: fmt.Sprintf("failed rule %q (value %v)", ruleText(fe), fe.Value()),
			})
		}
		return rejected(&Violation{Path: "$", Problem: err.Error()})
	}
	if v := CheckSegmentation(result, TakeDurationSeconds); v != nil {
		return rejected(v)
	}
	return nil
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// CheckSegmentation verifies that result is split exactly as Windows would
// split its reported duration, within SegmentTolerance.
//
// Inputs:
//   - result: the decoded analysis.
//   - size: the configured take length.
//
// Outputs:
//   - *Violation: the first problem found, or nil.
func CheckSegmentation(result *model.AnalysisResult, size float64) *Violation {
	if !near(result.TakeSizeS, size) {
		return &Violation{Path: "$.take_size_s", Problem: fmt.Sprintf("is %g, expected %g", result.TakeSizeS, size)}
	}
	if result.VideoDurationS <= 0 {
		return &Violation{Path: "$.video_duration_s", Problem: "must be positive"}
	}

	expected := Windows(result.VideoDurationS, size)
	if len(result.Takes) != len(expected) {
		return &Violation{
			Path:    "$.takes",
			Problem: fmt.Sprintf("has %d takes, a %gs video needs %d", len(result.Takes), result.VideoDurationS, len(expected)),
		}
	}

	seen := make(map[string]int, len(result.Takes))
	for i, take := range result.Takes {
		path := fmt.Sprintf("$.takes[%d]", i)
		tc := take.Timecode
		want := expected[i]
		if !near(tc.StartS, want.StartS) || !near(tc.EndS, want.EndS) {
			return &Violation{
				Path:    path + ".timecode",
				Problem: fmt.Sprintf("spans [%g, %g), expected [%g, %g)", tc.StartS, tc.EndS, want.StartS, want.EndS),
			}
		}
		if !near(tc.StartS+tc.DurationS, tc.EndS) {
			return &Violation{
				Path:    path + ".timecode.duration_s",
				Problem: fmt.Sprintf("start %g + duration %g does not equal end %g", tc.StartS, tc.DurationS, tc.EndS),
			}
		}
		if prev, dup := seen[take.TakeID]; dup {
			return &Violation{
				Path:    path + ".take_id",
				Problem: fmt.Sprintf("%q already used by take %d", take.TakeID, prev),
			}
		}
		seen[take.TakeID] = i
	}
	return nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= SegmentTolerance
}

func rejected(v *Violation) error {
	return model.NewError(model.KindAnalysisFailed, "the analysis response was rejected", v)
}

// StripFences removes a surrounding markdown code fence (``` or ```json)
// and trims whitespace.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "{[") {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// checkValue walks value against schema and returns the first violation.
func checkValue(path string, schema *genai.Schema, value any) *Violation {
	if value == nil {
		if schema.Nullable != nil && *schema.Nullable {
			return nil
		}
		return &Violation{Path: path, Problem: fmt.Sprintf("is null, expected %s", typeName(schema.Type))}
	}

	switch schema.Type {
	case genai.TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return mismatch(path, schema.Type, value)
		}
		for _, key := range schema.Required {
			if _, present := obj[key]; !present {
				return &Violation{Path: path + "." + key, Problem: "is required"}
			}
		}
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			property, known := schema.Properties[key]
			if !known {
				return &Violation{Path: path + "." + key, Problem: "is not part of the schema"}
			}
			if v := checkValue(path+"."+key, property, obj[key]); v != nil {
				return v
			}
		}
	case genai.TypeArray:
		items, ok := value.([]any)
		if !ok {
			return mismatch(path, schema.Type, value)
		}
		for i, item := range items {
			if v := checkValue(fmt.Sprintf("%s[%d]", path, i), schema.Items, item); v != nil {
				return v
			}
		}
	case genai.TypeString:
		s, ok := value.(string)
		if !ok {
			return mismatch(path, schema.Type, value)
		}
		if len(schema.Enum) > 0 && !slices.Contains(schema.Enum, s) {
			return &Violation{Path: path, Problem: fmt.Sprintf("%q is not one of %s", s, strings.Join(schema.Enum, ", "))}
		}
	case genai.TypeNumber:
		if _, ok := value.(float64); !ok {
			return mismatch(path, schema.Type, value)
		}
	case genai.TypeInteger:
		n, ok := value.(float64)
		if !ok || n != math.Trunc(n) {
			return mismatch(path, schema.Type, value)
		}
	case genai.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return mismatch(path, schema.Type, value)
		}
	default:
		return &Violation{Path: path, Problem: fmt.Sprintf("schema type %q is not supported", schema.Type)}
	}
	return nil
}

func mismatch(path string, want genai.Type, value any) *Violation {
	return &Violation{Path: path, Problem: fmt.Sprintf("is %s, expected %s", jsonKind(value), typeName(want))}
}

func typeName(t genai.Type) string {
	return strings.ToLower(string(t))
}

func jsonKind(value any) string {
	switch value.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return "null"
}
