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

package takes_test

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/takes"
)

// compareSchemas walks the request schema and the published JSON Schema side
// by side; both must demand the same fields and the same enumerations.
func compareSchemas(t *testing.T, path string, want *genai.Schema, got map[string]any) {
	t.Helper()
	switch want.Type {
	case genai.TypeObject:
		assert.Equal(t, "object", got["type"], path)
		assert.Equal(t, false, got["additionalProperties"], path)

		required := make([]string, 0)
		for _, r := range got["required"].([]any) {
			required = append(required, r.(string))
		}
		assert.ElementsMatch(t, want.Required, required, path)

		properties := got["properties"].(map[string]any)
		keys := make([]string, 0, len(properties))
		for key := range properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		wantKeys := make([]string, 0, len(want.Properties))
		for key := range want.Properties {
			wantKeys = append(wantKeys, key)
		}
		sort.Strings(wantKeys)
		require.Equal(t, wantKeys, keys, path)

		for _, key := range keys {
			compareSchemas(t, path+"."+key, want.Properties[key], properties[key].(map[string]any))
		}
	case genai.TypeArray:
		assert.Equal(t, "array", got["type"], path)
		compareSchemas(t, path+"[]", want.Items, got["items"].(map[string]any))
	case genai.TypeString:
		assert.Equal(t, "string", got["type"], path)
		if len(want.Enum) > 0 {
			values := make([]string, 0)
			for _, v := range got["enum"].([]any) {
				values = append(values, v.(string))
			}
			assert.ElementsMatch(t, want.Enum, values, path)
		} else {
			assert.NotContains(t, got, "enum", path)
		}
	case genai.TypeNumber:
		assert.Equal(t, "number", got["type"], path)
	case genai.TypeBoolean:
		assert.Equal(t, "boolean", got["type"], path)
	default:
		t.Fatalf("%s: unexpected schema type %s", path, want.Type)
	}
}

func TestSchemasAgree(t *testing.T) {
	text, err := takes.JSONSchemaText()
	require.NoError(t, err)

	var published map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &published))
	assert.Equal(t, "Take analysis", published["title"])

	compareSchemas(t, "$", takes.ResponseSchema(), published)
}

func TestResponseSchemaKeepsPropertyOrder(t *testing.T) {
	schema := takes.ResponseSchema()
	assert.Equal(t, []string{"video_duration_s", "take_size_s", "takes"}, schema.PropertyOrdering)

	take := schema.Properties["takes"].Items
	assert.Equal(t, "take_id", take.PropertyOrdering[0])
	assert.Equal(t, "notes", take.PropertyOrdering[len(take.PropertyOrdering)-1])
	assert.Len(t, take.Required, 13)
}
