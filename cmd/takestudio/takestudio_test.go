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

package main

import (
	"bytes"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
	test "github.com/jaycherian/gcp-go-take-studio/internal/testutil"
)

func TestBuildEditRequest(t *testing.T) {
	ref := filepath.Join(t.TempDir(), "ref.png")
	require.NoError(t, os.WriteFile(ref, test.PNG(2, 2, color.White), 0o644))

	req, location, err := buildEditRequest("swap_top", ref, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.LocationPrimary, location)
	assert.Equal(t, "image/png", req.Reference.MIMEType)

	_, location, err = buildEditRequest("continuation_instruction", "", "", "turn left")
	require.NoError(t, err)
	assert.Equal(t, model.LocationContinuation, location)

	_, _, err = buildEditRequest("set_hair_style", "", "braided", "")
	assert.ErrorIs(t, err, imageedit.ErrInvalidRequest)

	_, _, err = buildEditRequest("swap_character", "", "", "")
	assert.ErrorIs(t, err, imageedit.ErrInvalidRequest)
}

func TestPrintTakes(t *testing.T) {
	var buf bytes.Buffer
	printTakes(&buf, test.SampleAnalysis(16))
	out := buf.String()
	assert.Contains(t, out, "TAKE 1")
	assert.Contains(t, out, "[TAKE 3 00:14–00:16]")
	assert.Contains(t, out, "3 takes")
}

func TestSchemaCommand(t *testing.T) {
	var buf bytes.Buffer
	schemaCmd.SetOut(&buf)
	require.NoError(t, schemaCmd.RunE(schemaCmd, nil))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc["properties"], "takes")
}

func TestReadVideoRejectsImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "still.mp4")
	require.NoError(t, os.WriteFile(path, test.PNG(2, 2, color.Black), 0o644))
	_, err := readVideo(path)
	assert.ErrorIs(t, err, model.ErrInvalidFileType)

	path = filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, test.MP4Header(), 0o644))
	asset, err := readVideo(path)
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", asset.MIMEType)
}
