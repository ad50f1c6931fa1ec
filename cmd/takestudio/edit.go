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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-take-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/imageedit"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/media"
	"github.com/jaycherian/gcp-go-take-studio/internal/core/model"
)

var (
	editOp   string
	editRef  string
	editHair string
	editText string
	editOut  string
)

var editCmd = &cobra.Command{
	Use:   "edit [image]",
	Short: "Apply one edit operation to an image",
	Long: `Edit an image with the configured image model.

Operations: swap_character, swap_top, swap_bottom (need --ref),
set_hair_style (needs --hair tied|loose), freeform_instruction and
continuation_instruction (need --text).

Examples:
  takestudio edit frame.png --op swap_top --ref jacket.jpg
  takestudio edit frame.png --op set_hair_style --hair tied --out tied.png`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editOp, "op", "", "Edit operation")
	editCmd.Flags().StringVar(&editRef, "ref", "", "Reference image for swap operations")
	editCmd.Flags().StringVar(&editHair, "hair", "", "Hair style: tied or loose")
	editCmd.Flags().StringVar(&editText, "text", "", "Instruction for freeform and continuation edits")
	editCmd.Flags().StringVar(&editOut, "out", "", "Output file (default edited.<ext>)")
	_ = editCmd.MarkFlagRequired("op")
}

// buildEditRequest turns the flags into a validated request and the chain
// the edit belongs to.
func buildEditRequest(op string, refPath string, hair string, text string) (imageedit.Request, model.Location, error) {
	req := imageedit.Request{
		Operation:   imageedit.Operation(op),
		HairStyle:   imageedit.HairStyle(hair),
		Instruction: text,
	}
	if refPath != "" {
		data, err := os.ReadFile(refPath)
		if err != nil {
			return req, "", fmt.Errorf("failed to read reference: %w", err)
		}
		ref, err := media.ImageArtifact(data)
		if err != nil {
			return req, "", err
		}
		req.Reference = &ref
	}
	location := model.LocationPrimary
	if req.Operation == imageedit.OpContinuationInstruction {
		location = model.LocationContinuation
	}
	if err := req.Validate(location); err != nil {
		return req, "", err
	}
	return req, location, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	base, err := media.ImageArtifact(data)
	if err != nil {
		return err
	}
	req, location, err := buildEditRequest(editOp, editRef, editHair, editText)
	if err != nil {
		return err
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), config.Timeouts.EditTimeout())
	defer cancel()
	clients, err := newClients(ctx, config)
	if err != nil {
		return err
	}
	defer clients.Close()
	editModel, err := clients.Model(cloud.EditModelName)
	if err != nil {
		return err
	}

	result, err := imageedit.NewEditor(editModel, config.Timeouts.EditTimeout()).Edit(ctx, location, base, req)
	if err != nil {
		return err
	}
	out := editOut
	if out == "" {
		out = "edited." + media.Extension(result.Data)
	}
	if err := os.WriteFile(out, result.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render(fmt.Sprintf("✓ %s written to %s", req.Operation, out)))
	return nil
}
