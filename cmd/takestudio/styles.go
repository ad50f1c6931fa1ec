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

import "github.com/charmbracelet/lipgloss"

var (
	headerColor  = lipgloss.Color("#F780FF")
	promptColor  = lipgloss.Color("#E9E9F4")
	borderColor  = lipgloss.Color("#6272A4")
	summaryColor = lipgloss.Color("#8BE9FD")
	errorColor   = lipgloss.Color("#FF5555")

	headerStyle  = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	promptStyle  = lipgloss.NewStyle().Foreground(promptColor).PaddingLeft(2).Width(100)
	borderStyle  = lipgloss.NewStyle().Foreground(borderColor)
	summaryStyle = lipgloss.NewStyle().Foreground(summaryColor).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)
