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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-take-studio/internal/core/cor"
)

type upperCommand struct {
	cor.BaseCommand
}

func (u *upperCommand) Execute(context cor.Context) {
	in, _ := cor.Value[string](context, u.GetInputParam())
	u.Succeed(context, strings.ToUpper(in))
}

type suffixCommand struct {
	cor.BaseCommand
	suffix string
}

func (s *suffixCommand) Execute(context cor.Context) {
	in, _ := cor.Value[string](context, s.GetInputParam())
	s.Succeed(context, in+s.suffix)
}

type failCommand struct {
	cor.BaseCommand
	err error
}

func (f *failCommand) Execute(context cor.Context) {
	f.Fail(context, f.err)
}

func newContext(in string) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, in)
	return ctx
}

func TestChainPipesOutputToNextInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(&upperCommand{BaseCommand: *cor.NewBaseCommand("upper")})
	chain.AddCommand(&suffixCommand{BaseCommand: *cor.NewBaseCommand("suffix"), suffix: "!"})

	chCtx := newContext("take")
	chain.Execute(chCtx)

	assert.False(t, chCtx.HasErrors())
	assert.Equal(t, "TAKE!", chCtx.Get(cor.CtxIn))
	assert.Nil(t, chCtx.Get(cor.CtxOut))
	assert.Equal(t, []string{"upper", "suffix"}, chain.Commands())
}

func TestChainStopsOnFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(&failCommand{BaseCommand: *cor.NewBaseCommand("fail"), err: boom})
	chain.AddCommand(&suffixCommand{BaseCommand: *cor.NewBaseCommand("suffix"), suffix: "!"})

	chCtx := newContext("take")
	chain.Execute(chCtx)

	require.True(t, chCtx.HasErrors())
	assert.ErrorIs(t, chCtx.FirstError(), boom)
	assert.Len(t, chCtx.GetErrors(), 1)
}

func TestChainContinueOnFailureKeepsErrorOrder(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(&failCommand{BaseCommand: *cor.NewBaseCommand("z-fail"), err: first})
	chain.AddCommand(&failCommand{BaseCommand: *cor.NewBaseCommand("a-fail"), err: second})

	chCtx := newContext("take")
	chain.Execute(chCtx)

	assert.Len(t, chCtx.GetErrors(), 2)
	assert.ErrorIs(t, chCtx.FirstError(), first)
}

func TestChainSkipsCommandWithoutInput(t *testing.T) {
	chain := cor.NewBaseChain("skip")
	chain.AddCommand(&upperCommand{BaseCommand: *cor.NewBaseCommand("upper")})

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(context.Background())
	chain.Execute(chCtx)

	assert.False(t, chCtx.HasErrors())
	assert.Nil(t, chCtx.Get(cor.CtxIn))
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "frame.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	chCtx := cor.NewBaseContext()
	chCtx.AddTempFile(file)
	chCtx.AddTempFile(filepath.Join(dir, "missing.jpg"))
	chCtx.Close()

	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, chCtx.GetTempFiles())
}

func TestValueReportsTypeMismatch(t *testing.T) {
	chCtx := cor.NewBaseContext()
	chCtx.Add("n", 7)

	n, ok := cor.Value[int](chCtx, "n")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = cor.Value[string](chCtx, "n")
	assert.False(t, ok)

	_, ok = cor.Value[string](chCtx, "missing")
	assert.False(t, ok)
}
