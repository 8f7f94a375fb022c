// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agents_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes(t *testing.T) {
	userErr := agents.UserErrorf("bad %s", "config")
	assert.EqualError(t, userErr, "bad config")
	assert.True(t, agents.IsUserError(fmt.Errorf("wrapped: %w", userErr)))

	var base *agents.AgentsError
	assert.ErrorAs(t, userErr, &base)
	assert.Equal(t, "bad config", base.Message)

	behaviorErr := agents.NewModelBehaviorError("tool x not found")
	assert.False(t, agents.IsUserError(behaviorErr))
	var target agents.ModelBehaviorError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", behaviorErr), &target))

	assert.EqualError(t, agents.UserError{}, "UserError")
	assert.EqualError(t, agents.ModelBehaviorError{}, "ModelBehaviorError")
	assert.False(t, agents.IsUserError(nil))
}

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { agents.SetLogger(nil) })

	var buf bytes.Buffer
	agents.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	failing := agents.FunctionTool{
		Name: "lookup",
		OnInvokeTool: func(context.Context, string) (any, error) {
			return nil, errors.New("timeout")
		},
	}
	_, err := failing.Invoke(t.Context(), "{}")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tool=lookup")
	assert.Contains(t, buf.String(), "error=timeout")

	agents.SetLogger(nil)
	assert.Same(t, slog.Default(), agents.Logger())
}

func TestRunContextMetadata(t *testing.T) {
	rc := agents.NewRunContextWrapper[any](map[string]string{"user": "u1"})
	_, ok := rc.Metadata("missing")
	assert.False(t, ok)

	rc.SetMetadata("attempt", 1)
	rc.SetMetadata("attempt", 2)
	v, ok := rc.Metadata("attempt")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, map[string]string{"user": "u1"}, rc.Context)
}
