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

package realtime

import (
	"context"

	"github.com/denggeng/realtime-agents-go/agents"
)

// RealtimeInstructions is either StaticInstructions or DynamicInstructions.
type RealtimeInstructions interface {
	resolve(context.Context, *agents.RunContextWrapper[any], *RealtimeAgent) (string, error)
}

// StaticInstructions is a literal system prompt.
type StaticInstructions string

func (s StaticInstructions) resolve(context.Context, *agents.RunContextWrapper[any], *RealtimeAgent) (string, error) {
	return string(s), nil
}

// DynamicInstructions computes the system prompt each time the session
// configuration is built. The function may block.
type DynamicInstructions func(
	ctx context.Context,
	runContext *agents.RunContextWrapper[any],
	agent *RealtimeAgent,
) (string, error)

func (f DynamicInstructions) resolve(
	ctx context.Context,
	runContext *agents.RunContextWrapper[any],
	agent *RealtimeAgent,
) (string, error) {
	return f(ctx, runContext, agent)
}
