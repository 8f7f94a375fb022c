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
	"slices"

	"github.com/denggeng/realtime-agents-go/agents"
)

// BuildModelSettingsFromAgent merges agent-level data into realtime model
// settings. The result starts from baseSettings, takes the agent's
// instructions, tools and handoffs, and finally applies startingSettings,
// whose set fields always win.
func BuildModelSettingsFromAgent(
	ctx context.Context,
	agent *RealtimeAgent,
	runContext *agents.RunContextWrapper[any],
	baseSettings RealtimeSessionModelSettings,
	startingSettings RealtimeSessionModelSettings,
) (RealtimeSessionModelSettings, error) {
	updated := baseSettings

	if agent != nil {
		instructions, err := agent.GetSystemPrompt(ctx, runContext)
		if err != nil {
			return RealtimeSessionModelSettings{}, err
		}
		if instructions.Valid() {
			updated.Instructions = instructions
		}

		tools, err := agent.GetAllTools(ctx, runContext)
		if err != nil {
			return RealtimeSessionModelSettings{}, err
		}
		handoffs, err := agent.GetHandoffs(ctx, runContext)
		if err != nil {
			return RealtimeSessionModelSettings{}, err
		}
		updated.Tools = slices.Concat(tools, handoffs)
	}

	return updated.Merge(startingSettings), nil
}
