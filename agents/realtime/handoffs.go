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
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/openai/openai-go/v3/packages/param"
)

// RealtimeHandoffParams configures a realtime handoff helper.
type RealtimeHandoffParams struct {
	// Overrides the default "transfer_to_<agent>" tool name.
	ToolNameOverride string

	// Overrides the default tool description.
	ToolDescriptionOverride string

	// Called when the handoff is invoked, before the agent switch.
	OnHandoff func(ctx context.Context, runContext *agents.RunContextWrapper[any]) error

	// Whether the handoff is enabled. Nil means enabled.
	IsEnabled agents.ToolEnabler
}

// RealtimeHandoff creates a handoff tool to the given realtime agent.
func RealtimeHandoff(agent *RealtimeAgent, params RealtimeHandoffParams) agents.Handoff {
	return newRealtimeHandoff(agent, params, nil, func(ctx context.Context, _ string) error {
		if params.OnHandoff == nil {
			return nil
		}
		runContext, _ := agents.RunContextFromContext(ctx)
		return params.OnHandoff(ctx, runContext)
	})
}

// RealtimeHandoffWithInput creates a handoff tool whose arguments are
// validated against the JSON schema of T and decoded before onHandoff runs.
func RealtimeHandoffWithInput[T any](
	agent *RealtimeAgent,
	params RealtimeHandoffParams,
	onHandoff func(ctx context.Context, runContext *agents.RunContextWrapper[any], input T) error,
) (agents.Handoff, error) {
	if onHandoff == nil {
		return agents.Handoff{}, agents.NewUserError("onHandoff must be provided when the handoff takes an input")
	}
	schema, err := agents.JSONSchemaFor[T]()
	if err != nil {
		return agents.Handoff{}, fmt.Errorf("failed to build handoff input schema: %w", err)
	}
	validator, err := agents.NewJSONSchemaValidator(schema)
	if err != nil {
		return agents.Handoff{}, err
	}

	return newRealtimeHandoff(agent, params, schema, func(ctx context.Context, jsonInput string) error {
		if strings.TrimSpace(jsonInput) == "" {
			return agents.ModelBehaviorErrorf("handoff %q requires input but got none", agent.AgentName())
		}
		if err := validator.Validate(jsonInput); err != nil {
			return agents.ModelBehaviorErrorf("invalid JSON input for handoff %q: %v", agent.AgentName(), err)
		}
		var input T
		if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
			return agents.ModelBehaviorErrorf("invalid JSON input for handoff %q: %v", agent.AgentName(), err)
		}
		runContext, _ := agents.RunContextFromContext(ctx)
		return onHandoff(ctx, runContext, input)
	}), nil
}

func newRealtimeHandoff(
	agent *RealtimeAgent,
	params RealtimeHandoffParams,
	inputSchema map[string]any,
	beforeSwitch func(ctx context.Context, jsonInput string) error,
) agents.Handoff {
	agentName := agent.AgentName()
	var handoffDescription string
	if agent != nil {
		handoffDescription = agent.HandoffDescription
	}
	if inputSchema == nil {
		inputSchema = map[string]any{}
	}

	return agents.Handoff{
		ToolName:         cmp.Or(strings.TrimSpace(params.ToolNameOverride), agents.DefaultHandoffToolName(agentName)),
		ToolDescription:  cmp.Or(params.ToolDescriptionOverride, agents.DefaultHandoffToolDescription(agentName, handoffDescription)),
		InputJSONSchema:  inputSchema,
		AgentName:        agentName,
		StrictJSONSchema: param.NewOpt(true),
		IsEnabled:        params.IsEnabled,
		OnInvokeHandoff: func(ctx context.Context, jsonInput string) (any, error) {
			if agent == nil {
				return nil, agents.NewUserError("realtime handoff target agent is missing")
			}
			if err := beforeSwitch(ctx, jsonInput); err != nil {
				return nil, err
			}
			return agent, nil
		},
	}
}
