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
	"fmt"
	"slices"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/openai/openai-go/v3/packages/param"
)

// RealtimeAgent is a specialized agent for realtime sessions. It carries the
// configuration sent to the model; model settings themselves live in the
// run and model configs, since a realtime session keeps one model for its
// whole lifetime.
type RealtimeAgent struct {
	// The name of the agent.
	Name string

	// A description of the agent, used when the agent is a handoff target.
	HandoffDescription string

	// The system prompt. Nil means no instructions.
	Instructions RealtimeInstructions

	// Function tools and handoffs the agent can use.
	Tools []agents.Tool

	// Agents this agent can hand off to. Each one is exposed to the model
	// through RealtimeHandoff with default parameters.
	Handoffs []*RealtimeAgent

	// MCP servers whose tools are offered alongside Tools.
	MCPServers []agents.MCPServer

	// Guardrails run on the transcript of the agent's audio output.
	OutputGuardrails []agents.OutputGuardrail
}

func (a *RealtimeAgent) AgentName() string {
	if a == nil {
		return ""
	}
	return a.Name
}

// Clone returns a shallow copy of the realtime agent.
func (a *RealtimeAgent) Clone() *RealtimeAgent {
	if a == nil {
		return nil
	}
	cloned := *a
	cloned.Tools = slices.Clone(a.Tools)
	cloned.Handoffs = slices.Clone(a.Handoffs)
	cloned.MCPServers = slices.Clone(a.MCPServers)
	cloned.OutputGuardrails = slices.Clone(a.OutputGuardrails)
	return &cloned
}

// GetSystemPrompt resolves static or dynamic instructions for this realtime agent.
func (a *RealtimeAgent) GetSystemPrompt(
	ctx context.Context,
	runContext *agents.RunContextWrapper[any],
) (param.Opt[string], error) {
	if a.Instructions == nil {
		return param.Opt[string]{}, nil
	}
	if fn, ok := a.Instructions.(DynamicInstructions); ok && fn == nil {
		return param.Opt[string]{}, nil
	}
	prompt, err := a.Instructions.resolve(ctx, runContext, a)
	if err != nil {
		return param.Opt[string]{}, fmt.Errorf("failed to resolve instructions for agent %q: %w", a.Name, err)
	}
	return param.NewOpt(prompt), nil
}

// GetMCPTools fetches the function tools of every MCP server of the agent.
func (a *RealtimeAgent) GetMCPTools(ctx context.Context) ([]agents.Tool, error) {
	if len(a.MCPServers) == 0 {
		return nil, nil
	}
	functionTools, err := agents.MCPGetAllFunctionTools(ctx, a.MCPServers)
	if err != nil {
		return nil, err
	}
	tools := make([]agents.Tool, len(functionTools))
	for i, t := range functionTools {
		tools[i] = t
	}
	return tools, nil
}

// GetAllTools returns the enabled MCP and static tools of the agent.
func (a *RealtimeAgent) GetAllTools(
	ctx context.Context,
	runContext *agents.RunContextWrapper[any],
) ([]agents.Tool, error) {
	mcpTools, err := a.GetMCPTools(ctx)
	if err != nil {
		return nil, err
	}
	return filterEnabledTools(ctx, runContext, slices.Concat(mcpTools, a.Tools))
}

// GetHandoffs returns the enabled handoffs built from the Handoffs list.
func (a *RealtimeAgent) GetHandoffs(
	ctx context.Context,
	runContext *agents.RunContextWrapper[any],
) ([]agents.Tool, error) {
	handoffs := make([]agents.Tool, 0, len(a.Handoffs))
	for _, target := range a.Handoffs {
		if target == nil {
			continue
		}
		handoffs = append(handoffs, RealtimeHandoff(target, RealtimeHandoffParams{}))
	}
	return filterEnabledTools(ctx, runContext, handoffs)
}

func filterEnabledTools(
	ctx context.Context,
	runContext *agents.RunContextWrapper[any],
	tools []agents.Tool,
) ([]agents.Tool, error) {
	enabled := make([]agents.Tool, 0, len(tools))
	for _, tool := range tools {
		var enabler agents.ToolEnabler
		switch t := tool.(type) {
		case agents.FunctionTool:
			enabler = t.IsEnabled
		case agents.Handoff:
			enabler = t.IsEnabled
		}
		ok, err := agents.IsToolEnabled(ctx, enabler, runContext)
		if err != nil {
			return nil, fmt.Errorf("failed to check whether tool %q is enabled: %w", tool.GetName(), err)
		}
		if ok {
			enabled = append(enabled, tool)
		}
	}
	return enabled, nil
}
