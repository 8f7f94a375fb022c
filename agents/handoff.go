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

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go/v3/packages/param"
)

// Handoff is when an agent delegates a task to another agent.
// For example, in a customer support scenario you might have a "triage agent"
// that determines which agent should handle the user's request, and
// sub-agents that specialize in different areas like billing, account
// management, etc. To the model, a handoff is just another tool.
type Handoff struct {
	// The name of the tool that represents the handoff.
	ToolName string

	// The description of the tool that represents the handoff.
	ToolDescription string

	// The JSON schema for the handoff input. Can be empty if the handoff does not take an input.
	InputJSONSchema map[string]any

	// The function that invokes the handoff. The parameters passed are the
	// context (carrying the run context) and the arguments from the LLM as a
	// JSON string. It returns the agent to hand off to; its concrete type
	// depends on the kind of runner that created the handoff.
	OnInvokeHandoff func(ctx context.Context, jsonInput string) (any, error)

	// The name of the agent that is being handed off to.
	AgentName string

	// Whether the input JSON schema is in strict mode.
	StrictJSONSchema param.Opt[bool]

	// Whether the handoff is enabled. Nil means enabled.
	IsEnabled ToolEnabler
}

func (h Handoff) GetName() string { return h.ToolName }

func (Handoff) isTool() {}

// GetTransferMessage returns the tool output sent to the model after a
// successful handoff.
func (h Handoff) GetTransferMessage(agentName string) string {
	b, err := json.Marshal(map[string]string{"assistant": agentName})
	if err != nil {
		return fmt.Sprintf(`{"assistant": %q}`, agentName)
	}
	return string(b)
}

// DefaultHandoffToolName returns the tool name used for a handoff to agentName.
func DefaultHandoffToolName(agentName string) string {
	return TransformStringFunctionStyle("transfer_to_" + agentName)
}

// DefaultHandoffToolDescription returns the tool description used for a handoff.
func DefaultHandoffToolDescription(agentName, handoffDescription string) string {
	description := fmt.Sprintf("Handoff to the %s agent to handle the request.", agentName)
	if handoffDescription != "" {
		description += " " + handoffDescription
	}
	return description
}

var nonFunctionChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// TransformStringFunctionStyle turns an arbitrary string into a valid
// function name: spaces become underscores, other invalid characters are
// replaced and the result is lowercased.
func TransformStringFunctionStyle(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = nonFunctionChars.ReplaceAllString(name, "_")
	return strings.ToLower(name)
}
