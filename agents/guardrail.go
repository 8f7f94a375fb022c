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
	"reflect"
)

// NamedAgent is implemented by every agent kind guardrails can run against.
type NamedAgent interface {
	AgentName() string
}

// GuardrailFunctionOutput is the output of a guardrail function.
type GuardrailFunctionOutput struct {
	// Optional information about the guardrail's output.
	// For example, the guardrail could include information about the checks it performed and granular results.
	OutputInfo any

	// Whether the tripwire was triggered.
	// If triggered, the agent's execution will be halted.
	TripwireTriggered bool
}

// OutputGuardrailFunction checks the output of an agent.
type OutputGuardrailFunction func(
	ctx context.Context,
	runContext *RunContextWrapper[any],
	agent NamedAgent,
	agentOutput any,
) (GuardrailFunctionOutput, error)

// OutputGuardrail runs a check on the final output of an agent, or, for
// realtime agents, on the transcript produced so far.
type OutputGuardrail struct {
	// The name of the guardrail, used for tracing and reporting.
	Name string

	// A function that receives the agent's output and returns a
	// GuardrailFunctionOutput.
	GuardrailFunction OutputGuardrailFunction
}

// OutputGuardrailResult is the result of a guardrail run.
type OutputGuardrailResult struct {
	// The guardrail that was run.
	Guardrail OutputGuardrail

	// The output of the agent that was checked by the guardrail.
	AgentOutput any

	// The agent that was checked by the guardrail.
	Agent NamedAgent

	// The output of the guardrail function.
	Output GuardrailFunctionOutput
}

func (og OutputGuardrail) GetName() string {
	if og.Name != "" {
		return og.Name
	}
	return "unnamed_guardrail"
}

func (og OutputGuardrail) Run(
	ctx context.Context,
	runContext *RunContextWrapper[any],
	agent NamedAgent,
	agentOutput any,
) (OutputGuardrailResult, error) {
	if og.GuardrailFunction == nil {
		return OutputGuardrailResult{}, UserErrorf("guardrail %q has no function", og.GetName())
	}
	output, err := og.GuardrailFunction(ctx, runContext, agent, agentOutput)
	if err != nil {
		return OutputGuardrailResult{}, err
	}
	return OutputGuardrailResult{
		Guardrail:   og,
		AgentOutput: agentOutput,
		Agent:       agent,
		Output:      output,
	}, nil
}

// DedupeOutputGuardrails concatenates guardrail lists, dropping entries that
// share both name and function with an earlier one.
func DedupeOutputGuardrails(lists ...[]OutputGuardrail) []OutputGuardrail {
	type key struct {
		name string
		fn   uintptr
	}
	seen := make(map[key]struct{})
	var out []OutputGuardrail
	for _, list := range lists {
		for _, g := range list {
			var fn uintptr
			if g.GuardrailFunction != nil {
				fn = reflect.ValueOf(g.GuardrailFunction).Pointer()
			}
			k := key{name: g.GetName(), fn: fn}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
