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
	"context"
	"errors"
	"testing"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardedAgent string

func (a guardedAgent) AgentName() string { return string(a) }

func noProfanity(_ context.Context, _ *agents.RunContextWrapper[any], _ agents.NamedAgent, output any) (agents.GuardrailFunctionOutput, error) {
	text, _ := output.(string)
	return agents.GuardrailFunctionOutput{
		OutputInfo:        len(text),
		TripwireTriggered: text == "darn",
	}, nil
}

func TestOutputGuardrailRun(t *testing.T) {
	guardrail := agents.OutputGuardrail{Name: "no_profanity", GuardrailFunction: noProfanity}
	agent := guardedAgent("support")

	result, err := guardrail.Run(t.Context(), agents.NewRunContextWrapper[any](nil), agent, "darn")
	require.NoError(t, err)
	assert.True(t, result.Output.TripwireTriggered)
	assert.Equal(t, 4, result.Output.OutputInfo)
	assert.Equal(t, "darn", result.AgentOutput)
	assert.Equal(t, agent, result.Agent)
	assert.Equal(t, "no_profanity", result.Guardrail.GetName())

	result, err = guardrail.Run(t.Context(), nil, agent, "thanks")
	require.NoError(t, err)
	assert.False(t, result.Output.TripwireTriggered)
}

func TestOutputGuardrailErrors(t *testing.T) {
	_, err := agents.OutputGuardrail{}.Run(t.Context(), nil, guardedAgent("a"), "x")
	assert.True(t, agents.IsUserError(err))
	assert.ErrorContains(t, err, "unnamed_guardrail")

	failing := agents.OutputGuardrail{
		GuardrailFunction: func(context.Context, *agents.RunContextWrapper[any], agents.NamedAgent, any) (agents.GuardrailFunctionOutput, error) {
			return agents.GuardrailFunctionOutput{}, errors.New("classifier unavailable")
		},
	}
	_, err = failing.Run(t.Context(), nil, guardedAgent("a"), "x")
	assert.EqualError(t, err, "classifier unavailable")
}

func TestDedupeOutputGuardrails(t *testing.T) {
	first := agents.OutputGuardrail{Name: "no_profanity", GuardrailFunction: noProfanity}
	renamed := agents.OutputGuardrail{Name: "strict", GuardrailFunction: noProfanity}

	got := agents.DedupeOutputGuardrails(
		[]agents.OutputGuardrail{first},
		[]agents.OutputGuardrail{first, renamed},
		nil,
	)
	require.Len(t, got, 2)
	assert.Equal(t, "no_profanity", got[0].Name)
	assert.Equal(t, "strict", got[1].Name)

	assert.Empty(t, agents.DedupeOutputGuardrails())
}
