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
	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/denggeng/realtime-agents-go/memory"
	"github.com/openai/openai-go/v3/packages/param"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDebounceTextLength is the transcript length increment between two
// guardrail runs on the same item.
const DefaultDebounceTextLength = 100

// RealtimeInputAudioTranscriptionConfig configures transcription of user audio.
type RealtimeInputAudioTranscriptionConfig struct {
	Model    param.Opt[string]
	Language param.Opt[string]
	Prompt   param.Opt[string]
}

// RealtimeTurnDetectionConfig configures server-side turn detection.
type RealtimeTurnDetectionConfig struct {
	// "server_vad" or "semantic_vad".
	Type              param.Opt[string]
	CreateResponse    param.Opt[bool]
	InterruptResponse param.Opt[bool]
	PrefixPaddingMS   param.Opt[int]
	SilenceDurationMS param.Opt[int]
	Threshold         param.Opt[float64]
	Eagerness         param.Opt[string]
}

// RealtimeSessionModelSettings configures the model side of a realtime session.
// Unset fields keep the server defaults.
type RealtimeSessionModelSettings struct {
	ModelName               param.Opt[string]
	Instructions            param.Opt[string]
	Modalities              []string
	Voice                   param.Opt[string]
	InputAudioFormat        param.Opt[string]
	OutputAudioFormat       param.Opt[string]
	InputAudioTranscription *RealtimeInputAudioTranscriptionConfig
	TurnDetection           *RealtimeTurnDetectionConfig
	ToolChoice              param.Opt[string]

	// Function tools and handoffs offered to the model.
	Tools []agents.Tool
}

// Merge returns s overlaid with every field set in override.
func (s RealtimeSessionModelSettings) Merge(override RealtimeSessionModelSettings) RealtimeSessionModelSettings {
	mergeOpt(&s.ModelName, override.ModelName)
	mergeOpt(&s.Instructions, override.Instructions)
	mergeOpt(&s.Voice, override.Voice)
	mergeOpt(&s.InputAudioFormat, override.InputAudioFormat)
	mergeOpt(&s.OutputAudioFormat, override.OutputAudioFormat)
	mergeOpt(&s.ToolChoice, override.ToolChoice)
	if override.Modalities != nil {
		s.Modalities = override.Modalities
	}
	if override.InputAudioTranscription != nil {
		s.InputAudioTranscription = override.InputAudioTranscription
	}
	if override.TurnDetection != nil {
		s.TurnDetection = override.TurnDetection
	}
	if override.Tools != nil {
		s.Tools = override.Tools
	}
	return s
}

func mergeOpt[T comparable](dst *param.Opt[T], src param.Opt[T]) {
	if src.Valid() {
		*dst = src
	}
}

// RealtimeGuardrailsSettings configures output guardrails for realtime sessions.
type RealtimeGuardrailsSettings struct {
	// The minimum number of characters to accumulate before running
	// guardrails again. Defaults to DefaultDebounceTextLength.
	DebounceTextLength param.Opt[int]
}

// RealtimeRunConfig configures a realtime run.
type RealtimeRunConfig struct {
	// Settings applied to the model before the agent's own instructions and tools.
	ModelSettings RealtimeSessionModelSettings

	// Output guardrails run on the transcript, in addition to the agent's.
	OutputGuardrails []agents.OutputGuardrail

	GuardrailsSettings RealtimeGuardrailsSettings

	// Whether tool calls run in the background instead of on the listener.
	// Background calls may emit their events after later model events.
	// Defaults to false.
	AsyncToolCalls param.Opt[bool]

	// Optional store where completed conversation items are persisted.
	// SessionID must be set if and only if Memory is set.
	Memory    memory.SessionMemory
	SessionID string

	// Tracer provider used for session spans. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Whether tracing is disabled for the session.
	TracingDisabled bool
}

// Validate reports configuration errors that must be fixed before connecting.
func (c RealtimeRunConfig) Validate() error {
	if c.Memory != nil && c.SessionID == "" {
		return agents.NewUserError("a session ID is required when session memory is configured")
	}
	if c.Memory == nil && c.SessionID != "" {
		return agents.NewUserError("session memory is required when a session ID is configured")
	}
	if c.GuardrailsSettings.DebounceTextLength.Valid() && c.GuardrailsSettings.DebounceTextLength.Value <= 0 {
		return agents.UserErrorf("debounce text length must be positive, got %d", c.GuardrailsSettings.DebounceTextLength.Value)
	}
	return nil
}

func (c RealtimeRunConfig) debounceTextLength() int {
	if n := c.GuardrailsSettings.DebounceTextLength.Or(DefaultDebounceTextLength); n > 0 {
		return n
	}
	return DefaultDebounceTextLength
}
