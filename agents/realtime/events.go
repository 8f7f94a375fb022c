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

import "github.com/denggeng/realtime-agents-go/agents"

const (
	realtimeSessionEventTypeAgentStart       = "agent_start"
	realtimeSessionEventTypeAgentEnd         = "agent_end"
	realtimeSessionEventTypeHandoff          = "handoff"
	realtimeSessionEventTypeToolStart        = "tool_start"
	realtimeSessionEventTypeToolEnd          = "tool_end"
	realtimeSessionEventTypeRawModelEvent    = "raw_model_event"
	realtimeSessionEventTypeAudioStart       = "audio_start"
	realtimeSessionEventTypeAudioEnd         = "audio_end"
	realtimeSessionEventTypeAudio            = "audio"
	realtimeSessionEventTypeAudioInterrupted = "audio_interrupted"
	realtimeSessionEventTypeError            = "error"
	realtimeSessionEventTypeHistoryUpdated   = "history_updated"
	realtimeSessionEventTypeHistoryAdded     = "history_added"
	realtimeSessionEventTypeGuardrailTripped = "guardrail_tripped"
)

// RealtimeEventInfo stores common metadata for session events.
type RealtimeEventInfo struct {
	Context *agents.RunContextWrapper[any]
}

// RealtimeSessionEvent is emitted by realtime sessions for high-level
// lifecycle updates. The set of implementations is closed.
type RealtimeSessionEvent interface {
	Type() string
	EventInfo() RealtimeEventInfo
	isRealtimeSessionEvent()
}

// RealtimeAgentStartEvent indicates a new agent turn.
type RealtimeAgentStartEvent struct {
	Agent *RealtimeAgent
	Info  RealtimeEventInfo
}

// RealtimeAgentEndEvent indicates an agent turn end.
type RealtimeAgentEndEvent struct {
	Agent *RealtimeAgent
	Info  RealtimeEventInfo
}

// RealtimeHandoffEvent indicates handoff between agents.
type RealtimeHandoffEvent struct {
	FromAgent *RealtimeAgent
	ToAgent   *RealtimeAgent
	Info      RealtimeEventInfo
}

// RealtimeToolStartEvent indicates tool call start.
type RealtimeToolStartEvent struct {
	Agent     *RealtimeAgent
	Tool      agents.Tool
	Arguments string
	Info      RealtimeEventInfo
}

// RealtimeToolEndEvent indicates tool call completion.
type RealtimeToolEndEvent struct {
	Agent     *RealtimeAgent
	Tool      agents.Tool
	Arguments string
	Output    any
	Info      RealtimeEventInfo
}

// RealtimeRawModelEvent forwards a transport event unchanged.
type RealtimeRawModelEvent struct {
	Data RealtimeModelEvent
	Info RealtimeEventInfo
}

// RealtimeAudioStartEvent precedes the first audio chunk of a content part.
type RealtimeAudioStartEvent struct {
	ItemID       string
	ContentIndex int
	Info         RealtimeEventInfo
}

// RealtimeAudioEndEvent indicates output audio completion.
type RealtimeAudioEndEvent struct {
	ItemID       string
	ContentIndex int
	Info         RealtimeEventInfo
}

// RealtimeAudioEvent carries an output audio chunk.
type RealtimeAudioEvent struct {
	Audio        RealtimeModelAudioEvent
	ItemID       string
	ContentIndex int
	Info         RealtimeEventInfo
}

// RealtimeAudioInterruptedEvent indicates that output audio was interrupted.
type RealtimeAudioInterruptedEvent struct {
	ItemID       string
	ContentIndex int
	Info         RealtimeEventInfo
}

// RealtimeErrorEvent reports a non-fatal session error.
type RealtimeErrorEvent struct {
	Error any
	Info  RealtimeEventInfo
}

// RealtimeHistoryUpdatedEvent carries the full history after a change.
type RealtimeHistoryUpdatedEvent struct {
	History []RealtimeItem
	Info    RealtimeEventInfo
}

// RealtimeHistoryAddedEvent carries an item that was not in the history before.
type RealtimeHistoryAddedEvent struct {
	Item RealtimeItem
	Info RealtimeEventInfo
}

// RealtimeGuardrailTrippedEvent indicates that output guardrails tripped.
type RealtimeGuardrailTrippedEvent struct {
	GuardrailResults []agents.OutputGuardrailResult
	Message          string
	Info             RealtimeEventInfo
}

func (RealtimeAgentStartEvent) Type() string       { return realtimeSessionEventTypeAgentStart }
func (RealtimeAgentEndEvent) Type() string         { return realtimeSessionEventTypeAgentEnd }
func (RealtimeHandoffEvent) Type() string          { return realtimeSessionEventTypeHandoff }
func (RealtimeToolStartEvent) Type() string        { return realtimeSessionEventTypeToolStart }
func (RealtimeToolEndEvent) Type() string          { return realtimeSessionEventTypeToolEnd }
func (RealtimeRawModelEvent) Type() string         { return realtimeSessionEventTypeRawModelEvent }
func (RealtimeAudioStartEvent) Type() string       { return realtimeSessionEventTypeAudioStart }
func (RealtimeAudioEndEvent) Type() string         { return realtimeSessionEventTypeAudioEnd }
func (RealtimeAudioEvent) Type() string            { return realtimeSessionEventTypeAudio }
func (RealtimeAudioInterruptedEvent) Type() string { return realtimeSessionEventTypeAudioInterrupted }
func (RealtimeErrorEvent) Type() string            { return realtimeSessionEventTypeError }
func (RealtimeHistoryUpdatedEvent) Type() string   { return realtimeSessionEventTypeHistoryUpdated }
func (RealtimeHistoryAddedEvent) Type() string     { return realtimeSessionEventTypeHistoryAdded }
func (RealtimeGuardrailTrippedEvent) Type() string { return realtimeSessionEventTypeGuardrailTripped }

func (e RealtimeAgentStartEvent) EventInfo() RealtimeEventInfo       { return e.Info }
func (e RealtimeAgentEndEvent) EventInfo() RealtimeEventInfo         { return e.Info }
func (e RealtimeHandoffEvent) EventInfo() RealtimeEventInfo          { return e.Info }
func (e RealtimeToolStartEvent) EventInfo() RealtimeEventInfo        { return e.Info }
func (e RealtimeToolEndEvent) EventInfo() RealtimeEventInfo          { return e.Info }
func (e RealtimeRawModelEvent) EventInfo() RealtimeEventInfo         { return e.Info }
func (e RealtimeAudioStartEvent) EventInfo() RealtimeEventInfo       { return e.Info }
func (e RealtimeAudioEndEvent) EventInfo() RealtimeEventInfo         { return e.Info }
func (e RealtimeAudioEvent) EventInfo() RealtimeEventInfo            { return e.Info }
func (e RealtimeAudioInterruptedEvent) EventInfo() RealtimeEventInfo { return e.Info }
func (e RealtimeErrorEvent) EventInfo() RealtimeEventInfo            { return e.Info }
func (e RealtimeHistoryUpdatedEvent) EventInfo() RealtimeEventInfo   { return e.Info }
func (e RealtimeHistoryAddedEvent) EventInfo() RealtimeEventInfo     { return e.Info }
func (e RealtimeGuardrailTrippedEvent) EventInfo() RealtimeEventInfo { return e.Info }

func (RealtimeAgentStartEvent) isRealtimeSessionEvent()       {}
func (RealtimeAgentEndEvent) isRealtimeSessionEvent()         {}
func (RealtimeHandoffEvent) isRealtimeSessionEvent()          {}
func (RealtimeToolStartEvent) isRealtimeSessionEvent()        {}
func (RealtimeToolEndEvent) isRealtimeSessionEvent()          {}
func (RealtimeRawModelEvent) isRealtimeSessionEvent()         {}
func (RealtimeAudioStartEvent) isRealtimeSessionEvent()       {}
func (RealtimeAudioEndEvent) isRealtimeSessionEvent()         {}
func (RealtimeAudioEvent) isRealtimeSessionEvent()            {}
func (RealtimeAudioInterruptedEvent) isRealtimeSessionEvent() {}
func (RealtimeErrorEvent) isRealtimeSessionEvent()            {}
func (RealtimeHistoryUpdatedEvent) isRealtimeSessionEvent()   {}
func (RealtimeHistoryAddedEvent) isRealtimeSessionEvent()     {}
func (RealtimeGuardrailTrippedEvent) isRealtimeSessionEvent() {}
