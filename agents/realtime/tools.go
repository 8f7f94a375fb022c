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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/denggeng/realtime-agents-go/agents"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// agentToolSet indexes the tools of an agent by name. Function tools and
// handoffs live in separate namespaces; on a name collision the last tool wins.
type agentToolSet struct {
	functions map[string]agents.FunctionTool
	handoffs  map[string]agents.Handoff
}

func (s *RealtimeSession) resolveToolSet(ctx context.Context, agent *RealtimeAgent) (agentToolSet, error) {
	tools, err := agent.GetAllTools(ctx, s.contextWrapper)
	if err != nil {
		return agentToolSet{}, fmt.Errorf("failed to load tools: %w", err)
	}
	handoffs, err := agent.GetHandoffs(ctx, s.contextWrapper)
	if err != nil {
		return agentToolSet{}, fmt.Errorf("failed to load handoffs: %w", err)
	}

	set := agentToolSet{
		functions: make(map[string]agents.FunctionTool),
		handoffs:  make(map[string]agents.Handoff),
	}
	for _, tool := range append(tools, handoffs...) {
		switch t := tool.(type) {
		case agents.FunctionTool:
			set.functions[t.Name] = t
		case agents.Handoff:
			set.handoffs[t.ToolName] = t
		}
	}
	return set, nil
}

// handleToolCall resolves and runs a tool call requested by the model.
func (s *RealtimeSession) handleToolCall(
	ctx context.Context,
	event RealtimeModelToolCallEvent,
	agent *RealtimeAgent,
) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.putEvent(RealtimeErrorEvent{
				Error: fmt.Errorf("panic while handling tool call %s: %v", event.Name, recovered),
				Info:  s.eventInfo,
			})
		}
	}()

	ctx = agents.ContextWithRunContext(ctx, s.contextWrapper)

	toolSet, err := s.resolveToolSet(ctx, agent)
	if err != nil {
		s.putEvent(RealtimeErrorEvent{Error: err, Info: s.eventInfo})
		return
	}

	if functionTool, ok := toolSet.functions[event.Name]; ok {
		s.runFunctionToolCall(ctx, event, agent, functionTool)
		return
	}
	if handoff, ok := toolSet.handoffs[event.Name]; ok {
		s.runHandoffCall(ctx, event, agent, handoff)
		return
	}

	agents.Logger().Warn("Tool not found",
		slog.String("tool", event.Name), slog.String("call_id", event.CallID))
	s.putEvent(RealtimeErrorEvent{
		Error: agents.ModelBehaviorErrorf("tool %s not found", event.Name),
		Info:  s.eventInfo,
	})
}

func (s *RealtimeSession) runFunctionToolCall(
	ctx context.Context,
	event RealtimeModelToolCallEvent,
	agent *RealtimeAgent,
	functionTool agents.FunctionTool,
) {
	ctx, span := s.tracer.Start(ctx, spanToolCall, trace.WithAttributes(
		attribute.String("agent.name", agent.Name),
		attribute.String("tool.name", functionTool.Name),
		attribute.String("tool.call_id", event.CallID),
	))
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	s.putEvent(RealtimeToolStartEvent{
		Agent:     agent,
		Tool:      functionTool,
		Arguments: event.Arguments,
		Info:      s.eventInfo,
	})

	toolCtx := agents.ContextWithToolData(ctx, functionTool.Name, event.CallID, event.Arguments)
	result, err := functionTool.Invoke(toolCtx, event.Arguments)
	if err != nil {
		spanErr = err
		s.putEvent(RealtimeErrorEvent{
			Error: fmt.Errorf("error running tool %s: %w", functionTool.Name, err),
			Info:  s.eventInfo,
		})
		return
	}

	if err := s.model.SendEvent(ctx, RealtimeModelSendToolOutput{
		ToolCall:      event,
		Output:        stringifyToolOutput(result),
		StartResponse: true,
	}); err != nil {
		spanErr = err
		s.putEvent(RealtimeErrorEvent{
			Error: fmt.Errorf("failed sending tool output: %w", err),
			Info:  s.eventInfo,
		})
		return
	}

	s.putEvent(RealtimeToolEndEvent{
		Agent:     agent,
		Tool:      functionTool,
		Arguments: event.Arguments,
		Output:    result,
		Info:      s.eventInfo,
	})
}

func (s *RealtimeSession) runHandoffCall(
	ctx context.Context,
	event RealtimeModelToolCallEvent,
	fromAgent *RealtimeAgent,
	handoff agents.Handoff,
) {
	ctx, span := s.tracer.Start(ctx, spanHandoff, trace.WithAttributes(
		attribute.String("handoff.from_agent", fromAgent.Name),
		attribute.String("handoff.tool_name", handoff.ToolName),
	))
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	fail := func(err error) {
		spanErr = err
		s.putEvent(RealtimeErrorEvent{Error: err, Info: s.eventInfo})
	}

	if handoff.OnInvokeHandoff == nil {
		fail(agents.UserErrorf("handoff %s has no invoke function", handoff.ToolName))
		return
	}
	invoked, err := handoff.OnInvokeHandoff(ctx, event.Arguments)
	if err != nil {
		fail(fmt.Errorf("handoff %s failed: %w", handoff.ToolName, err))
		return
	}
	nextAgent, ok := invoked.(*RealtimeAgent)
	if !ok || nextAgent == nil {
		fail(agents.UserErrorf("handoff %s returned %T, want *RealtimeAgent", handoff.ToolName, invoked))
		return
	}
	span.SetAttributes(attribute.String("handoff.to_agent", nextAgent.Name))

	s.mutex.Lock()
	s.currentAgent = nextAgent
	s.mutex.Unlock()

	settings, err := s.buildModelSettings(ctx, nextAgent)
	if err != nil {
		fail(fmt.Errorf("handoff update failed: %w", err))
		return
	}

	s.putEvent(RealtimeHandoffEvent{
		FromAgent: fromAgent,
		ToAgent:   nextAgent,
		Info:      s.eventInfo,
	})

	if err := s.model.SendEvent(ctx, RealtimeModelSendSessionUpdate{SessionSettings: settings}); err != nil {
		fail(fmt.Errorf("failed sending handoff update: %w", err))
		return
	}
	if err := s.model.SendEvent(ctx, RealtimeModelSendToolOutput{
		ToolCall:      event,
		Output:        handoff.GetTransferMessage(nextAgent.Name),
		StartResponse: true,
	}); err != nil {
		fail(fmt.Errorf("failed sending handoff tool output: %w", err))
	}
}

func stringifyToolOutput(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	}
	if b, err := json.Marshal(result); err == nil {
		return string(b)
	}
	return fmt.Sprint(result)
}
