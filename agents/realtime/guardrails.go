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
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/denggeng/realtime-agents-go/agents"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type itemTranscript struct {
	text   strings.Builder
	length int
	runs   int
}

// guardrailDebouncer accumulates transcript deltas per item and decides when
// the output guardrails must run again.
type guardrailDebouncer struct {
	debounceTextLength int

	mu          sync.Mutex
	items       map[string]*itemTranscript
	interrupted bool
	turn        uint64
}

func newGuardrailDebouncer(debounceTextLength int) *guardrailDebouncer {
	if debounceTextLength <= 0 {
		debounceTextLength = DefaultDebounceTextLength
	}
	return &guardrailDebouncer{
		debounceTextLength: debounceTextLength,
		items:              make(map[string]*itemTranscript),
	}
}

// onDelta appends delta to the item transcript. It returns the full
// transcript, the current turn and true when the next threshold, (runs+1)
// times the debounce length, has been reached.
func (d *guardrailDebouncer) onDelta(itemID, delta string) (string, uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, ok := d.items[itemID]
	if !ok {
		state = &itemTranscript{}
		d.items[itemID] = state
	}
	state.text.WriteString(delta)
	state.length += utf8.RuneCountInString(delta)

	if state.length < (state.runs+1)*d.debounceTextLength {
		return "", d.turn, false
	}
	state.runs++
	return state.text.String(), d.turn, true
}

// runs reports how many guardrail batches were started for itemID this turn.
func (d *guardrailDebouncer) runs(itemID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if state, ok := d.items[itemID]; ok {
		return state.runs
	}
	return 0
}

// isActive reports whether turn is still the current turn and no guardrail
// has tripped in it.
func (d *guardrailDebouncer) isActive(turn uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return turn == d.turn && !d.interrupted
}

// markInterrupted sets the interruption flag for turn and reports whether
// it was previously unset. Batches from an earlier turn never set it.
func (d *guardrailDebouncer) markInterrupted(turn uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if turn != d.turn || d.interrupted {
		return false
	}
	d.interrupted = true
	return true
}

// reset starts a new turn.
func (d *guardrailDebouncer) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.items)
	d.interrupted = false
	d.turn++
}

// runOutputGuardrails runs every output guardrail on text and, if any trips,
// interrupts the model. It reports whether a guardrail tripped.
// Results of a batch that finishes after its turn ended are discarded.
func (s *RealtimeSession) runOutputGuardrails(ctx context.Context, text string, turn uint64) bool {
	agent := s.CurrentAgent()
	guardrails := agents.DedupeOutputGuardrails(agent.OutputGuardrails, s.runConfig.OutputGuardrails)
	if len(guardrails) == 0 || !s.debouncer.isActive(turn) {
		return false
	}

	ctx, span := s.tracer.Start(ctx, spanOutputGuardrails, trace.WithAttributes(
		attribute.String("agent.name", agent.Name),
		attribute.Int("guardrail.count", len(guardrails)),
	))
	defer span.End()

	var triggered []agents.OutputGuardrailResult
	for _, guardrail := range guardrails {
		result, err := runOutputGuardrailSafely(ctx, guardrail, s.contextWrapper, agent, text)
		if err != nil {
			agents.Logger().Warn("Output guardrail failed",
				slog.String("guardrail", guardrail.GetName()),
				slog.String("error", err.Error()))
			span.RecordError(err)
			continue
		}
		if result.Output.TripwireTriggered {
			triggered = append(triggered, result)
		}
	}
	if len(triggered) == 0 {
		return false
	}
	// A concurrent batch may already have interrupted this turn, or the turn is over.
	if !s.debouncer.markInterrupted(turn) {
		return false
	}

	names := make([]string, len(triggered))
	for i, result := range triggered {
		names[i] = result.Guardrail.GetName()
	}
	span.SetAttributes(attribute.StringSlice("guardrail.triggered", names))

	s.putEvent(RealtimeGuardrailTrippedEvent{
		GuardrailResults: triggered,
		Message:          text,
		Info:             s.eventInfo,
	})

	if err := s.model.SendEvent(ctx, RealtimeModelSendInterrupt{ForceResponseCancel: true}); err != nil {
		s.putEvent(RealtimeErrorEvent{Error: fmt.Errorf("failed to interrupt model: %w", err), Info: s.eventInfo})
	}
	message := fmt.Sprintf("guardrail triggered: %s", strings.Join(names, ", "))
	if err := s.model.SendEvent(ctx, RealtimeModelSendUserInput{UserInput: message}); err != nil {
		s.putEvent(RealtimeErrorEvent{Error: fmt.Errorf("failed to notify model of guardrail trip: %w", err), Info: s.eventInfo})
	}
	return true
}

func runOutputGuardrailSafely(
	ctx context.Context,
	guardrail agents.OutputGuardrail,
	runContext *agents.RunContextWrapper[any],
	agent *RealtimeAgent,
	text string,
) (result agents.OutputGuardrailResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("output guardrail panic: %v", recovered)
		}
	}()
	return guardrail.Run(ctx, runContext, agent, text)
}
