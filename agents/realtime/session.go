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
	"slices"
	"sync"

	"github.com/denggeng/realtime-agents-go/agents"
	"go.opentelemetry.io/otel/trace"
)

type sessionState int

const (
	sessionStateIdle sessionState = iota
	sessionStateConnecting
	sessionStateConnected
	sessionStateClosed
)

func (s sessionState) String() string {
	switch s {
	case sessionStateIdle:
		return "idle"
	case sessionStateConnecting:
		return "connecting"
	case sessionStateConnected:
		return "connected"
	case sessionStateClosed:
		return "closed"
	default:
		return fmt.Sprintf("sessionState(%d)", int(s))
	}
}

// UnhandledModelEventError is returned when a model emits an event outside
// the closed set of RealtimeModelEvent variants. The session stops
// processing events once it occurs.
type UnhandledModelEventError struct {
	Event RealtimeModelEvent
}

func (e *UnhandledModelEventError) Error() string {
	return fmt.Sprintf("unhandled realtime model event %T", e.Event)
}

type audioKey struct {
	itemID       string
	contentIndex int
}

// RealtimeSession connects a realtime agent to a realtime model. It
// translates model events into session events, keeps the conversation
// history, runs tools and output guardrails, and persists completed items.
//
// Model events are expected from a single listener goroutine; session
// events are read from Events by a single consumer.
type RealtimeSession struct {
	model          RealtimeModel
	contextWrapper *agents.RunContextWrapper[any]
	eventInfo      RealtimeEventInfo
	modelConfig    RealtimeModelConfig
	runConfig      RealtimeRunConfig
	baseSettings   RealtimeSessionModelSettings
	asyncToolCalls bool
	debouncer      *guardrailDebouncer
	tracer         trace.Tracer

	mutex        sync.Mutex
	state        sessionState
	turnActive   bool
	currentAgent *RealtimeAgent
	history      []RealtimeItem
	audioStarted map[audioKey]struct{}
	persisted    map[string]struct{}
	err          error

	events       *eventQueue[RealtimeSessionEvent]
	out          chan RealtimeSessionEvent
	deliveryOnce sync.Once

	background sync.WaitGroup
}

// NewRealtimeSession creates a session bound to a model and initial agent.
func NewRealtimeSession(
	model RealtimeModel,
	agent *RealtimeAgent,
	contextValue any,
	modelConfig RealtimeModelConfig,
	runConfig RealtimeRunConfig,
) *RealtimeSession {
	contextWrapper := agents.NewRunContextWrapper[any](contextValue)
	return &RealtimeSession{
		model:          model,
		contextWrapper: contextWrapper,
		eventInfo:      RealtimeEventInfo{Context: contextWrapper},
		modelConfig:    modelConfig,
		runConfig:      runConfig,
		baseSettings:   runConfig.ModelSettings.Merge(modelConfig.InitialSettings),
		asyncToolCalls: runConfig.AsyncToolCalls.Or(false),
		debouncer:      newGuardrailDebouncer(runConfig.debounceTextLength()),
		tracer:         newTracer(runConfig),
		currentAgent:   agent,
		audioStarted:   make(map[audioKey]struct{}),
		persisted:      make(map[string]struct{}),
		events:         newEventQueue[RealtimeSessionEvent](),
		out:            make(chan RealtimeSessionEvent),
	}
}

// Model returns the underlying realtime model transport.
func (s *RealtimeSession) Model() RealtimeModel {
	return s.model
}

// Enter validates the configuration, connects the underlying model and
// emits an initial history event.
func (s *RealtimeSession) Enter(ctx context.Context) error {
	if err := s.runConfig.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	if s.state != sessionStateIdle {
		state := s.state
		s.mutex.Unlock()
		return agents.UserErrorf("cannot enter a realtime session in state %s", state)
	}
	s.state = sessionStateConnecting
	agent := s.currentAgent
	s.mutex.Unlock()

	s.model.AddListener(s)

	settings, err := BuildModelSettingsFromAgent(ctx, agent, s.contextWrapper, s.baseSettings, s.modelConfig.InitialSettings)
	if err == nil {
		connectConfig := s.modelConfig
		connectConfig.InitialSettings = settings
		if err = s.model.Connect(ctx, connectConfig); err != nil {
			err = fmt.Errorf("failed to connect realtime model: %w", err)
		}
	}
	if err != nil {
		s.model.RemoveListener(s)
		s.mutex.Lock()
		if s.state == sessionStateConnecting {
			s.state = sessionStateIdle
		}
		s.mutex.Unlock()
		return err
	}

	s.mutex.Lock()
	if s.state == sessionStateConnecting {
		s.state = sessionStateConnected
	}
	s.mutex.Unlock()

	s.startDelivery()
	s.putEvent(RealtimeHistoryUpdatedEvent{History: s.History(), Info: s.eventInfo})
	return nil
}

// Close shuts down the session and underlying model transport. Events
// produced after Close, including the results of tools still running, are
// dropped. Calling Close more than once is a no-op.
func (s *RealtimeSession) Close(ctx context.Context) error {
	s.mutex.Lock()
	if s.state == sessionStateClosed {
		s.mutex.Unlock()
		return nil
	}
	s.state = sessionStateClosed
	s.turnActive = false
	s.mutex.Unlock()

	s.events.close()
	// Without a delivery goroutine nobody else closes the channel.
	s.deliveryOnce.Do(func() { close(s.out) })

	s.model.RemoveListener(s)
	return s.model.Close(ctx)
}

// Events returns the session event stream. The channel is closed by Close.
func (s *RealtimeSession) Events() <-chan RealtimeSessionEvent {
	s.startDelivery()
	return s.out
}

// History returns a snapshot of current session history.
func (s *RealtimeSession) History() []RealtimeItem {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.history)
}

// CurrentAgent returns the agent currently handling the conversation.
func (s *RealtimeSession) CurrentAgent() *RealtimeAgent {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.currentAgent
}

// TurnActive reports whether the model is currently producing a response.
func (s *RealtimeSession) TurnActive() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.turnActive
}

// Err returns the fatal error that halted event processing, if any.
func (s *RealtimeSession) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.err
}

// SendMessage sends a user message to the model. message is either a
// string or a RealtimeModelUserInputMessage.
func (s *RealtimeSession) SendMessage(ctx context.Context, message any) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.model.SendEvent(ctx, RealtimeModelSendUserInput{UserInput: message})
}

// SendAudio sends raw audio to the model, optionally committing the buffer.
func (s *RealtimeSession) SendAudio(ctx context.Context, audio []byte, commit bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.model.SendEvent(ctx, RealtimeModelSendAudio{Audio: audio, Commit: commit})
}

// Interrupt stops the current model response.
func (s *RealtimeSession) Interrupt(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.model.SendEvent(ctx, RealtimeModelSendInterrupt{})
}

// UpdateAgent replaces the current agent and pushes its configuration to
// the model.
func (s *RealtimeSession) UpdateAgent(ctx context.Context, agent *RealtimeAgent) error {
	if agent == nil {
		return agents.NewUserError("agent must not be nil")
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	settings, err := s.buildModelSettings(ctx, agent)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	s.currentAgent = agent
	s.mutex.Unlock()

	return s.model.SendEvent(ctx, RealtimeModelSendSessionUpdate{SessionSettings: settings})
}

func (s *RealtimeSession) checkOpen() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == sessionStateClosed {
		return agents.NewUserError("realtime session is closed")
	}
	return nil
}

func (s *RealtimeSession) buildModelSettings(ctx context.Context, agent *RealtimeAgent) (RealtimeSessionModelSettings, error) {
	return BuildModelSettingsFromAgent(ctx, agent, s.contextWrapper, s.baseSettings, RealtimeSessionModelSettings{})
}

// OnEvent implements RealtimeModelListener.
func (s *RealtimeSession) OnEvent(ctx context.Context, event RealtimeModelEvent) error {
	s.mutex.Lock()
	closed, halted := s.state == sessionStateClosed, s.err
	s.mutex.Unlock()
	if closed {
		return nil
	}
	if halted != nil {
		return halted
	}

	s.putEvent(RealtimeRawModelEvent{Data: event, Info: s.eventInfo})

	if err := s.handleEvent(ctx, event); err != nil {
		s.mutex.Lock()
		s.err = err
		s.mutex.Unlock()
		agents.Logger().Error("Realtime session halted", slog.String("error", err.Error()))
		s.putEvent(RealtimeErrorEvent{Error: err, Info: s.eventInfo})
		return err
	}
	return nil
}

func (s *RealtimeSession) handleEvent(ctx context.Context, event RealtimeModelEvent) error {
	switch e := event.(type) {
	case RealtimeModelErrorEvent:
		s.putEvent(RealtimeErrorEvent{Error: e.Error, Info: s.eventInfo})

	case RealtimeModelExceptionEvent:
		err := e.Exception
		if e.Context != "" {
			err = fmt.Errorf("%s: %w", e.Context, e.Exception)
		}
		s.putEvent(RealtimeErrorEvent{Error: err, Info: s.eventInfo})

	case RealtimeModelToolCallEvent:
		agent := s.CurrentAgent()
		if !s.asyncToolCalls {
			s.handleToolCall(ctx, e, agent)
			break
		}
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			s.handleToolCall(context.WithoutCancel(ctx), e, agent)
		}()

	case RealtimeModelAudioEvent:
		key := audioKey{itemID: e.ItemID, contentIndex: e.ContentIndex}
		s.mutex.Lock()
		_, started := s.audioStarted[key]
		s.audioStarted[key] = struct{}{}
		s.mutex.Unlock()
		if !started {
			s.putEvent(RealtimeAudioStartEvent{ItemID: e.ItemID, ContentIndex: e.ContentIndex, Info: s.eventInfo})
		}
		s.putEvent(RealtimeAudioEvent{
			Audio:        e,
			ItemID:       e.ItemID,
			ContentIndex: e.ContentIndex,
			Info:         s.eventInfo,
		})

	case RealtimeModelAudioInterruptedEvent:
		s.forgetAudio(e.ItemID, e.ContentIndex)
		s.putEvent(RealtimeAudioInterruptedEvent{ItemID: e.ItemID, ContentIndex: e.ContentIndex, Info: s.eventInfo})

	case RealtimeModelAudioDoneEvent:
		s.forgetAudio(e.ItemID, e.ContentIndex)
		s.putEvent(RealtimeAudioEndEvent{ItemID: e.ItemID, ContentIndex: e.ContentIndex, Info: s.eventInfo})

	case RealtimeModelTranscriptDeltaEvent:
		if text, turn, ok := s.debouncer.onDelta(e.ItemID, e.Delta); ok {
			s.background.Add(1)
			go func() {
				defer s.background.Done()
				s.runOutputGuardrails(context.WithoutCancel(ctx), text, turn)
			}()
		}

	case RealtimeModelInputAudioTranscriptionCompletedEvent:
		history := s.applyHistory(e)
		s.putEvent(RealtimeHistoryUpdatedEvent{History: history, Info: s.eventInfo})
		if idx := historyIndex(history, e.ItemID); idx >= 0 {
			s.persistItem(ctx, history[idx])
		}

	case RealtimeModelItemUpdatedEvent:
		if e.Item == nil {
			break
		}
		s.mutex.Lock()
		isNew := historyIndex(s.history, e.Item.GetItemID()) < 0
		s.mutex.Unlock()
		history := s.applyHistory(e)
		if isNew {
			s.putEvent(RealtimeHistoryAddedEvent{Item: e.Item, Info: s.eventInfo})
		} else {
			s.putEvent(RealtimeHistoryUpdatedEvent{History: history, Info: s.eventInfo})
		}
		s.persistItem(ctx, e.Item)

	case RealtimeModelItemDeletedEvent:
		history := s.applyHistory(e)
		s.putEvent(RealtimeHistoryUpdatedEvent{History: history, Info: s.eventInfo})

	case RealtimeModelTurnStartedEvent:
		s.mutex.Lock()
		s.turnActive = true
		agent := s.currentAgent
		s.mutex.Unlock()
		s.putEvent(RealtimeAgentStartEvent{Agent: agent, Info: s.eventInfo})

	case RealtimeModelTurnEndedEvent:
		s.debouncer.reset()
		s.mutex.Lock()
		s.turnActive = false
		agent := s.currentAgent
		s.mutex.Unlock()
		s.putEvent(RealtimeAgentEndEvent{Agent: agent, Info: s.eventInfo})

	case RealtimeModelConnectionStatusEvent:
		agents.Logger().Debug("Realtime connection status changed", slog.String("status", string(e.Status)))

	case RealtimeModelOtherEvent:

	default:
		return &UnhandledModelEventError{Event: event}
	}
	return nil
}

// applyHistory replaces the history with the result of merging event and
// returns a copy of the new snapshot that callers may hand out freely.
func (s *RealtimeSession) applyHistory(event RealtimeModelEvent) []RealtimeItem {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.history = GetNewHistory(s.history, event)
	return slices.Clone(s.history)
}

func (s *RealtimeSession) forgetAudio(itemID string, contentIndex int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.audioStarted, audioKey{itemID: itemID, contentIndex: contentIndex})
}

func (s *RealtimeSession) startDelivery() {
	s.deliveryOnce.Do(func() { go s.deliver() })
}

// deliver moves queued events to the output channel until the session closes.
func (s *RealtimeSession) deliver() {
	defer close(s.out)
	for {
		event, ok := s.events.pop()
		if !ok {
			return
		}
		select {
		case s.out <- event:
		case <-s.events.done:
			return
		}
	}
}

// putEvent enqueues event for delivery. It never blocks and drops the event
// once the session is closed.
func (s *RealtimeSession) putEvent(event RealtimeSessionEvent) {
	s.events.push(event)
}

var _ RealtimeModelListener = (*RealtimeSession)(nil)
