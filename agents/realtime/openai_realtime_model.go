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
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/openai/openai-go/v3/packages/param"
	oairealtime "github.com/openai/openai-go/v3/realtime"
	"github.com/openai/openai-go/v3/responses"
)

const (
	defaultRealtimeModelName               = "gpt-realtime"
	defaultRealtimeURL                     = "wss://api.openai.com/v1/realtime"
	defaultRealtimeVoice                   = "ash"
	defaultRealtimeAudioFormat             = "pcm16"
	defaultRealtimeInputTranscriptionModel = "gpt-4o-mini-transcribe"
	defaultRealtimeTurnDetectionType       = "semantic_vad"
)

var defaultRealtimeOutputModalities = []string{"audio"}

// OpenAIRealtimeWebSocketModel is the OpenAI Realtime API transport over a
// websocket. Server events are decoded by a reader goroutine and delivered
// to listeners, in order, by a single dispatcher goroutine.
type OpenAIRealtimeWebSocketModel struct {
	model string

	listenersMutex sync.RWMutex
	listeners      []RealtimeModelListener

	mutex                                sync.Mutex
	conn                                 RealtimeWebSocketConn
	connected                            bool
	events                               *eventQueue[RealtimeModelEvent]
	audio                                *audioTracker
	ongoingResponse                      bool
	automaticResponseCancellationEnabled bool
	createdSession                       *oairealtime.RealtimeSessionCreateRequestParam

	writeMutex sync.Mutex
}

// NewOpenAIRealtimeWebSocketModel creates a realtime transport with sane defaults.
func NewOpenAIRealtimeWebSocketModel() *OpenAIRealtimeWebSocketModel {
	return &OpenAIRealtimeWebSocketModel{
		model: defaultRealtimeModelName,
		audio: newAudioTracker(defaultRealtimeAudioFormat),
	}
}

// Connect dials the Realtime API and sends the initial session configuration.
func (m *OpenAIRealtimeWebSocketModel) Connect(ctx context.Context, options RealtimeModelConfig) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.connected {
		return errors.New("realtime model is already connected")
	}

	settings := options.InitialSettings
	if name := strings.TrimSpace(settings.ModelName.Or("")); name != "" {
		m.model = name
	}
	sessionConfig, err := m.GetSessionConfig(settings)
	if err != nil {
		return err
	}

	apiKey, err := options.ResolveAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve api key: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("api key is required but was not provided")
	}

	headers := maps.Clone(options.Headers)
	if len(headers) == 0 {
		headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}

	rawURL := options.URL
	if rawURL == "" {
		rawURL = defaultRealtimeURL + "?model=" + url.QueryEscape(m.model)
	}

	dial := options.TransportDialer
	if dial == nil {
		dial = defaultRealtimeWebSocketDialer
	}
	conn, err := dial(ctx, rawURL, headers, options.TransportConfig)
	if err != nil {
		return fmt.Errorf("failed to dial realtime websocket: %w", err)
	}

	m.conn = conn
	m.connected = true
	m.events = newEventQueue[RealtimeModelEvent]()
	m.ongoingResponse = false
	m.applySessionConfig(sessionConfig, settings)

	go m.dispatch(m.events)
	go m.listen(conn, m.events)

	m.events.push(RealtimeModelConnectionStatusEvent{Status: RealtimeConnectionStatusConnected})

	agents.Logger().Debug("Connected to realtime model", slog.String("model", m.model))
	return m.writeEvent(conn, sessionUpdateEvent(sessionConfig))
}

// AddListener registers a listener. Adding the same listener twice is a no-op.
func (m *OpenAIRealtimeWebSocketModel) AddListener(listener RealtimeModelListener) {
	m.listenersMutex.Lock()
	defer m.listenersMutex.Unlock()
	if listener == nil || slices.Contains(m.listeners, listener) {
		return
	}
	m.listeners = append(m.listeners, listener)
}

// RemoveListener unregisters a listener.
func (m *OpenAIRealtimeWebSocketModel) RemoveListener(listener RealtimeModelListener) {
	m.listenersMutex.Lock()
	defer m.listenersMutex.Unlock()
	m.listeners = slices.DeleteFunc(m.listeners, func(l RealtimeModelListener) bool {
		return l == listener
	})
}

// SendEvent converts event into Realtime API client events and writes them.
func (m *OpenAIRealtimeWebSocketModel) SendEvent(ctx context.Context, event RealtimeModelSendEvent) error {
	m.mutex.Lock()
	conn, events := m.conn, m.events
	m.mutex.Unlock()
	if conn == nil {
		return errors.New("realtime model is not connected")
	}

	switch e := event.(type) {
	case RealtimeModelSendRawMessage:
		payload := TryConvertRawMessage(e)
		if payload == nil {
			return fmt.Errorf("unsupported raw message type %q", e.Message.Type)
		}
		return m.writeEvent(conn, payload)

	case RealtimeModelSendUserInput:
		if err := m.writeEvent(conn, ConvertUserInputToItemCreate(e)); err != nil {
			return err
		}
		return m.writeEvent(conn, map[string]any{"type": "response.create"})

	case RealtimeModelSendAudio:
		if err := m.writeEvent(conn, ConvertAudioToInputAudioBufferAppend(e)); err != nil {
			return err
		}
		if e.Commit {
			return m.writeEvent(conn, map[string]any{"type": "input_audio_buffer.commit"})
		}
		return nil

	case RealtimeModelSendToolOutput:
		payload := ConvertToolOutput(e)
		if payload == nil {
			return fmt.Errorf("tool call %s has no call id", e.ToolCall.Name)
		}
		if err := m.writeEvent(conn, payload); err != nil {
			return err
		}
		output := e.Output
		events.push(RealtimeModelItemUpdatedEvent{Item: RealtimeToolCallItem{
			ItemID:         e.ToolCall.ID,
			PreviousItemID: e.ToolCall.PreviousItemID,
			CallID:         e.ToolCall.CallID,
			Status:         ItemStatusCompleted,
			Arguments:      e.ToolCall.Arguments,
			Name:           e.ToolCall.Name,
			Output:         &output,
		}})
		if e.StartResponse {
			return m.writeEvent(conn, map[string]any{"type": "response.create"})
		}
		return nil

	case RealtimeModelSendInterrupt:
		return m.interrupt(conn, events, e.ForceResponseCancel)

	case RealtimeModelSendSessionUpdate:
		sessionConfig, err := m.GetSessionConfig(e.SessionSettings)
		if err != nil {
			return err
		}
		m.mutex.Lock()
		m.applySessionConfig(sessionConfig, e.SessionSettings)
		m.mutex.Unlock()
		return m.writeEvent(conn, sessionUpdateEvent(sessionConfig))

	default:
		return fmt.Errorf("unsupported realtime send event %T", event)
	}
}

// Close closes the websocket. Pending events are dropped. Calling Close more
// than once is a no-op.
func (m *OpenAIRealtimeWebSocketModel) Close(context.Context) error {
	m.mutex.Lock()
	conn, events := m.conn, m.events
	m.conn = nil
	m.connected = false
	m.mutex.Unlock()
	if conn == nil {
		return nil
	}

	events.close()
	err := conn.Close()
	m.audio.reset()
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to close realtime websocket: %w", err)
	}
	return nil
}

// CreatedSession returns the session configuration last sent to the server.
func (m *OpenAIRealtimeWebSocketModel) CreatedSession() *oairealtime.RealtimeSessionCreateRequestParam {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.createdSession
}

// applySessionConfig records the configuration last sent to the server.
// The caller holds m.mutex.
func (m *OpenAIRealtimeWebSocketModel) applySessionConfig(
	session *oairealtime.RealtimeSessionCreateRequestParam,
	settings RealtimeSessionModelSettings,
) {
	m.createdSession = session
	m.automaticResponseCancellationEnabled = isAutomaticResponseCancellationEnabled(session)
	m.audio.setFormat(settings.OutputAudioFormat.Or(defaultRealtimeAudioFormat))
}

func (m *OpenAIRealtimeWebSocketModel) writeEvent(conn RealtimeWebSocketConn, payload map[string]any) error {
	if _, ok := payload["event_id"]; !ok {
		payload["event_id"] = uuid.NewString()
	}
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()
	if err := conn.WriteJSON(payload); err != nil {
		return fmt.Errorf("failed to send %v event: %w", payload["type"], err)
	}
	return nil
}

// interrupt truncates the audio being played and optionally cancels the
// ongoing response.
func (m *OpenAIRealtimeWebSocketModel) interrupt(
	conn RealtimeWebSocketConn,
	events *eventQueue[RealtimeModelEvent],
	forceCancel bool,
) error {
	if itemID, contentIndex, elapsedMS, ok := m.audio.playbackPosition(); ok {
		events.push(RealtimeModelAudioInterruptedEvent{ItemID: itemID, ContentIndex: contentIndex})
		m.audio.reset()
		if err := m.writeEvent(conn, ConvertInterrupt(itemID, contentIndex, elapsedMS)); err != nil {
			return err
		}
	}

	m.mutex.Lock()
	cancel := forceCancel || (m.ongoingResponse && !m.automaticResponseCancellationEnabled)
	if cancel {
		m.ongoingResponse = false
	}
	m.mutex.Unlock()
	if cancel {
		return m.writeEvent(conn, map[string]any{"type": "response.cancel"})
	}
	return nil
}

func (m *OpenAIRealtimeWebSocketModel) dispatch(events *eventQueue[RealtimeModelEvent]) {
	ctx := context.Background()
	for {
		event, ok := events.pop()
		if !ok {
			return
		}
		m.listenersMutex.RLock()
		listeners := slices.Clone(m.listeners)
		m.listenersMutex.RUnlock()
		for _, listener := range listeners {
			if err := listener.OnEvent(ctx, event); err != nil {
				agents.Logger().Debug("Realtime listener failed",
					slog.String("event", event.Type()),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (m *OpenAIRealtimeWebSocketModel) listen(conn RealtimeWebSocketConn, events *eventQueue[RealtimeModelEvent]) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				events.push(RealtimeModelExceptionEvent{
					Exception: err,
					Context:   "websocket error in message listener",
				})
			}
			events.push(RealtimeModelConnectionStatusEvent{Status: RealtimeConnectionStatusDisconnected})
			return
		}

		var event map[string]any
		if err := json.Unmarshal(payload, &event); err != nil {
			events.push(RealtimeModelErrorEvent{Error: fmt.Errorf("invalid server event: %w", err)})
			continue
		}
		m.handleServerEvent(conn, events, event)
	}
}

func (m *OpenAIRealtimeWebSocketModel) handleServerEvent(
	conn RealtimeWebSocketConn,
	events *eventQueue[RealtimeModelEvent],
	event map[string]any,
) {
	eventType, _ := stringField(event, "type")
	itemID, _ := stringField(event, "item_id")
	contentIndex, _ := intField(event, "content_index")
	responseID, _ := stringField(event, "response_id")

	switch eventType {
	case "error":
		events.push(RealtimeModelErrorEvent{Error: event["error"]})

	case "response.output_audio.delta", "response.audio.delta":
		delta, _ := stringField(event, "delta")
		data, err := base64.StdEncoding.DecodeString(delta)
		if err != nil {
			events.push(RealtimeModelErrorEvent{Error: fmt.Errorf("invalid audio delta: %w", err)})
			return
		}
		m.audio.onAudioDelta(itemID, contentIndex, len(data))
		events.push(RealtimeModelAudioEvent{
			Data:         data,
			ResponseID:   responseID,
			ItemID:       itemID,
			ContentIndex: contentIndex,
		})

	case "response.output_audio.done", "response.audio.done":
		events.push(RealtimeModelAudioDoneEvent{ItemID: itemID, ContentIndex: contentIndex})

	case "response.output_audio_transcript.delta", "response.audio_transcript.delta":
		delta, _ := stringField(event, "delta")
		events.push(RealtimeModelTranscriptDeltaEvent{ItemID: itemID, Delta: delta, ResponseID: responseID})

	case "conversation.item.input_audio_transcription.completed":
		transcript, _ := stringField(event, "transcript")
		events.push(RealtimeModelInputAudioTranscriptionCompletedEvent{ItemID: itemID, Transcript: transcript})

	case "conversation.item.created", "conversation.item.added":
		m.pushServerItem(events, event, ItemStatusInProgress)

	case "conversation.item.retrieved", "conversation.item.done":
		m.pushServerItem(events, event, ItemStatusCompleted)

	case "conversation.item.deleted":
		events.push(RealtimeModelItemDeletedEvent{ItemID: itemID})

	case "response.created":
		m.setOngoingResponse(true)
		events.push(RealtimeModelTurnStartedEvent{})

	case "response.done":
		m.setOngoingResponse(false)
		events.push(RealtimeModelTurnEndedEvent{})

	case "response.output_item.added", "response.output_item.done":
		m.handleOutputItem(events, event, eventType == "response.output_item.done")

	case "input_audio_buffer.speech_started":
		m.mutex.Lock()
		autoCancel := m.automaticResponseCancellationEnabled
		m.mutex.Unlock()
		// The server cancels the response itself when turn detection interrupts.
		if err := m.interrupt(conn, events, false); err != nil && !autoCancel {
			events.push(RealtimeModelExceptionEvent{Exception: err, Context: "failed to interrupt on speech start"})
		}

	default:
		events.push(RealtimeModelOtherEvent{Data: event})
	}
}

func (m *OpenAIRealtimeWebSocketModel) pushServerItem(
	events *eventQueue[RealtimeModelEvent],
	event map[string]any,
	defaultStatus string,
) {
	raw, ok := toStringAnyMap(event["item"])
	if !ok {
		events.push(RealtimeModelErrorEvent{Error: fmt.Errorf("missing required field item in %v", event["type"])})
		return
	}
	if _, ok := raw["previous_item_id"]; !ok {
		if previous, ok := stringField(event, "previous_item_id"); ok {
			raw = maps.Clone(raw)
			raw["previous_item_id"] = previous
		}
	}
	item, err := ParseServerItem(raw, defaultStatus)
	if err != nil {
		// Items such as function_call_output have no history representation.
		events.push(RealtimeModelOtherEvent{Data: event})
		return
	}
	events.push(RealtimeModelItemUpdatedEvent{Item: item})
}

func (m *OpenAIRealtimeWebSocketModel) handleOutputItem(
	events *eventQueue[RealtimeModelEvent],
	event map[string]any,
	isDone bool,
) {
	raw, ok := toStringAnyMap(event["item"])
	if !ok {
		events.push(RealtimeModelErrorEvent{Error: fmt.Errorf("missing required field item in %v", event["type"])})
		return
	}
	defaultStatus := ItemStatusInProgress
	if isDone {
		defaultStatus = ItemStatusCompleted
	}
	item, err := ParseServerItem(raw, defaultStatus)
	if err != nil {
		events.push(RealtimeModelErrorEvent{Error: err})
		return
	}
	events.push(RealtimeModelItemUpdatedEvent{Item: item})

	if call, ok := item.(RealtimeToolCallItem); ok && isDone {
		events.push(RealtimeModelToolCallEvent{
			Name:           call.Name,
			CallID:         call.CallID,
			Arguments:      call.Arguments,
			ID:             call.ItemID,
			PreviousItemID: call.PreviousItemID,
		})
	}
}

func (m *OpenAIRealtimeWebSocketModel) setOngoingResponse(ongoing bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.ongoingResponse = ongoing
}

// GetSessionConfig builds the session configuration sent with session.update.
func (m *OpenAIRealtimeWebSocketModel) GetSessionConfig(
	settings RealtimeSessionModelSettings,
) (*oairealtime.RealtimeSessionCreateRequestParam, error) {
	var audioInput oairealtime.RealtimeAudioConfigInputParam
	var audioOutput oairealtime.RealtimeAudioConfigOutputParam

	if format := ToRealtimeAudioFormat(settings.InputAudioFormat.Or(defaultRealtimeAudioFormat)); format != nil {
		audioInput.Format = *format
	}
	if format := ToRealtimeAudioFormat(settings.OutputAudioFormat.Or(defaultRealtimeAudioFormat)); format != nil {
		audioOutput.Format = *format
	}

	transcription := settings.InputAudioTranscription
	if transcription == nil {
		transcription = &RealtimeInputAudioTranscriptionConfig{
			Model: param.NewOpt(defaultRealtimeInputTranscriptionModel),
		}
	}
	audioInput.Transcription = oairealtime.AudioTranscriptionParam{
		Model:    oairealtime.AudioTranscriptionModel(transcription.Model.Or(defaultRealtimeInputTranscriptionModel)),
		Language: transcription.Language,
		Prompt:   transcription.Prompt,
	}

	turnDetection := settings.TurnDetection
	if turnDetection == nil {
		turnDetection = &RealtimeTurnDetectionConfig{
			Type:              param.NewOpt(defaultRealtimeTurnDetectionType),
			InterruptResponse: param.NewOpt(true),
		}
	}
	td, err := toTurnDetectionParam(turnDetection)
	if err != nil {
		return nil, err
	}
	audioInput.TurnDetection = td

	audioOutput.Voice = oairealtime.RealtimeAudioConfigOutputVoice(
		cmp.Or(strings.TrimSpace(settings.Voice.Or("")), defaultRealtimeVoice))

	outputModalities := settings.Modalities
	if len(outputModalities) == 0 {
		outputModalities = slices.Clone(defaultRealtimeOutputModalities)
	}

	tools, err := toolsToSessionTools(settings.Tools)
	if err != nil {
		return nil, err
	}

	session := &oairealtime.RealtimeSessionCreateRequestParam{
		Type:             "realtime",
		Model:            oairealtime.RealtimeSessionCreateRequestModel(cmp.Or(settings.ModelName.Or(""), m.model, defaultRealtimeModelName)),
		OutputModalities: outputModalities,
		Audio: oairealtime.RealtimeAudioConfigParam{
			Input:  audioInput,
			Output: audioOutput,
		},
		Tools: tools,
	}
	if settings.Instructions.Valid() {
		session.Instructions = param.NewOpt(settings.Instructions.Value)
	}
	if toolChoice := strings.TrimSpace(settings.ToolChoice.Or("")); toolChoice != "" {
		session.ToolChoice = oairealtime.RealtimeToolChoiceConfigUnionParam{
			OfToolChoiceMode: param.NewOpt(responses.ToolChoiceOptions(toolChoice)),
		}
	}
	return session, nil
}

func toolsToSessionTools(tools []agents.Tool) (oairealtime.RealtimeToolsConfigParam, error) {
	converted := make(oairealtime.RealtimeToolsConfigParam, 0, len(tools))
	for _, tool := range tools {
		var name, description string
		var parameters map[string]any
		switch t := tool.(type) {
		case agents.FunctionTool:
			name, description, parameters = t.Name, t.Description, t.ParamsJSONSchema
		case agents.Handoff:
			name, description, parameters = t.ToolName, t.ToolDescription, t.InputJSONSchema
		default:
			return nil, agents.UserErrorf("tool %T is unsupported: realtime only supports function tools and handoffs", tool)
		}
		converted = append(converted, oairealtime.RealtimeToolsConfigUnionParam{
			OfFunction: &oairealtime.RealtimeFunctionToolParam{
				Name:        param.NewOpt(name),
				Description: param.NewOpt(description),
				Parameters:  parameters,
				Type:        "function",
			},
		})
	}
	return converted, nil
}

func toTurnDetectionParam(
	config *RealtimeTurnDetectionConfig,
) (oairealtime.RealtimeAudioInputTurnDetectionUnionParam, error) {
	switch tdType := config.Type.Or(defaultRealtimeTurnDetectionType); tdType {
	case "semantic_vad":
		semantic := oairealtime.RealtimeAudioInputTurnDetectionSemanticVadParam{
			Type:              "semantic_vad",
			CreateResponse:    config.CreateResponse,
			InterruptResponse: config.InterruptResponse,
		}
		if config.Eagerness.Valid() {
			semantic.Eagerness = config.Eagerness.Value
		}
		return oairealtime.RealtimeAudioInputTurnDetectionUnionParam{OfSemanticVad: &semantic}, nil
	case "server_vad":
		server := oairealtime.RealtimeAudioInputTurnDetectionServerVadParam{
			Type:              "server_vad",
			CreateResponse:    config.CreateResponse,
			InterruptResponse: config.InterruptResponse,
			Threshold:         config.Threshold,
		}
		if config.PrefixPaddingMS.Valid() {
			server.PrefixPaddingMs = param.NewOpt(int64(config.PrefixPaddingMS.Value))
		}
		if config.SilenceDurationMS.Valid() {
			server.SilenceDurationMs = param.NewOpt(int64(config.SilenceDurationMS.Value))
		}
		return oairealtime.RealtimeAudioInputTurnDetectionUnionParam{OfServerVad: &server}, nil
	default:
		return oairealtime.RealtimeAudioInputTurnDetectionUnionParam{},
			agents.UserErrorf("unsupported turn detection type %q", tdType)
	}
}

func isAutomaticResponseCancellationEnabled(session *oairealtime.RealtimeSessionCreateRequestParam) bool {
	if session == nil {
		return false
	}
	turnDetection := session.Audio.Input.TurnDetection
	switch {
	case turnDetection.OfSemanticVad != nil:
		return turnDetection.OfSemanticVad.InterruptResponse.Or(false)
	case turnDetection.OfServerVad != nil:
		return turnDetection.OfServerVad.InterruptResponse.Or(false)
	default:
		return false
	}
}

func sessionUpdateEvent(session *oairealtime.RealtimeSessionCreateRequestParam) map[string]any {
	return map[string]any{
		"type":    "session.update",
		"session": sessionConfigToMap(session),
	}
}

func sessionConfigToMap(session *oairealtime.RealtimeSessionCreateRequestParam) map[string]any {
	raw, err := json.Marshal(session)
	if err != nil {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return payload
}

func defaultRealtimeWebSocketDialer(
	ctx context.Context,
	rawURL string,
	headers map[string]string,
	config RealtimeTransportConfig,
) (RealtimeWebSocketConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout}
	httpHeaders := make(http.Header, len(headers))
	for key, value := range headers {
		httpHeaders.Set(key, value)
	}
	conn, resp, err := dialer.DialContext(ctx, rawURL, httpHeaders)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

var _ RealtimeModel = (*OpenAIRealtimeWebSocketModel)(nil)
