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
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/gorilla/websocket"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWebSocketConn struct {
	mu       sync.Mutex
	written  []map[string]any
	incoming chan []byte
	readErr  chan error
	closed   chan struct{}
	once     sync.Once
}

func newFakeWebSocketConn() *fakeWebSocketConn {
	return &fakeWebSocketConn{
		incoming: make(chan []byte, 16),
		readErr:  make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (c *fakeWebSocketConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.incoming:
		return websocket.TextMessage, data, nil
	case err := <-c.readErr:
		return 0, nil, err
	case <-c.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (c *fakeWebSocketConn) WriteJSON(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, payload)
	return nil
}

func (c *fakeWebSocketConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeWebSocketConn) serverSends(t *testing.T, event map[string]any) {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	c.incoming <- raw
}

func (c *fakeWebSocketConn) writes() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, len(c.written))
	copy(out, c.written)
	return out
}

func (c *fakeWebSocketConn) writtenTypes() []string {
	var types []string
	for _, payload := range c.writes() {
		eventType, _ := payload["type"].(string)
		types = append(types, eventType)
	}
	return types
}

type modelEventRecorder struct {
	events chan RealtimeModelEvent
}

func newModelEventRecorder() *modelEventRecorder {
	return &modelEventRecorder{events: make(chan RealtimeModelEvent, 64)}
}

func (r *modelEventRecorder) OnEvent(_ context.Context, event RealtimeModelEvent) error {
	r.events <- event
	return nil
}

func (r *modelEventRecorder) next(t *testing.T) RealtimeModelEvent {
	t.Helper()
	select {
	case event := <-r.events:
		return event
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for a model event")
		return nil
	}
}

type dialCall struct {
	url     string
	headers map[string]string
}

func connectFakeModel(t *testing.T, cfg RealtimeModelConfig) (*OpenAIRealtimeWebSocketModel, *fakeWebSocketConn, *modelEventRecorder, *dialCall) {
	t.Helper()
	conn := newFakeWebSocketConn()
	call := &dialCall{}
	if cfg.APIKey == "" && cfg.APIKeyProvider == nil {
		cfg.APIKey = "sk-test"
	}
	cfg.TransportDialer = func(_ context.Context, url string, headers map[string]string, _ RealtimeTransportConfig) (RealtimeWebSocketConn, error) {
		call.url, call.headers = url, headers
		return conn, nil
	}

	model := NewOpenAIRealtimeWebSocketModel()
	recorder := newModelEventRecorder()
	model.AddListener(recorder)
	require.NoError(t, model.Connect(t.Context(), cfg))
	t.Cleanup(func() { _ = model.Close(context.Background()) })

	status, ok := recorder.next(t).(RealtimeModelConnectionStatusEvent)
	require.True(t, ok)
	assert.Equal(t, RealtimeConnectionStatusConnected, status.Status)
	return model, conn, recorder, call
}

func TestOpenAIRealtimeModelConnectSendsSessionUpdate(t *testing.T) {
	_, conn, _, call := connectFakeModel(t, RealtimeModelConfig{
		InitialSettings: RealtimeSessionModelSettings{
			ModelName:    param.NewOpt("gpt-realtime-mini"),
			Instructions: param.NewOpt("Be kind."),
		},
	})

	assert.Equal(t, "wss://api.openai.com/v1/realtime?model=gpt-realtime-mini", call.url)
	assert.Equal(t, map[string]string{"Authorization": "Bearer sk-test"}, call.headers)

	writes := conn.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "session.update", writes[0]["type"])
	assert.NotEmpty(t, writes[0]["event_id"])
	session, ok := writes[0]["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "realtime", session["type"])
	assert.Equal(t, "gpt-realtime-mini", session["model"])
	assert.Equal(t, "Be kind.", session["instructions"])
}

func TestOpenAIRealtimeModelConnectUsesCustomURLAndHeaders(t *testing.T) {
	_, _, _, call := connectFakeModel(t, RealtimeModelConfig{
		URL:     "wss://proxy.example.com/realtime",
		Headers: map[string]string{"api-key": "azure"},
		APIKeyProvider: func(context.Context) (string, error) {
			return "sk-provided", nil
		},
	})
	assert.Equal(t, "wss://proxy.example.com/realtime", call.url)
	assert.Equal(t, map[string]string{"api-key": "azure"}, call.headers)
}

func TestOpenAIRealtimeModelConnectRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	model := NewOpenAIRealtimeWebSocketModel()
	err := model.Connect(t.Context(), RealtimeModelConfig{
		TransportDialer: func(context.Context, string, map[string]string, RealtimeTransportConfig) (RealtimeWebSocketConn, error) {
			t.Fatal("dialer must not be called without an api key")
			return nil, nil
		},
	})
	assert.ErrorContains(t, err, "api key is required")
}

func TestOpenAIRealtimeModelConnectDialFailure(t *testing.T) {
	model := NewOpenAIRealtimeWebSocketModel()
	err := model.Connect(t.Context(), RealtimeModelConfig{
		APIKey: "sk-test",
		TransportDialer: func(context.Context, string, map[string]string, RealtimeTransportConfig) (RealtimeWebSocketConn, error) {
			return nil, errors.New("connection refused")
		},
	})
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, model.SendEvent(t.Context(), RealtimeModelSendInterrupt{}))
}

func TestOpenAIRealtimeModelConnectTwiceFails(t *testing.T) {
	model, _, _, _ := connectFakeModel(t, RealtimeModelConfig{})
	err := model.Connect(t.Context(), RealtimeModelConfig{APIKey: "sk-test"})
	assert.ErrorContains(t, err, "already connected")
}

func TestOpenAIRealtimeModelMapsServerEvents(t *testing.T) {
	_, conn, recorder, _ := connectFakeModel(t, RealtimeModelConfig{})

	conn.serverSends(t, map[string]any{"type": "response.created", "response": map[string]any{"id": "resp_1"}})
	assert.Equal(t, RealtimeModelTurnStartedEvent{}, recorder.next(t))

	conn.serverSends(t, map[string]any{
		"type":          "response.output_audio.delta",
		"response_id":   "resp_1",
		"item_id":       "item_1",
		"content_index": 0,
		"delta":         base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4}),
	})
	assert.Equal(t, RealtimeModelAudioEvent{
		Data: []byte{1, 2, 3, 4}, ResponseID: "resp_1", ItemID: "item_1", ContentIndex: 0,
	}, recorder.next(t))

	conn.serverSends(t, map[string]any{
		"type": "response.output_audio_transcript.delta", "item_id": "item_1", "response_id": "resp_1", "delta": "Hel",
	})
	assert.Equal(t, RealtimeModelTranscriptDeltaEvent{ItemID: "item_1", Delta: "Hel", ResponseID: "resp_1"}, recorder.next(t))

	conn.serverSends(t, map[string]any{"type": "response.output_audio.done", "item_id": "item_1", "content_index": 0})
	assert.Equal(t, RealtimeModelAudioDoneEvent{ItemID: "item_1"}, recorder.next(t))

	conn.serverSends(t, map[string]any{
		"type":             "conversation.item.added",
		"previous_item_id": "item_0",
		"item": map[string]any{
			"id": "item_u", "type": "message", "role": "user",
			"content": []any{map[string]any{"type": "input_audio"}},
		},
	})
	added, ok := recorder.next(t).(RealtimeModelItemUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, RealtimeMessageItem{
		ItemID: "item_u", PreviousItemID: "item_0", Role: "user", Status: ItemStatusInProgress,
		Content: []RealtimeMessageContent{{Type: ContentTypeInputAudio}},
	}, added.Item)

	conn.serverSends(t, map[string]any{
		"type": "conversation.item.input_audio_transcription.completed", "item_id": "item_u", "transcript": "hi",
	})
	assert.Equal(t, RealtimeModelInputAudioTranscriptionCompletedEvent{ItemID: "item_u", Transcript: "hi"}, recorder.next(t))

	conn.serverSends(t, map[string]any{"type": "conversation.item.deleted", "item_id": "item_u"})
	assert.Equal(t, RealtimeModelItemDeletedEvent{ItemID: "item_u"}, recorder.next(t))

	conn.serverSends(t, map[string]any{"type": "response.done"})
	assert.Equal(t, RealtimeModelTurnEndedEvent{}, recorder.next(t))

	conn.serverSends(t, map[string]any{"type": "error", "error": map[string]any{"message": "bad"}})
	assert.Equal(t, RealtimeModelErrorEvent{Error: map[string]any{"message": "bad"}}, recorder.next(t))

	conn.serverSends(t, map[string]any{"type": "rate_limits.updated"})
	other, ok := recorder.next(t).(RealtimeModelOtherEvent)
	require.True(t, ok)
	assert.Equal(t, "rate_limits.updated", other.Data.(map[string]any)["type"])

	conn.incoming <- []byte("not json")
	assert.IsType(t, RealtimeModelErrorEvent{}, recorder.next(t))
}

func TestOpenAIRealtimeModelFunctionCallOutputItem(t *testing.T) {
	_, conn, recorder, _ := connectFakeModel(t, RealtimeModelConfig{})

	item := map[string]any{
		"id": "fc_1", "type": "function_call", "call_id": "call_1", "name": "get_weather",
		"arguments": `{"city":"Paris"}`, "previous_item_id": "item_0",
	}
	conn.serverSends(t, map[string]any{"type": "response.output_item.added", "item": item})
	updated := recorder.next(t).(RealtimeModelItemUpdatedEvent)
	assert.Equal(t, ItemStatusInProgress, updated.Item.(RealtimeToolCallItem).Status)

	conn.serverSends(t, map[string]any{"type": "response.output_item.done", "item": item})
	updated = recorder.next(t).(RealtimeModelItemUpdatedEvent)
	assert.Equal(t, ItemStatusCompleted, updated.Item.(RealtimeToolCallItem).Status)
	assert.Equal(t, RealtimeModelToolCallEvent{
		Name: "get_weather", CallID: "call_1", Arguments: `{"city":"Paris"}`, ID: "fc_1", PreviousItemID: "item_0",
	}, recorder.next(t))
}

func TestOpenAIRealtimeModelSendEvents(t *testing.T) {
	model, conn, _, _ := connectFakeModel(t, RealtimeModelConfig{})

	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendUserInput{UserInput: "hello"}))
	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendAudio{Audio: []byte{9}, Commit: true}))
	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendAudio{Audio: []byte{9}}))
	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendRawMessage{
		Message: RealtimeModelRawClientMessage{Type: "input_audio_buffer.clear"},
	}))
	assert.Error(t, model.SendEvent(t.Context(), RealtimeModelSendRawMessage{
		Message: RealtimeModelRawClientMessage{Type: "bogus"},
	}))

	assert.Equal(t, []string{
		"session.update",
		"conversation.item.create", "response.create",
		"input_audio_buffer.append", "input_audio_buffer.commit",
		"input_audio_buffer.append",
		"input_audio_buffer.clear",
	}, conn.writtenTypes())

	ids := map[any]bool{}
	for _, payload := range conn.writes() {
		ids[payload["event_id"]] = true
	}
	assert.Len(t, ids, len(conn.writes()), "every client event gets its own id")
}

func TestOpenAIRealtimeModelToolOutput(t *testing.T) {
	model, conn, recorder, _ := connectFakeModel(t, RealtimeModelConfig{})

	call := RealtimeModelToolCallEvent{Name: "get_weather", CallID: "call_1", Arguments: "{}", ID: "fc_1"}
	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendToolOutput{
		ToolCall: call, Output: "sunny", StartResponse: true,
	}))

	writes := conn.writes()
	require.Len(t, writes, 3)
	assert.Equal(t, map[string]any{"type": "function_call_output", "call_id": "call_1", "output": "sunny"}, writes[1]["item"])
	assert.Equal(t, "response.create", writes[2]["type"])

	updated, ok := recorder.next(t).(RealtimeModelItemUpdatedEvent)
	require.True(t, ok)
	toolItem := updated.Item.(RealtimeToolCallItem)
	assert.Equal(t, "fc_1", toolItem.ItemID)
	require.NotNil(t, toolItem.Output)
	assert.Equal(t, "sunny", *toolItem.Output)

	assert.Error(t, model.SendEvent(t.Context(), RealtimeModelSendToolOutput{Output: "orphan"}))
}

func TestOpenAIRealtimeModelInterruptTruncatesAudio(t *testing.T) {
	model, conn, recorder, _ := connectFakeModel(t, RealtimeModelConfig{})

	conn.serverSends(t, map[string]any{
		"type": "response.output_audio.delta", "item_id": "item_1", "content_index": 0,
		"delta": base64.StdEncoding.EncodeToString(make([]byte, 4800)),
	})
	require.IsType(t, RealtimeModelAudioEvent{}, recorder.next(t))

	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendInterrupt{ForceResponseCancel: true}))
	assert.Equal(t, RealtimeModelAudioInterruptedEvent{ItemID: "item_1"}, recorder.next(t))

	writes := conn.writes()
	require.Len(t, writes, 3)
	assert.Equal(t, "conversation.item.truncate", writes[1]["type"])
	assert.Equal(t, "item_1", writes[1]["item_id"])
	assert.LessOrEqual(t, writes[1]["audio_end_ms"], float64(100))
	assert.Equal(t, "response.cancel", writes[2]["type"])

	// Nothing left to truncate, and no forced cancel.
	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendInterrupt{}))
	assert.Len(t, conn.writes(), 3)
}

func TestOpenAIRealtimeModelSpeechStartedInterrupts(t *testing.T) {
	_, conn, recorder, _ := connectFakeModel(t, RealtimeModelConfig{InitialSettings: RealtimeSessionModelSettings{
		TurnDetection: &RealtimeTurnDetectionConfig{Type: param.NewOpt("server_vad")},
	}})

	conn.serverSends(t, map[string]any{"type": "response.created"})
	require.IsType(t, RealtimeModelTurnStartedEvent{}, recorder.next(t))
	conn.serverSends(t, map[string]any{
		"type": "response.output_audio.delta", "item_id": "item_1", "content_index": 0,
		"delta": base64.StdEncoding.EncodeToString(make([]byte, 480)),
	})
	require.IsType(t, RealtimeModelAudioEvent{}, recorder.next(t))

	conn.serverSends(t, map[string]any{"type": "input_audio_buffer.speech_started"})
	assert.Equal(t, RealtimeModelAudioInterruptedEvent{ItemID: "item_1"}, recorder.next(t))

	require.Eventually(t, func() bool {
		return len(conn.writes()) == 3
	}, time.Second, 5*time.Millisecond)
	// Without interrupt_response the client cancels the ongoing response.
	assert.Equal(t, []string{"session.update", "conversation.item.truncate", "response.cancel"}, conn.writtenTypes())
}

func TestOpenAIRealtimeModelSpeechStartedWithServerCancellation(t *testing.T) {
	_, conn, recorder, _ := connectFakeModel(t, RealtimeModelConfig{})

	conn.serverSends(t, map[string]any{"type": "response.created"})
	require.IsType(t, RealtimeModelTurnStartedEvent{}, recorder.next(t))
	conn.serverSends(t, map[string]any{"type": "input_audio_buffer.speech_started"})
	conn.serverSends(t, map[string]any{"type": "response.done"})
	require.IsType(t, RealtimeModelTurnEndedEvent{}, recorder.next(t))

	assert.Equal(t, []string{"session.update"}, conn.writtenTypes())
}

func TestOpenAIRealtimeModelSessionUpdate(t *testing.T) {
	model, conn, _, _ := connectFakeModel(t, RealtimeModelConfig{})

	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendSessionUpdate{SessionSettings: RealtimeSessionModelSettings{
		Voice:             param.NewOpt("verse"),
		OutputAudioFormat: param.NewOpt("g711_ulaw"),
	}}))
	writes := conn.writes()
	require.Len(t, writes, 2)
	session := writes[1]["session"].(map[string]any)
	output := session["audio"].(map[string]any)["output"].(map[string]any)
	assert.Equal(t, "verse", output["voice"])
	assert.Equal(t, "audio/pcmu", output["format"].(map[string]any)["type"])
	assert.EqualValues(t, "verse", model.CreatedSession().Audio.Output.Voice)

	err := model.SendEvent(t.Context(), RealtimeModelSendSessionUpdate{SessionSettings: RealtimeSessionModelSettings{
		TurnDetection: &RealtimeTurnDetectionConfig{Type: param.NewOpt("magic_vad")},
	}})
	assert.True(t, agents.IsUserError(err))
}

func TestOpenAIRealtimeModelReadErrorDisconnects(t *testing.T) {
	_, conn, recorder, _ := connectFakeModel(t, RealtimeModelConfig{})

	conn.readErr <- errors.New("connection reset")
	exception, ok := recorder.next(t).(RealtimeModelExceptionEvent)
	require.True(t, ok)
	assert.ErrorContains(t, exception.Exception, "connection reset")
	assert.Equal(t, RealtimeModelConnectionStatusEvent{Status: RealtimeConnectionStatusDisconnected}, recorder.next(t))
}

func TestOpenAIRealtimeModelCloseIsIdempotent(t *testing.T) {
	model, _, _, _ := connectFakeModel(t, RealtimeModelConfig{})

	require.NoError(t, model.Close(t.Context()))
	require.NoError(t, model.Close(t.Context()))
	assert.ErrorContains(t, model.SendEvent(t.Context(), RealtimeModelSendUserInput{UserInput: "hi"}), "not connected")
}

func TestOpenAIRealtimeModelListenersAreDeduplicated(t *testing.T) {
	model := NewOpenAIRealtimeWebSocketModel()
	recorder := newModelEventRecorder()
	model.AddListener(recorder)
	model.AddListener(recorder)
	assert.Len(t, model.listeners, 1)
	model.RemoveListener(recorder)
	assert.Empty(t, model.listeners)
}

func TestGetSessionConfigDefaults(t *testing.T) {
	model := NewOpenAIRealtimeWebSocketModel()
	session, err := model.GetSessionConfig(RealtimeSessionModelSettings{})
	require.NoError(t, err)

	assert.EqualValues(t, "gpt-realtime", session.Model)
	assert.Equal(t, []string{"audio"}, session.OutputModalities)
	assert.EqualValues(t, "ash", session.Audio.Output.Voice)
	require.NotNil(t, session.Audio.Input.Format.OfAudioPCM)
	require.NotNil(t, session.Audio.Output.Format.OfAudioPCM)
	assert.EqualValues(t, "gpt-4o-mini-transcribe", session.Audio.Input.Transcription.Model)
	require.NotNil(t, session.Audio.Input.TurnDetection.OfSemanticVad)
	assert.True(t, session.Audio.Input.TurnDetection.OfSemanticVad.InterruptResponse.Value)
	assert.False(t, session.Instructions.Valid())
	assert.Empty(t, session.Tools)
	assert.True(t, isAutomaticResponseCancellationEnabled(session))
}

func TestGetSessionConfigFromSettings(t *testing.T) {
	tool := agents.NewFunctionTool("lookup", "Look things up.", func(context.Context, struct {
		Query string `json:"query"`
	}) (string, error) {
		return "", nil
	})
	handoff := RealtimeHandoff(&RealtimeAgent{Name: "billing"}, RealtimeHandoffParams{})

	session, err := NewOpenAIRealtimeWebSocketModel().GetSessionConfig(RealtimeSessionModelSettings{
		ModelName:    param.NewOpt("gpt-realtime-mini"),
		Instructions: param.NewOpt("Be brief."),
		Modalities:   []string{"text"},
		ToolChoice:   param.NewOpt("required"),
		InputAudioTranscription: &RealtimeInputAudioTranscriptionConfig{
			Model:    param.NewOpt("whisper-1"),
			Language: param.NewOpt("en"),
		},
		TurnDetection: &RealtimeTurnDetectionConfig{
			Type:              param.NewOpt("server_vad"),
			Threshold:         param.NewOpt(0.7),
			SilenceDurationMS: param.NewOpt(300),
		},
		Tools: []agents.Tool{tool, handoff},
	})
	require.NoError(t, err)

	assert.EqualValues(t, "gpt-realtime-mini", session.Model)
	assert.Equal(t, "Be brief.", session.Instructions.Value)
	assert.Equal(t, []string{"text"}, session.OutputModalities)
	assert.EqualValues(t, "required", session.ToolChoice.OfToolChoiceMode.Value)
	assert.EqualValues(t, "whisper-1", session.Audio.Input.Transcription.Model)
	assert.Equal(t, "en", session.Audio.Input.Transcription.Language.Value)

	serverVad := session.Audio.Input.TurnDetection.OfServerVad
	require.NotNil(t, serverVad)
	assert.Equal(t, 0.7, serverVad.Threshold.Value)
	assert.EqualValues(t, 300, serverVad.SilenceDurationMs.Value)
	assert.False(t, isAutomaticResponseCancellationEnabled(session))

	require.Len(t, session.Tools, 2)
	assert.Equal(t, "lookup", session.Tools[0].OfFunction.Name.Value)
	assert.Equal(t, "Look things up.", session.Tools[0].OfFunction.Description.Value)
	assert.Contains(t, session.Tools[0].OfFunction.Parameters, "properties")
	assert.Equal(t, "transfer_to_billing", session.Tools[1].OfFunction.Name.Value)
}

func TestOpenAIRealtimeModelOverWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan map[string]any, 4)
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sessionUpdate map[string]any
		if err := conn.ReadJSON(&sessionUpdate); err != nil {
			return
		}
		received <- sessionUpdate
		_ = conn.WriteJSON(map[string]any{"type": "session.updated"})
		_ = conn.WriteJSON(map[string]any{"type": "response.created"})

		var userInput map[string]any
		for conn.ReadJSON(&userInput) == nil {
			received <- userInput
			userInput = nil
		}
	}))
	t.Cleanup(server.Close)

	model := NewOpenAIRealtimeWebSocketModel()
	recorder := newModelEventRecorder()
	model.AddListener(recorder)
	require.NoError(t, model.Connect(t.Context(), RealtimeModelConfig{
		APIKey:          "sk-live",
		URL:             "ws" + strings.TrimPrefix(server.URL, "http"),
		TransportConfig: RealtimeTransportConfig{HandshakeTimeout: time.Second},
	}))
	t.Cleanup(func() { _ = model.Close(context.Background()) })

	assert.IsType(t, RealtimeModelConnectionStatusEvent{}, recorder.next(t))
	other, ok := recorder.next(t).(RealtimeModelOtherEvent)
	require.True(t, ok)
	assert.Equal(t, "session.updated", other.Data.(map[string]any)["type"])
	assert.IsType(t, RealtimeModelTurnStartedEvent{}, recorder.next(t))

	first := <-received
	assert.Equal(t, "session.update", first["type"])
	assert.Equal(t, "Bearer sk-live", authorization)

	require.NoError(t, model.SendEvent(t.Context(), RealtimeModelSendUserInput{UserInput: "hi"}))
	assert.Equal(t, "conversation.item.create", (<-received)["type"])
	assert.Equal(t, "response.create", (<-received)["type"])
}
