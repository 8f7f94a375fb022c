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
	"errors"
	"testing"

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/denggeng/realtime-agents-go/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) *memory.SQLiteSessionMemory {
	t.Helper()
	store, err := memory.NewSQLiteSessionMemory(t.Context(), memory.SQLiteSessionMemoryParams{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIsItemCompleted(t *testing.T) {
	output := "ok"
	assert.True(t, isItemCompleted(RealtimeMessageItem{Status: ItemStatusCompleted}))
	assert.False(t, isItemCompleted(RealtimeMessageItem{Status: ItemStatusInProgress}))
	assert.True(t, isItemCompleted(RealtimeToolCallItem{Output: &output}))
	assert.False(t, isItemCompleted(RealtimeToolCallItem{Status: ItemStatusCompleted}))
	assert.False(t, isItemCompleted(nil))
}

func TestRealtimeItemToInputItems(t *testing.T) {
	t.Run("user message", func(t *testing.T) {
		items := RealtimeItemToInputItems(RealtimeMessageItem{
			ItemID: "u1",
			Role:   "user",
			Content: []RealtimeMessageContent{
				{Type: ContentTypeInputAudio, Transcript: "hello"},
			},
		})
		assert.Equal(t, []memory.TResponseInputItem{{
			"type":    "message",
			"id":      "u1",
			"role":    "user",
			"content": []any{map[string]any{"type": "input_text", "text": "hello"}},
		}}, items)
	})

	t.Run("assistant message", func(t *testing.T) {
		items := RealtimeItemToInputItems(RealtimeMessageItem{
			ItemID:  "a1",
			Role:    "assistant",
			Content: []RealtimeMessageContent{{Type: ContentTypeText, Text: "hi"}},
		})
		require.Len(t, items, 1)
		assert.Equal(t, []any{map[string]any{"type": "output_text", "text": "hi"}}, items[0]["content"])
	})

	t.Run("message without text", func(t *testing.T) {
		assert.Empty(t, RealtimeItemToInputItems(RealtimeMessageItem{ItemID: "a1", Role: "assistant"}))
	})

	t.Run("tool call with output", func(t *testing.T) {
		output := "sunny"
		items := RealtimeItemToInputItems(RealtimeToolCallItem{
			ItemID: "t1", CallID: "c1", Name: "get_weather", Arguments: "{}", Output: &output,
		})
		assert.Equal(t, []memory.TResponseInputItem{
			{"type": "function_call", "id": "t1", "call_id": "c1", "name": "get_weather", "arguments": "{}"},
			{"type": "function_call_output", "call_id": "c1", "output": "sunny"},
		}, items)
	})
}

func TestRealtimeSessionPersistsCompletedItems(t *testing.T) {
	store := newTestMemory(t)
	session, _ := newTestSession(t, &RealtimeAgent{Name: "agent"}, RealtimeRunConfig{
		Memory:    store,
		SessionID: "call-42",
	})

	inProgress := RealtimeMessageItem{
		ItemID:  "a1",
		Role:    "assistant",
		Status:  ItemStatusInProgress,
		Content: []RealtimeMessageContent{{Type: ContentTypeAudio, Transcript: "Hel"}},
	}
	emit(t, session, RealtimeModelItemUpdatedEvent{Item: inProgress})

	messages, err := store.GetMessages(t.Context(), "call-42", 0)
	require.NoError(t, err)
	assert.Empty(t, messages)

	completed := inProgress.Clone()
	completed.Status = ItemStatusCompleted
	completed.Content[0].Transcript = "Hello there"
	emit(t, session, RealtimeModelItemUpdatedEvent{Item: completed})
	// A second completion of the same item is not stored again.
	emit(t, session, RealtimeModelItemUpdatedEvent{Item: completed})

	output := "sunny"
	emit(t, session, RealtimeModelItemUpdatedEvent{Item: RealtimeToolCallItem{
		ItemID: "t1", PreviousItemID: "a1", CallID: "c1", Name: "get_weather", Arguments: "{}", Output: &output,
	}})

	messages, err = store.GetMessages(t.Context(), "call-42", 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "a1", messages[0]["id"])
	assert.Equal(t, "function_call", messages[1]["type"])
	assert.Equal(t, "function_call_output", messages[2]["type"])
	assert.Equal(t, "sunny", messages[2]["output"])
}

func TestRealtimeSessionPersistsCompletedTranscription(t *testing.T) {
	store := newTestMemory(t)
	session, _ := newTestSession(t, &RealtimeAgent{Name: "agent"}, RealtimeRunConfig{
		Memory:    store,
		SessionID: "s",
	})

	emit(t, session, RealtimeModelItemUpdatedEvent{Item: RealtimeMessageItem{
		ItemID:  "u1",
		Role:    "user",
		Status:  ItemStatusInProgress,
		Content: []RealtimeMessageContent{{Type: ContentTypeInputAudio}},
	}})
	emit(t, session, RealtimeModelInputAudioTranscriptionCompletedEvent{ItemID: "u1", Transcript: "book a table"})

	messages, err := store.GetMessages(t.Context(), "s", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0]["role"])
	assert.Equal(t, []any{map[string]any{"type": "input_text", "text": "book a table"}}, messages[0]["content"])
}

type failingMemory struct {
	memory.SessionMemory
}

func (failingMemory) AddMessages(context.Context, string, []memory.TResponseInputItem) error {
	return errors.New("disk full")
}

func TestRealtimeSessionPersistFailureEmitsError(t *testing.T) {
	session, _ := newTestSession(t, &RealtimeAgent{Name: "agent"}, RealtimeRunConfig{
		Memory:    failingMemory{},
		SessionID: "s",
	})

	emit(t, session, RealtimeModelItemUpdatedEvent{Item: RealtimeMessageItem{
		ItemID:  "a1",
		Role:    "assistant",
		Status:  ItemStatusCompleted,
		Content: []RealtimeMessageContent{{Type: ContentTypeText, Text: "hi"}},
	}})

	require.IsType(t, RealtimeHistoryAddedEvent{}, nextSessionEvent(t, session))
	errEvent, ok := nextSessionEvent(t, session).(RealtimeErrorEvent)
	require.True(t, ok)
	assert.ErrorContains(t, errEvent.Error.(error), "disk full")
	assert.NoError(t, session.Err())
}

func TestRealtimeSessionPersistsAudioItemOnceTranscriptArrives(t *testing.T) {
	store := newTestMemory(t)
	session, _ := newTestSession(t, &RealtimeAgent{Name: "agent"}, RealtimeRunConfig{
		Memory:    store,
		SessionID: "s",
	})

	emit(t, session, RealtimeModelItemUpdatedEvent{Item: RealtimeMessageItem{
		ItemID:  "u1",
		Role:    "user",
		Status:  ItemStatusCompleted,
		Content: []RealtimeMessageContent{{Type: ContentTypeInputAudio}},
	}})

	messages, err := store.GetMessages(t.Context(), "s", 0)
	require.NoError(t, err)
	assert.Empty(t, messages)

	emit(t, session, RealtimeModelInputAudioTranscriptionCompletedEvent{ItemID: "u1", Transcript: "hello there"})

	messages, err = store.GetMessages(t.Context(), "s", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, []any{map[string]any{"type": "input_text", "text": "hello there"}}, messages[0]["content"])
}

type flakyMemory struct {
	memory.SessionMemory
	failures int
}

func (m *flakyMemory) AddMessages(ctx context.Context, sessionID string, items []memory.TResponseInputItem) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("disk full")
	}
	return m.SessionMemory.AddMessages(ctx, sessionID, items)
}

func TestRealtimeSessionRetriesFailedPersist(t *testing.T) {
	store := &flakyMemory{SessionMemory: newTestMemory(t), failures: 1}
	session, _ := newTestSession(t, &RealtimeAgent{Name: "agent"}, RealtimeRunConfig{
		Memory:    store,
		SessionID: "s",
	})

	item := RealtimeMessageItem{
		ItemID:  "a1",
		Role:    "assistant",
		Status:  ItemStatusCompleted,
		Content: []RealtimeMessageContent{{Type: ContentTypeText, Text: "hi"}},
	}
	emit(t, session, RealtimeModelItemUpdatedEvent{Item: item})
	require.IsType(t, RealtimeHistoryAddedEvent{}, nextSessionEvent(t, session))
	require.IsType(t, RealtimeErrorEvent{}, nextSessionEvent(t, session))

	emit(t, session, RealtimeModelItemUpdatedEvent{Item: item})
	require.IsType(t, RealtimeHistoryUpdatedEvent{}, nextSessionEvent(t, session))

	emit(t, session, RealtimeModelItemUpdatedEvent{Item: item})

	messages, err := store.GetMessages(t.Context(), "s", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "assistant", messages[0]["role"])
}

func TestRealtimeRunConfigValidate(t *testing.T) {
	store := newTestMemory(t)

	assert.NoError(t, RealtimeRunConfig{}.Validate())
	assert.NoError(t, RealtimeRunConfig{Memory: store, SessionID: "s"}.Validate())

	err := RealtimeRunConfig{Memory: store}.Validate()
	assert.True(t, agents.IsUserError(err))

	err = RealtimeRunConfig{SessionID: "s"}.Validate()
	assert.True(t, agents.IsUserError(err))
}
