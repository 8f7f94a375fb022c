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

	"github.com/denggeng/realtime-agents-go/agents"
	"github.com/denggeng/realtime-agents-go/memory"
)

// isItemCompleted reports whether item has reached its final state.
func isItemCompleted(item RealtimeItem) bool {
	switch v := item.(type) {
	case RealtimeMessageItem:
		return v.Status == ItemStatusCompleted
	case RealtimeToolCallItem:
		return v.Output != nil
	default:
		return false
	}
}

// RealtimeItemToInputItems converts a history item into the input item
// shape stored by session memory.
func RealtimeItemToInputItems(item RealtimeItem) []memory.TResponseInputItem {
	switch v := item.(type) {
	case RealtimeMessageItem:
		text := v.Text()
		if text == "" {
			return nil
		}
		contentType := ContentTypeInputText
		if v.Role == "assistant" {
			contentType = "output_text"
		}
		return []memory.TResponseInputItem{{
			"type": "message",
			"id":   v.ItemID,
			"role": v.Role,
			"content": []any{
				map[string]any{"type": contentType, "text": text},
			},
		}}
	case RealtimeToolCallItem:
		items := []memory.TResponseInputItem{{
			"type":      "function_call",
			"id":        v.ItemID,
			"call_id":   v.CallID,
			"name":      v.Name,
			"arguments": v.Arguments,
		}}
		if v.Output != nil {
			items = append(items, memory.TResponseInputItem{
				"type":    "function_call_output",
				"call_id": v.CallID,
				"output":  *v.Output,
			})
		}
		return items
	default:
		return nil
	}
}

// persistItem stores item in session memory once it is completed and has
// content to store. Each item is stored at most once per session; an item
// whose write failed is retried on its next update.
func (s *RealtimeSession) persistItem(ctx context.Context, item RealtimeItem) {
	if s.runConfig.Memory == nil || item == nil || !isItemCompleted(item) {
		return
	}

	s.mutex.Lock()
	_, done := s.persisted[item.GetItemID()]
	s.mutex.Unlock()
	if done {
		return
	}

	// Audio items complete before their transcript arrives.
	inputItems := RealtimeItemToInputItems(item)
	if len(inputItems) == 0 {
		return
	}
	if err := s.runConfig.Memory.AddMessages(ctx, s.runConfig.SessionID, inputItems); err != nil {
		agents.Logger().Error("Failed to persist realtime item",
			slog.String("session_id", s.runConfig.SessionID),
			slog.String("item_id", item.GetItemID()),
			slog.String("error", err.Error()))
		s.putEvent(RealtimeErrorEvent{
			Error: fmt.Errorf("failed to persist item %s: %w", item.GetItemID(), err),
			Info:  s.eventInfo,
		})
		return
	}

	s.mutex.Lock()
	s.persisted[item.GetItemID()] = struct{}{}
	s.mutex.Unlock()
}
