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

import "slices"

// GetNewHistory returns the history obtained by applying event to old.
// Supported events are RealtimeModelItemUpdatedEvent,
// RealtimeModelInputAudioTranscriptionCompletedEvent and
// RealtimeModelItemDeletedEvent; anything else yields an unchanged copy.
// The old slice is never modified.
func GetNewHistory(old []RealtimeItem, event RealtimeModelEvent) []RealtimeItem {
	switch e := event.(type) {
	case RealtimeModelInputAudioTranscriptionCompletedEvent:
		return applyTranscriptCompletion(old, e)
	case RealtimeModelItemUpdatedEvent:
		return mergeItem(old, e.Item)
	case RealtimeModelItemDeletedEvent:
		return deleteItem(old, e.ItemID)
	default:
		return slices.Clone(old)
	}
}

func applyTranscriptCompletion(old []RealtimeItem, e RealtimeModelInputAudioTranscriptionCompletedEvent) []RealtimeItem {
	out := slices.Clone(old)
	for i, item := range out {
		msg, ok := item.(RealtimeMessageItem)
		if !ok || msg.ItemID != e.ItemID || msg.Role != "user" {
			continue
		}
		updated := msg.Clone()
		for j := range updated.Content {
			if updated.Content[j].Type == ContentTypeInputAudio {
				updated.Content[j].Transcript = e.Transcript
			}
		}
		updated.Status = ItemStatusCompleted
		out[i] = updated
	}
	return out
}

func mergeItem(old []RealtimeItem, item RealtimeItem) []RealtimeItem {
	if item == nil {
		return slices.Clone(old)
	}
	if idx := historyIndex(old, item.GetItemID()); idx >= 0 {
		out := slices.Clone(old)
		out[idx] = item
		return out
	}
	if prev := item.GetPreviousItemID(); prev != "" {
		if idx := historyIndex(old, prev); idx >= 0 {
			out := make([]RealtimeItem, 0, len(old)+1)
			out = append(out, old[:idx+1]...)
			out = append(out, item)
			return append(out, old[idx+1:]...)
		}
	}
	out := make([]RealtimeItem, 0, len(old)+1)
	out = append(out, old...)
	return append(out, item)
}

func deleteItem(old []RealtimeItem, itemID string) []RealtimeItem {
	out := slices.Clone(old)
	if idx := historyIndex(out, itemID); idx >= 0 {
		return slices.Delete(out, idx, idx+1)
	}
	return out
}

func historyIndex(history []RealtimeItem, itemID string) int {
	return slices.IndexFunc(history, func(item RealtimeItem) bool {
		return item.GetItemID() == itemID
	})
}
