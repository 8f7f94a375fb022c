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
	"encoding/base64"
	"fmt"
	"maps"
	"strings"
)

var supportedRawRealtimeClientEventTypes = map[string]struct{}{
	"session.update":             {},
	"response.create":            {},
	"response.cancel":            {},
	"conversation.item.create":   {},
	"conversation.item.retrieve": {},
	"conversation.item.delete":   {},
	"conversation.item.truncate": {},
	"input_audio_buffer.append":  {},
	"input_audio_buffer.commit":  {},
	"input_audio_buffer.clear":   {},
}

// TryConvertRawMessage validates and converts a raw message into a map payload.
// Returns nil when the message cannot be safely converted.
func TryConvertRawMessage(message RealtimeModelSendRawMessage) map[string]any {
	eventType := strings.TrimSpace(message.Message.Type)
	if _, supported := supportedRawRealtimeClientEventTypes[eventType]; !supported {
		return nil
	}

	payload := make(map[string]any, len(message.Message.OtherData)+1)
	maps.Copy(payload, message.Message.OtherData)
	payload["type"] = eventType

	switch eventType {
	case "session.update":
		if _, ok := toStringAnyMap(payload["session"]); !ok {
			return nil
		}
	case "conversation.item.create":
		if _, ok := toStringAnyMap(payload["item"]); !ok {
			return nil
		}
	case "conversation.item.retrieve", "conversation.item.delete":
		if itemID, ok := payload["item_id"].(string); !ok || strings.TrimSpace(itemID) == "" {
			return nil
		}
	}
	return payload
}

// ConvertUserInputToConversationItem converts user input into a conversation item payload.
func ConvertUserInputToConversationItem(event RealtimeModelSendUserInput) map[string]any {
	content := make([]map[string]any, 0, 1)
	switch v := event.UserInput.(type) {
	case string:
		content = append(content, map[string]any{"type": ContentTypeInputText, "text": v})
	case RealtimeModelUserInputMessage:
		content = toMessageContentMaps(v.Content)
	case *RealtimeModelUserInputMessage:
		if v != nil {
			content = toMessageContentMaps(v.Content)
		}
	}
	return map[string]any{
		"type":    "message",
		"role":    "user",
		"content": content,
	}
}

// ConvertUserInputToItemCreate wraps user input into a conversation.item.create event payload.
func ConvertUserInputToItemCreate(event RealtimeModelSendUserInput) map[string]any {
	return map[string]any{
		"type": "conversation.item.create",
		"item": ConvertUserInputToConversationItem(event),
	}
}

// ConvertAudioToInputAudioBufferAppend converts raw audio bytes to append-event payload.
func ConvertAudioToInputAudioBufferAppend(event RealtimeModelSendAudio) map[string]any {
	return map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(event.Audio),
	}
}

// ConvertToolOutput converts tool output to a function_call_output conversation item event.
// It returns nil when the tool call has no call ID.
func ConvertToolOutput(event RealtimeModelSendToolOutput) map[string]any {
	if strings.TrimSpace(event.ToolCall.CallID) == "" {
		return nil
	}
	return map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"output":  event.Output,
			"call_id": event.ToolCall.CallID,
		},
	}
}

// ConvertInterrupt converts interruption context into conversation.item.truncate payload.
func ConvertInterrupt(itemID string, contentIndex int, audioEndMS int) map[string]any {
	return map[string]any{
		"type":          "conversation.item.truncate",
		"item_id":       itemID,
		"content_index": contentIndex,
		"audio_end_ms":  audioEndMS,
	}
}

func toMessageContentMaps(parts []RealtimeModelUserInputContent) []map[string]any {
	result := make([]map[string]any, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ContentTypeInputText:
			result = append(result, map[string]any{"type": ContentTypeInputText, "text": part.Text})
		case ContentTypeInputImage:
			if strings.TrimSpace(part.ImageURL) == "" {
				continue
			}
			converted := map[string]any{"type": ContentTypeInputImage, "image_url": part.ImageURL}
			switch part.Detail {
			case "auto", "low", "high":
				converted["detail"] = part.Detail
			}
			result = append(result, converted)
		}
	}
	return result
}

// ParseServerItem converts a conversation item sent by the server into a
// history item. Only message and function_call items are supported.
func ParseServerItem(item map[string]any, defaultStatus string) (RealtimeItem, error) {
	itemType, _ := stringField(item, "type")
	itemID, ok := stringField(item, "id")
	if !ok || itemID == "" {
		return nil, fmt.Errorf("missing required field id in %s item", itemType)
	}
	previousItemID, _ := stringField(item, "previous_item_id")
	status, _ := stringField(item, "status")
	switch status {
	case ItemStatusInProgress, ItemStatusCompleted, ItemStatusIncomplete:
	default:
		status = defaultStatus
	}

	switch itemType {
	case "message":
		role, _ := stringField(item, "role")
		if role == "" {
			role = "assistant"
		}
		parts, _ := item["content"].([]any)
		content := make([]RealtimeMessageContent, 0, len(parts))
		for _, raw := range parts {
			part, ok := toStringAnyMap(raw)
			if !ok {
				continue
			}
			partType, _ := stringField(part, "type")
			text, _ := stringField(part, "text")
			audio, _ := stringField(part, "audio")
			transcript, _ := stringField(part, "transcript")
			switch partType {
			case ContentTypeInputText:
				content = append(content, RealtimeMessageContent{Type: ContentTypeInputText, Text: text})
			case ContentTypeInputAudio:
				content = append(content, RealtimeMessageContent{Type: ContentTypeInputAudio, Audio: audio, Transcript: transcript})
			case ContentTypeInputImage:
				imageURL, _ := stringField(part, "image_url")
				detail, _ := stringField(part, "detail")
				content = append(content, RealtimeMessageContent{Type: ContentTypeInputImage, ImageURL: imageURL, Detail: detail})
			case "text", "output_text":
				content = append(content, RealtimeMessageContent{Type: ContentTypeText, Text: text})
			case "audio", "output_audio":
				content = append(content, RealtimeMessageContent{Type: ContentTypeAudio, Audio: audio, Transcript: transcript})
			}
		}
		return RealtimeMessageItem{
			ItemID:         itemID,
			PreviousItemID: previousItemID,
			Role:           role,
			Status:         status,
			Content:        content,
		}, nil

	case "function_call":
		callID, _ := stringField(item, "call_id")
		name, _ := stringField(item, "name")
		arguments, _ := stringField(item, "arguments")
		return RealtimeToolCallItem{
			ItemID:         itemID,
			PreviousItemID: previousItemID,
			CallID:         callID,
			Status:         status,
			Arguments:      arguments,
			Name:           name,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported item type %q", itemType)
	}
}

func toStringAnyMap(input any) (map[string]any, bool) {
	m, ok := input.(map[string]any)
	return m, ok && m != nil
}

func stringField(payload map[string]any, key string) (string, bool) {
	value, ok := payload[key].(string)
	return value, ok
}

func intField(payload map[string]any, key string) (int, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
