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

const (
	ContentTypeInputText  = "input_text"
	ContentTypeInputAudio = "input_audio"
	ContentTypeInputImage = "input_image"
	ContentTypeText       = "text"
	ContentTypeAudio      = "audio"
)

const (
	ItemStatusInProgress = "in_progress"
	ItemStatusCompleted  = "completed"
	ItemStatusIncomplete = "incomplete"
)

// RealtimeItem is one entry of the conversation history. The set of
// implementations is closed.
type RealtimeItem interface {
	GetItemID() string
	GetPreviousItemID() string
	isRealtimeItem()
}

// RealtimeMessageContent represents one content part in a realtime message item.
type RealtimeMessageContent struct {
	Type       string
	Text       string
	Audio      string
	Transcript string
	ImageURL   string
	Detail     string
}

// RealtimeMessageItem is a user/system/assistant message item.
type RealtimeMessageItem struct {
	ItemID         string
	PreviousItemID string
	Role           string
	Status         string
	Content        []RealtimeMessageContent
}

func (i RealtimeMessageItem) GetItemID() string         { return i.ItemID }
func (i RealtimeMessageItem) GetPreviousItemID() string { return i.PreviousItemID }
func (RealtimeMessageItem) isRealtimeItem()             {}

// Clone returns a copy that does not share its content slice with i.
func (i RealtimeMessageItem) Clone() RealtimeMessageItem {
	i.Content = slices.Clone(i.Content)
	return i
}

// RealtimeToolCallItem is a tool call + output item in realtime history.
type RealtimeToolCallItem struct {
	ItemID         string
	PreviousItemID string
	CallID         string
	Status         string
	Arguments      string
	Name           string
	Output         *string
}

func (i RealtimeToolCallItem) GetItemID() string         { return i.ItemID }
func (i RealtimeToolCallItem) GetPreviousItemID() string { return i.PreviousItemID }
func (RealtimeToolCallItem) isRealtimeItem()             {}

// Text joins the text and transcript parts of a message.
func (i RealtimeMessageItem) Text() string {
	var out string
	for _, c := range i.Content {
		switch c.Type {
		case ContentTypeInputText, ContentTypeText:
			out += c.Text
		case ContentTypeInputAudio, ContentTypeAudio:
			out += c.Transcript
		}
	}
	return out
}
