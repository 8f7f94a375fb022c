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

package memory

import (
	"context"
	"encoding/json"
	"errors"
)

// TResponseInputItem is a conversation item in the JSON shape of a Responses
// API input item, e.g. {"type": "message", "role": "user", "content": [...]}.
type TResponseInputItem = map[string]any

// SessionMemory stores the conversation history of many sessions, keyed by
// session ID. Implementations must be safe for concurrent use.
type SessionMemory interface {
	// GetMessages returns the messages of a session in insertion order.
	// If limit > 0, only the latest limit messages are returned; otherwise
	// the implementation's default limit applies (all messages if unset).
	GetMessages(ctx context.Context, sessionID string, limit int) ([]TResponseInputItem, error)

	// AddMessages appends messages to a session, creating it if needed.
	AddMessages(ctx context.Context, sessionID string, messages []TResponseInputItem) error

	// PopMessage removes and returns the most recent message of a session.
	// It returns nil when the session is empty, or when the removed record
	// could not be decoded.
	PopMessage(ctx context.Context, sessionID string) (TResponseInputItem, error)

	// ClearSession removes a session and all of its messages.
	ClearSession(ctx context.Context, sessionID string) error

	// Close releases the resources held by the store.
	Close() error
}

var errNotAnObject = errors.New("message data is not a JSON object")

func marshalMessageData(item TResponseInputItem) (string, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMessageData(data string) (TResponseInputItem, error) {
	var item TResponseInputItem
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errNotAnObject
	}
	return item, nil
}
