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

package agentstesting

import (
	"context"
	"slices"
	"sync"

	"github.com/denggeng/realtime-agents-go/agents/realtime"
)

// FakeRealtimeModel is a realtime model that records what it is sent and
// lets tests push model events to its listeners.
type FakeRealtimeModel struct {
	mu            sync.Mutex
	listeners     []realtime.RealtimeModelListener
	connectConfig *realtime.RealtimeModelConfig
	sentEvents    []realtime.RealtimeModelSendEvent
	closed        bool

	ConnectError error
	SendError    error
}

func NewFakeRealtimeModel() *FakeRealtimeModel {
	return &FakeRealtimeModel{}
}

func (m *FakeRealtimeModel) Connect(_ context.Context, config realtime.RealtimeModelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectError != nil {
		return m.ConnectError
	}
	m.connectConfig = &config
	return nil
}

func (m *FakeRealtimeModel) AddListener(listener realtime.RealtimeModelListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.listeners, listener) {
		m.listeners = append(m.listeners, listener)
	}
}

func (m *FakeRealtimeModel) RemoveListener(listener realtime.RealtimeModelListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = slices.DeleteFunc(m.listeners, func(l realtime.RealtimeModelListener) bool {
		return l == listener
	})
}

func (m *FakeRealtimeModel) SendEvent(_ context.Context, event realtime.RealtimeModelSendEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendError != nil {
		return m.SendError
	}
	m.sentEvents = append(m.sentEvents, event)
	return nil
}

func (m *FakeRealtimeModel) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Emit delivers event to every listener in the calling goroutine and
// returns the first listener error.
func (m *FakeRealtimeModel) Emit(ctx context.Context, event realtime.RealtimeModelEvent) error {
	m.mu.Lock()
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, listener := range listeners {
		if err := listener.OnEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// ConnectConfig returns the configuration of the last successful Connect.
func (m *FakeRealtimeModel) ConnectConfig() *realtime.RealtimeModelConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectConfig
}

// SentEvents returns a copy of the events sent so far.
func (m *FakeRealtimeModel) SentEvents() []realtime.RealtimeModelSendEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sentEvents)
}

func (m *FakeRealtimeModel) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

func (m *FakeRealtimeModel) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ realtime.RealtimeModel = (*FakeRealtimeModel)(nil)
