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

package agents

import "sync"

// RunContextWrapper wraps the caller-provided context value that is handed to
// tools, guardrails, handoffs and dynamic instructions.
//
// NOTE: Contexts are not passed to the LLM. They're a way to pass dependencies
// and data to code you implement.
type RunContextWrapper[T any] struct {
	Context T

	mu       sync.Mutex
	metadata map[string]any
}

// NewRunContextWrapper creates a new RunContextWrapper.
func NewRunContextWrapper[T any](ctx T) *RunContextWrapper[T] {
	return &RunContextWrapper[T]{Context: ctx}
}

// SetMetadata stores a value that lives as long as the run context.
func (c *RunContextWrapper[T]) SetMetadata(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

// Metadata returns a value previously stored with SetMetadata.
func (c *RunContextWrapper[T]) Metadata(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.metadata[key]
	return v, ok
}
