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

import "github.com/openai/openai-go/v3/packages/param"

// SessionSettings holds optional configuration for session operations.
type SessionSettings struct {
	// Limit sets the default maximum number of messages to retrieve.
	// If unset, all messages are retrieved.
	Limit param.Opt[int]
}

// Resolve overlays the values set in override onto the receiver.
func (s SessionSettings) Resolve(override SessionSettings) SessionSettings {
	if override.Limit.Valid() {
		s.Limit = override.Limit
	}
	return s
}

// ResolveSessionLimit returns the effective limit for a read: an explicit
// positive value wins, then the settings' default. Zero means no limit.
func ResolveSessionLimit(explicit int, settings SessionSettings) int {
	if explicit > 0 {
		return explicit
	}
	return max(settings.Limit.Or(0), 0)
}
