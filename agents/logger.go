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

import (
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

var logger atomic.Pointer[slog.Logger]

// Logger returns the logger used by the SDK. It defaults to slog.Default().
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// SetLogger replaces the logger used by the SDK. A nil value restores the default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// UseOTelLogger routes SDK logs through the global OpenTelemetry logger provider,
// under the given instrumentation scope.
func UseOTelLogger(scopeName string) {
	SetLogger(otelslog.NewLogger(scopeName))
}
