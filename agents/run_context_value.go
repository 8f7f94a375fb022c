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

import "context"

type runContextKey struct{}

// ContextWithRunContext stores the run context wrapper on ctx, so that tools
// and handoffs can read it via RunContextFromContext.
func ContextWithRunContext(ctx context.Context, runContext *RunContextWrapper[any]) context.Context {
	return context.WithValue(ctx, runContextKey{}, runContext)
}

// RunContextFromContext returns the run context wrapper previously set on ctx.
func RunContextFromContext(ctx context.Context) (*RunContextWrapper[any], bool) {
	v, ok := ctx.Value(runContextKey{}).(*RunContextWrapper[any])
	return v, ok && v != nil
}
