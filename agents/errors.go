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
	"errors"
	"fmt"
)

// AgentsError is the base type of every error raised by the SDK.
type AgentsError struct {
	Message string
}

func NewAgentsError(message string) *AgentsError {
	return &AgentsError{Message: message}
}

func AgentsErrorf(format string, a ...any) *AgentsError {
	return NewAgentsError(fmt.Sprintf(format, a...))
}

func (err *AgentsError) Error() string {
	if err == nil {
		return "AgentsError"
	}
	return err.Message
}

// UserError is returned when the SDK is used incorrectly, for example with
// an inconsistent configuration.
type UserError struct {
	*AgentsError
}

func NewUserError(message string) UserError {
	return UserError{AgentsError: NewAgentsError(message)}
}

func UserErrorf(format string, a ...any) UserError {
	return UserError{AgentsError: AgentsErrorf(format, a...)}
}

func (err UserError) Error() string {
	if err.AgentsError == nil {
		return "UserError"
	}
	return err.AgentsError.Error()
}

func (err UserError) Unwrap() error {
	return err.AgentsError
}

// ModelBehaviorError is returned when the model does something unexpected,
// e.g. calling a tool that doesn't exist, or providing malformed JSON.
type ModelBehaviorError struct {
	*AgentsError
}

func NewModelBehaviorError(message string) ModelBehaviorError {
	return ModelBehaviorError{AgentsError: NewAgentsError(message)}
}

func ModelBehaviorErrorf(format string, a ...any) ModelBehaviorError {
	return ModelBehaviorError{AgentsError: AgentsErrorf(format, a...)}
}

func (err ModelBehaviorError) Error() string {
	if err.AgentsError == nil {
		return "ModelBehaviorError"
	}
	return err.AgentsError.Error()
}

func (err ModelBehaviorError) Unwrap() error {
	return err.AgentsError
}

// IsUserError reports whether err, or any error it wraps, is a UserError.
func IsUserError(err error) bool {
	var target UserError
	return errors.As(err, &target)
}
