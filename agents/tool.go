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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3/packages/param"
)

// Tool is a tool that can be offered to a model. The set of implementations is
// closed: FunctionTool and Handoff.
type Tool interface {
	// GetName returns the name the model uses to call the tool.
	GetName() string
	isTool()
}

// ToolEnabler decides whether a tool is offered to the model for a given run.
type ToolEnabler interface {
	IsEnabled(ctx context.Context, runContext *RunContextWrapper[any]) (bool, error)
}

// ToolEnabledFlag is a constant ToolEnabler.
type ToolEnabledFlag bool

func (f ToolEnabledFlag) IsEnabled(context.Context, *RunContextWrapper[any]) (bool, error) {
	return bool(f), nil
}

// ToolEnablerFunc lets you implement ToolEnabler with a function.
type ToolEnablerFunc func(ctx context.Context, runContext *RunContextWrapper[any]) (bool, error)

func (fn ToolEnablerFunc) IsEnabled(ctx context.Context, runContext *RunContextWrapper[any]) (bool, error) {
	return fn(ctx, runContext)
}

// IsToolEnabled evaluates an optional enabler; a nil enabler means enabled.
func IsToolEnabled(ctx context.Context, enabler ToolEnabler, runContext *RunContextWrapper[any]) (bool, error) {
	if enabler == nil {
		return true, nil
	}
	return enabler.IsEnabled(ctx, runContext)
}

// ToolErrorFunction converts a tool failure into a value returned to the model.
type ToolErrorFunction func(ctx context.Context, err error) (any, error)

// DefaultToolErrorFunction is the default handler used when a FunctionTool fails.
// It returns a generic error message to the model.
func DefaultToolErrorFunction(_ context.Context, err error) (any, error) {
	return fmt.Sprintf("An error occurred while running the tool. Please try again. Error: %s", err.Error()), nil
}

// FunctionTool is a tool that wraps a function.
type FunctionTool struct {
	// The name of the tool, as shown to the LLM.
	Name string

	// A description of the tool, as shown to the LLM.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsJSONSchema map[string]any

	// A function that invokes the tool with the given context and raw JSON arguments.
	// The context carries the run context and the ToolContextData of the call.
	OnInvokeTool func(ctx context.Context, arguments string) (any, error)

	// Whether the JSON schema is in strict mode. Defaults to true.
	StrictJSONSchema param.Opt[bool]

	// Optional handler turning tool errors into model-visible output.
	// If nil, DefaultToolErrorFunction is used. Set it to a pointer to a nil
	// function to have errors returned to the caller instead.
	FailureErrorFunction *ToolErrorFunction

	// Whether the tool is enabled. Nil means enabled.
	IsEnabled ToolEnabler
}

func (t FunctionTool) GetName() string { return t.Name }

func (FunctionTool) isTool() {}

// Invoke runs the tool, applying the failure error function on error.
func (t FunctionTool) Invoke(ctx context.Context, arguments string) (any, error) {
	if t.OnInvokeTool == nil {
		return nil, UserErrorf("function tool %q has no OnInvokeTool", t.Name)
	}
	result, err := t.OnInvokeTool(ctx, arguments)
	if err == nil {
		return result, nil
	}

	errorFunction := ToolErrorFunction(DefaultToolErrorFunction)
	if t.FailureErrorFunction != nil {
		errorFunction = *t.FailureErrorFunction
	}
	if errorFunction == nil {
		return nil, err
	}
	Logger().Debug("Tool call failed", slog.String("tool", t.Name), slog.String("error", err.Error()))
	return errorFunction(ctx, err)
}

// NewFunctionTool builds a FunctionTool from a typed handler. The parameters
// schema is derived from T, and arguments are validated against it before the
// handler runs. It panics if the schema cannot be built.
func NewFunctionTool[T, R any](name, description string, handler func(ctx context.Context, args T) (R, error)) FunctionTool {
	tool, err := SafeNewFunctionTool(name, description, handler)
	if err != nil {
		panic(err)
	}
	return tool
}

// SafeNewFunctionTool is like NewFunctionTool but returns an error instead of panicking.
func SafeNewFunctionTool[T, R any](name, description string, handler func(ctx context.Context, args T) (R, error)) (FunctionTool, error) {
	if name == "" {
		return FunctionTool{}, NewUserError("function tool name must not be empty")
	}
	schema, err := JSONSchemaFor[T]()
	if err != nil {
		return FunctionTool{}, fmt.Errorf("failed to build JSON schema for tool %s: %w", name, err)
	}
	validator, err := NewJSONSchemaValidator(schema)
	if err != nil {
		return FunctionTool{}, fmt.Errorf("failed to compile JSON schema for tool %s: %w", name, err)
	}

	return FunctionTool{
		Name:             name,
		Description:      description,
		ParamsJSONSchema: schema,
		StrictJSONSchema: param.NewOpt(true),
		OnInvokeTool: func(ctx context.Context, arguments string) (any, error) {
			if strings.TrimSpace(arguments) == "" {
				arguments = "{}"
			}
			if err := validator.Validate(arguments); err != nil {
				return nil, ModelBehaviorErrorf("invalid JSON input for tool %s: %s", name, err.Error())
			}
			var args T
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return nil, ModelBehaviorErrorf("invalid JSON input for tool %s: %s", name, err.Error())
			}
			return handler(ctx, args)
		},
	}, nil
}
