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

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPGetAllFunctionTools returns the tools of every server as function tools.
// Tool names must be unique across servers.
func MCPGetAllFunctionTools(ctx context.Context, servers []MCPServer) ([]FunctionTool, error) {
	var tools []FunctionTool
	seen := make(map[string]string)
	for _, server := range servers {
		serverTools, err := MCPGetFunctionTools(ctx, server)
		if err != nil {
			return nil, err
		}
		for _, tool := range serverTools {
			if other, ok := seen[tool.Name]; ok {
				return nil, UserErrorf("duplicate tool name %q found in MCP servers %q and %q", tool.Name, other, server.Name())
			}
			seen[tool.Name] = server.Name()
		}
		tools = append(tools, serverTools...)
	}
	return tools, nil
}

// MCPGetFunctionTools lists the tools of a single server as function tools.
func MCPGetFunctionTools(ctx context.Context, server MCPServer) ([]FunctionTool, error) {
	mcpTools, err := server.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	tools := make([]FunctionTool, 0, len(mcpTools))
	for _, mcpTool := range mcpTools {
		tool, err := MCPToFunctionTool(mcpTool, server)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// MCPToFunctionTool converts an MCP tool into a FunctionTool that calls back
// into the server.
func MCPToFunctionTool(tool *mcp.Tool, server MCPServer) (FunctionTool, error) {
	schema := map[string]any{}
	if tool.InputSchema != nil {
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return FunctionTool{}, fmt.Errorf("failed to marshal input schema of MCP tool %s: %w", tool.Name, err)
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			return FunctionTool{}, fmt.Errorf("failed to unmarshal input schema of MCP tool %s: %w", tool.Name, err)
		}
	}
	// MCP spec doesn't require the inputSchema to have `properties`, but
	// function calling does.
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	if _, ok := schema["type"]; !ok {
		schema["type"] = "object"
	}

	return FunctionTool{
		Name:             tool.Name,
		Description:      tool.Description,
		ParamsJSONSchema: schema,
		OnInvokeTool: func(ctx context.Context, arguments string) (any, error) {
			return MCPInvokeTool(ctx, server, tool.Name, arguments)
		},
	}, nil
}

// MCPInvokeTool calls an MCP tool with raw JSON arguments and returns its
// output as a string.
func MCPInvokeTool(ctx context.Context, server MCPServer, toolName, arguments string) (string, error) {
	var args map[string]any
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", ModelBehaviorErrorf("invalid JSON input for tool %s: %s", toolName, err.Error())
		}
	}

	Logger().Debug("Invoking MCP tool", slog.String("server", server.Name()), slog.String("tool", toolName))
	result, err := server.CallTool(ctx, toolName, args)
	if err != nil {
		return "", AgentsErrorf("error invoking MCP tool %s: %s", toolName, err.Error())
	}

	output, err := mcpResultToString(result)
	if err != nil {
		return "", err
	}
	if result != nil && result.IsError {
		return "", AgentsErrorf("MCP tool %s returned an error: %s", toolName, output)
	}
	return output, nil
}

func mcpResultToString(result *mcp.CallToolResult) (string, error) {
	if result == nil {
		return "", nil
	}
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
			continue
		}
		raw, err := json.Marshal(content)
		if err != nil {
			return "", fmt.Errorf("failed to marshal MCP tool content: %w", err)
		}
		parts = append(parts, string(raw))
	}

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		raw, err := json.Marshal(parts)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}
