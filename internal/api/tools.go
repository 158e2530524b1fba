package api

import (
	"github.com/go-deepseek/deepseek/request"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolsFromMCP exposes MCP tool definitions to chat models as function
// tools, so the model and the MCP server validate the same arguments.
func ToolsFromMCP(defs ...mcp.Tool) []request.Tool {
	out := make([]request.Tool, len(defs))
	for i, def := range defs {
		out[i] = request.Tool{
			Type: "function",
			Function: &request.ToolFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  parameters(def.InputSchema),
			},
		}
	}
	return out
}

func parameters(schema mcp.ToolInputSchema) map[string]any {
	params := map[string]any{
		"type":       "object",
		"properties": schema.Properties,
	}
	if len(schema.Required) > 0 {
		params["required"] = schema.Required
	}
	return params
}
