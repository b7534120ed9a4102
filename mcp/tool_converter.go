package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// SchemaMap returns the tool's input schema as a JSON-schema object.
// A raw schema, when the provider sent one, wins over the structured form.
func SchemaMap(tool mcptypes.Tool) map[string]any {
	if len(tool.RawInputSchema) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(tool.RawInputSchema, &raw); err == nil {
			if _, ok := raw["type"]; !ok {
				raw["type"] = "object"
			}
			return raw
		}
	}

	schemaType := tool.InputSchema.Type
	if schemaType == "" {
		schemaType = "object"
	}

	properties := tool.InputSchema.Properties
	if properties == nil {
		properties = map[string]any{}
	}

	schema := map[string]any{
		"type":       schemaType,
		"properties": properties,
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	if tool.InputSchema.Defs != nil {
		schema["$defs"] = tool.InputSchema.Defs
	}
	return schema
}

// ConvertMCPToolsToAnthropicFormat converts catalog tools to Anthropic tool
// definitions. Names are used as given, so pass composite names.
func ConvertMCPToolsToAnthropicFormat(mcpTools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(mcpTools))

	for i, tool := range mcpTools {
		schema := SchemaMap(tool)

		// Type defaults to "object" when omitted
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		}
		inputSchema.Required = requiredFields(schema["required"])

		extra := map[string]any{}
		for k, v := range schema {
			switch k {
			case "type", "properties", "required":
			default:
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			inputSchema.ExtraFields = extra
		}

		result[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
		if tool.Description != "" {
			result[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}

	return result
}

// ConvertMCPToolsToOpenAIFormat converts catalog tools to OpenAI function tools.
func ConvertMCPToolsToOpenAIFormat(mcpTools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(mcpTools))

	for i, tool := range mcpTools {
		def := openai.FunctionDefinitionParam{
			Name:       tool.Name,
			Parameters: openai.FunctionParameters(SchemaMap(tool)),
		}
		if tool.Description != "" {
			def.Description = openai.String(tool.Description)
		}
		result[i] = openai.ChatCompletionFunctionTool(def)
	}

	return result
}

// ConvertMCPToolsToOllama converts catalog tools to Ollama API tools.
func ConvertMCPToolsToOllama(mcpTools []mcptypes.Tool) []api.Tool {
	ollamaTools := make([]api.Tool, 0, len(mcpTools))

	for _, mcpTool := range mcpTools {
		ollamaTools = append(ollamaTools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        mcpTool.Name,
				Description: mcpTool.Description,
				Parameters:  convertSchemaToParameters(SchemaMap(mcpTool)),
			},
		})
	}

	return ollamaTools
}

func convertSchemaToParameters(schema map[string]any) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Properties: make(map[string]api.ToolProperty),
	}

	params.Type, _ = schema["type"].(string)

	params.Required = requiredFields(schema["required"])

	if defs, ok := schema["$defs"]; ok {
		params.Defs = defs
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		for propName, propValue := range props {
			params.Properties[propName] = convertPropertyValue(propValue)
		}
	}

	return params
}

// convertPropertyValue converts one JSON-schema property to an Ollama ToolProperty.
func convertPropertyValue(propValue any) api.ToolProperty {
	toolProp := api.ToolProperty{}

	propMap, ok := propValue.(map[string]any)
	if !ok {
		bytes, err := json.Marshal(propValue)
		if err != nil {
			return toolProp
		}
		if err := json.Unmarshal(bytes, &propMap); err != nil {
			return toolProp
		}
	}

	// type may be a string or a list of strings
	switch t := propMap["type"].(type) {
	case string:
		toolProp.Type = api.PropertyType{t}
	case []string:
		toolProp.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		toolProp.Type = api.PropertyType(types)
	}

	if desc, ok := propMap["description"].(string); ok {
		toolProp.Description = desc
	}

	if enumSlice, ok := propMap["enum"].([]any); ok {
		toolProp.Enum = enumSlice
	}

	if items, ok := propMap["items"]; ok {
		toolProp.Items = items
	}

	if anyOfSlice, ok := propMap["anyOf"].([]any); ok {
		anyOfProps := make([]api.ToolProperty, 0, len(anyOfSlice))
		for _, item := range anyOfSlice {
			anyOfProps = append(anyOfProps, convertPropertyValue(item))
		}
		toolProp.AnyOf = anyOfProps
	}

	return toolProp
}

// requiredFields accepts both the structured form and a decoded raw schema.
func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if name, ok := r.(string); ok {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}
