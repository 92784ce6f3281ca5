package llmtools

import (
	"encoding/json"
	"errors"
	"strconv"

	openai "github.com/sashabaranov/go-openai"
)

// ToolSpec captures a single callable function exposed to the model.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	JSONSchema  json.RawMessage `json:"json_schema"`
}

// ToolCall is a tool call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// EncodeTools converts ToolSpec entries into the OpenAI tools array.
func EncodeTools(specs []ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.JSONSchema,
			},
		})
	}
	return out
}

// ParseToolCalls extracts function tool calls from the first choice of a
// chat completion response.
func ParseToolCalls(resp openai.ChatCompletionResponse) []ToolCall {
	if len(resp.Choices) == 0 {
		return nil
	}
	msg := resp.Choices[0].Message
	out := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		if tc.Type != openai.ToolTypeFunction {
			continue
		}
		out = append(out, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateAgainstSchema checks value against the small JSON Schema subset the
// tool schemas use: type, properties, required, additionalProperties
// (boolean), items, enum, minimum and maximum.
func validateAgainstSchema(value any, schema json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	var s map[string]any
	if err := json.Unmarshal(schema, &s); err != nil {
		return err
	}
	if enum, ok := s["enum"].([]any); ok && !inEnum(value, enum) {
		return errors.New("schema: value not in enum")
	}

	typ, _ := s["type"].(string)
	switch typ {
	case "object", "":
		obj, ok := value.(map[string]any)
		if !ok {
			return errors.New("schema: expected object")
		}
		if req, ok := s["required"].([]any); ok {
			for _, r := range req {
				if name, ok := r.(string); ok {
					if _, present := obj[name]; !present {
						return errors.New("schema: missing required field: " + name)
					}
				}
			}
		}
		props, _ := s["properties"].(map[string]any)
		for k, v := range obj {
			if raw, ok := props[k]; ok {
				b, _ := json.Marshal(raw)
				if err := validateAgainstSchema(v, b); err != nil {
					return errors.New("schema: property " + k + ": " + err.Error())
				}
				continue
			}
			if ap, ok := s["additionalProperties"].(bool); ok && !ap {
				return errors.New("schema: additional property not allowed: " + k)
			}
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return errors.New("schema: expected array")
		}
		if items, ok := s["items"]; ok {
			b, _ := json.Marshal(items)
			for i, elem := range arr {
				if err := validateAgainstSchema(elem, b); err != nil {
					return errors.New("schema: items[" + strconv.Itoa(i) + "]: " + err.Error())
				}
			}
		}
	case "string":
		if _, ok := value.(string); !ok {
			return errors.New("schema: expected string")
		}
	case "integer", "number":
		f, ok := value.(float64)
		if !ok || (typ == "integer" && f != float64(int64(f))) {
			return errors.New("schema: expected " + typ)
		}
		if min, ok := s["minimum"].(float64); ok && f < min {
			return errors.New("schema: value below minimum")
		}
		if max, ok := s["maximum"].(float64); ok && f > max {
			return errors.New("schema: value above maximum")
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return errors.New("schema: expected boolean")
		}
	}
	return nil
}

func inEnum(value any, enum []any) bool {
	switch value.(type) {
	case map[string]any, []any:
		return false
	}
	for _, e := range enum {
		if e == value {
			return true
		}
	}
	return false
}
