package llmtools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Execute runs one tool call and returns its JSON result. Every failure is
// reported in-band as {"error": "..."} so the transcript always gets a reply.
func (r *Registry) Execute(ctx context.Context, call ToolCall) json.RawMessage {
	def, ok := r.Get(call.Name)
	if !ok {
		return errorJSON("unknown tool: " + call.Name)
	}
	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return errorJSON("invalid arguments: " + err.Error())
	}
	if err := validateAgainstSchema(decoded, def.JSONSchema); err != nil {
		return errorJSON("invalid arguments: " + err.Error())
	}

	start := time.Now()
	out, err := def.Handler(ctx, args)
	log.Debug().Str("tool", def.StableName).Str("call_id", call.ID).Dur("elapsed", time.Since(start)).Err(err).Msg("tool call finished")
	if err != nil {
		return errorJSON(err.Error())
	}
	return out
}

// ToolMessages executes calls in order and returns the tool role messages to
// append to the conversation.
func (r *Registry) ToolMessages(ctx context.Context, calls []ToolCall) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(calls))
	for _, call := range calls {
		out = append(out, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Name:       call.Name,
			ToolCallID: call.ID,
			Content:    string(r.Execute(ctx, call)),
		})
	}
	return out
}

func errorJSON(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}
