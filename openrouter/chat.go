package openrouter

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kbukum/routerkit/transport"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    Content    `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SystemMessage builds a system turn.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: TextContent(text)}
}

// UserMessage builds a user turn from plain text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

// UserParts builds a multimodal user turn.
func UserParts(parts ...Part) Message {
	return Message{Role: RoleUser, Content: PartsContent(parts...)}
}

// AssistantMessage builds an assistant turn, for few-shot prompting or
// replaying history.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

// ToolMessage builds a tool-result turn answering a prior tool call.
func ToolMessage(toolCallID, text string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: TextContent(text)}
}

// ToolCall is an assistant-requested function invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the function and carries its arguments as the JSON
// text the model produced.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool declares a callable function to the model.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes a function: name, purpose, and JSON-schema
// parameters.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ResponseFormat requests structured output.
type ResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is the chat completion payload. Optional sampling fields are
// pointers so zero values can be expressed; build them with util.Ptr.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
	Stop             []string `json:"stop,omitempty"`

	Tools      []Tool          `json:"tools,omitempty"`
	ToolChoice json.RawMessage `json:"tool_choice,omitempty"`

	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Models lists fallbacks tried in order when Model is unavailable.
	Models []string `json:"models,omitempty"`
	// Provider carries gateway routing preferences verbatim.
	Provider json.RawMessage `json:"provider,omitempty"`
	// Transforms names gateway-side prompt transforms.
	Transforms []string `json:"transforms,omitempty"`

	// Stream is owned by the client: ChatCompletion forces false,
	// ChatCompletionStream forces true.
	Stream bool `json:"stream,omitempty"`
}

// ChatResponse is a completed chat exchange.
type ChatResponse struct {
	ID       string   `json:"id"`
	Model    string   `json:"model"`
	Provider string   `json:"provider,omitempty"`
	Created  int64    `json:"created"`
	Choices  []Choice `json:"choices"`
	Usage    *Usage   `json:"usage,omitempty"`
}

// Choice is one generated completion.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token accounting; Cost is in account credits.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost,omitempty"`
}

// ChatChunk is one frame of a streamed completion.
type ChatChunk struct {
	ID       string        `json:"id"`
	Model    string        `json:"model"`
	Provider string        `json:"provider,omitempty"`
	Created  int64         `json:"created"`
	Choices  []ChunkChoice `json:"choices"`
	// Usage arrives on the final chunk when requested.
	Usage *Usage `json:"usage,omitempty"`
}

// ChunkChoice carries the incremental delta for one choice.
type ChunkChoice struct {
	Index        int    `json:"index"`
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Delta is the incremental message fragment in a chunk.
type Delta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is an incremental tool-call fragment; fragments with the
// same Index concatenate into one call.
type ToolCallDelta struct {
	Index    int               `json:"index"`
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type,omitempty"`
	Function FunctionCallDelta `json:"function"`
}

// FunctionCallDelta is the incremental function name/arguments fragment.
type FunctionCallDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ChatCompletion requests a completion and blocks for the full response.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false
	resp, err := transport.Do[ChatResponse](ctx, c.transport, transport.Request{
		Method: http.MethodPost,
		Path:   "/chat/completions",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatCompletionStream requests a completion as a server-sent event
// stream of chunks. It forces stream: true. The returned stream must be
// closed; a for loop over Next with a deferred Close is the usual shape:
//
//	stream, err := client.ChatCompletionStream(ctx, req)
//	if err != nil { ... }
//	defer stream.Close()
//	for {
//		chunk, ok, err := stream.Next(ctx)
//		if err != nil { ... }
//		if !ok { break }
//		// use chunk
//	}
func (c *Client) ChatCompletionStream(ctx context.Context, req ChatRequest) (*transport.EventStream[ChatChunk], error) {
	req.Stream = true
	return transport.Stream[ChatChunk](ctx, c.transport, transport.Request{
		Method: http.MethodPost,
		Path:   "/chat/completions",
		Body:   req,
	})
}
