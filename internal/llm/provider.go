// Package llm abstracts the model providers behind a single Provider
// interface. The AI gateway talks to Provider only; which vendor serves
// the request is a configuration concern.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends a prompt to an LLM and returns structured output.
type Provider interface {
	// Generate runs one request. When Request.Schema is set the provider
	// uses its native structured-output mechanism and the returned
	// Content is the validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured for.
	ModelID() string
}

// SearchGrounder is implemented by providers that can ground a request
// in web search results (Request.GroundWithSearch). Only Gemini does.
type SearchGrounder interface {
	SupportsSearch() bool
}

// Request describes what to send to the LLM.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Single-turn generation carries
	// one user message.
	Messages []Message

	// Schema, when set, instructs the provider to return JSON conforming
	// to it. Mutually exclusive with GroundWithSearch: search-grounded
	// requests return free text plus Sources.
	Schema *Schema

	// GroundWithSearch asks the provider to run the prompt with web
	// search grounding and report the hits in Response.Sources.
	GroundWithSearch bool

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0. Zero value means
	// deterministic.
	Temperature float64
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema the response must conform to.
type Schema struct {
	// Name identifies the schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "study-quiz".
	Name string

	// Description guides generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Source is one web search hit backing a grounded response.
type Source struct {
	Title string
	URI   string
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output: validated JSON when a Schema was
	// requested, raw text otherwise.
	Content json.RawMessage

	// Sources lists the search hits grounding the response. Empty unless
	// GroundWithSearch was set and the provider supports it.
	Sources []Source

	// Usage reports token consumption.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
