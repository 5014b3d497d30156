// Package llm is the boundary to the chat model.
//
// Client abstracts a chat completion endpoint that can return tool calls.
// OpenAIClient implements it with github.com/openai/openai-go/v3 against any
// OpenAI-compatible API, Together AI by default.
package llm
