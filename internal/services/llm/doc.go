// Package llm implements the chat-completions client used for structured
// generation. Responses are requested in JSON mode and decoded through
// DecodeLLMJSON, which tolerates code fences and prose wrapping around the
// payload. Transient HTTP failures retry with exponential backoff, honoring
// Retry-After when the provider sends one.
package llm
