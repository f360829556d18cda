// Package llm provides the chat-completion client shared by the writer
// collaborators (research, drafting, review, update, remediation, schema
// generation).
//
// The client speaks the OpenRouter wire format. Prompts differ per caller;
// the transport, retry, and payload-decoding behaviour live here once.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title,
// timeout. The default endpoint is the OpenRouter chat-completions URL.
//
// # Entry Points
//
// NewClient: construct client from config.LLM.
// Client.CompleteJSON: send system/user prompts, receive a JSON payload.
// Client.CompleteText: send system/user prompts, receive markdown verbatim.
// Client.HealthCheck: verify API key and model availability.
// DecodeJSON: parse model JSON output, tolerating code fences and prose.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default) and
// honors Retry-After headers. Context cancellation aborts retries
// immediately.
package llm
