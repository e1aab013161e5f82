// Package ollama is a minimal client for a local Ollama server's chat
// endpoint. Responses are forced into a JSON schema so callers get a
// parseable payload back, and transient failures (connection errors,
// timeouts, 5xx, 429) are retried once with backoff before giving up.
package ollama
