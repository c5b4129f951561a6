// Package openai implements the ai interfaces against OpenAI-compatible
// APIs. Embeddings and chat use langchaingo; audio transcription talks to
// the /audio/transcriptions endpoint directly since langchaingo has no
// binding for it.
//
// All constructors validate and normalize the supplied ai.Config. Any
// service exposing the OpenAI wire format (OpenAI, Ollama, LocalAI, vLLM)
// works as a backend, subject to the configured models being available.
package openai
