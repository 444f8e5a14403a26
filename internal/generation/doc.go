// Package generation asks a language model to turn a document into
// flashcards and recovers the cards from its free-form reply.
//
// Three providers are supported: Anthropic's Messages API (spoken to
// over plain HTTP), OpenAI chat completions and Google Gemini. Every
// call goes through a circuit breaker shared by all services of the
// same provider, and the outcome is always a Result value; errors never
// cross the Service boundary.
package generation
