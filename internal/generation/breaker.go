package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

var (
	breakersMu sync.Mutex
	breakers   = make(map[string]*gobreaker.CircuitBreaker)
)

// breakerFor returns the breaker shared by every service talking to the
// named provider with the same API key. It opens after three consecutive
// failures and lets a probe through after thirty seconds.
func breakerFor(name, apiKey string) *gobreaker.CircuitBreaker {
	sum := sha256.Sum256([]byte(apiKey))
	key := name + "/" + hex.EncodeToString(sum[:8])

	breakersMu.Lock()
	defer breakersMu.Unlock()

	if cb, ok := breakers[key]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: countsAsSuccess,
	})
	breakers[key] = cb
	return cb
}

// countsAsSuccess keeps errors caused by the request itself from tripping
// the breaker: cancellation and 4xx replies other than 429.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	code := statusCode(err)
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// statusCode extracts the HTTP status of a provider error, or 0.
func statusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return openaiErr.HTTPStatusCode
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return requestErr.HTTPStatusCode
	}
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}
	return 0
}
