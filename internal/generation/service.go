package generation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/flashgen/internal"
	"codeberg.org/snonux/flashgen/internal/intake"
)

// UnavailableMessage is reported while the provider's breaker is open.
const UnavailableMessage = "The model provider is temporarily unavailable. Please try again later."

// Service generates flashcards for documents using one provider.
type Service struct {
	provider  Provider
	model     string
	maxTokens int
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker
	log       *logrus.Entry
}

// NewService wraps provider with the settings from config.
func NewService(provider Provider, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	return &Service{
		provider:  provider,
		model:     config.ModelOrDefault(),
		maxTokens: config.MaxTokens,
		timeout:   config.Timeout,
		breaker:   breakerFor(provider.Name(), config.APIKey),
		log:       config.logger().WithField("provider", provider.Name()),
	}
}

// Provider returns the wrapped provider.
func (s *Service) Provider() Provider {
	return s.provider
}

// Generate sends doc to the model once and parses the reply. Transport
// and remote errors come back as Failure.
func (s *Service) Generate(ctx context.Context, doc intake.Document) Result {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := Request{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Prompt:    BuildPrompt(doc),
		Document:  doc,
	}

	log := s.log.WithFields(logrus.Fields{
		"req_id":   uuid.NewString(),
		"document": doc.Name,
		"kind":     doc.Kind.String(),
		"model":    s.model,
	})
	start := time.Now()

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.provider.Complete(ctx, req)
	})
	if err != nil {
		log.WithError(err).Warn("Generation request failed")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Failure{Message: UnavailableMessage}
		}
		return Failure{Message: "Error: " + err.Error()}
	}

	reply := out.(string)
	log.WithFields(logrus.Fields{
		"bytes":      len(reply),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Generation reply received")

	result := ParseReply(reply)
	if f, ok := result.(Failure); ok {
		log.WithField("reply", internal.Truncate(reply, 200)).Warn(f.Message)
	}
	return result
}
