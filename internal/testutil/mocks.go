package testutil

import (
	"context"
	"sync"

	"codeberg.org/snonux/flashgen/internal/generation"
	"codeberg.org/snonux/flashgen/internal/intake"
)

// MockGenerator returns scripted results and records the documents it saw.
// With no results left it returns a generation.Failure.
type MockGenerator struct {
	mu      sync.Mutex
	Results []generation.Result
	Docs    []intake.Document

	// Block, when set, is waited on before returning.
	Block chan struct{}
}

// Generate returns the next scripted result
func (m *MockGenerator) Generate(ctx context.Context, doc intake.Document) generation.Result {
	m.mu.Lock()
	m.Docs = append(m.Docs, doc)
	var result generation.Result = generation.Failure{Message: "Error: no scripted result"}
	if len(m.Results) > 0 {
		result = m.Results[0]
		m.Results = m.Results[1:]
	}
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return generation.Failure{Message: "Error: " + ctx.Err().Error()}
		}
	}
	return result
}

// Calls returns how many documents were submitted
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Docs)
}

// MockProvider is a generation.Provider with a scripted reply.
type MockProvider struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	Models   []string
	Requests []generation.Request
}

// Complete records req and returns the scripted reply
func (m *MockProvider) Complete(ctx context.Context, req generation.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	return m.Reply, m.Err
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return "mock"
}

// ListModels returns the scripted model ids
func (m *MockProvider) ListModels(ctx context.Context) ([]string, error) {
	return m.Models, m.Err
}
