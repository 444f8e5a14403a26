package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/anki"
	"codeberg.org/snonux/flashgen/internal/batch"
	"codeberg.org/snonux/flashgen/internal/flashcards"
	"codeberg.org/snonux/flashgen/internal/generation"
	"codeberg.org/snonux/flashgen/internal/intake"
)

var (
	ErrNoCredential         = errors.New("Please set your API key first")
	ErrNoDocument           = errors.New("Please upload a document first")
	ErrGenerationInProgress = errors.New("a generation is already in progress")
	ErrNoFlashcards         = errors.New("No flashcards could be generated. Try a different document.")
)

// GenerationError carries the message of a failed generation result.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return e.Message
}

// Generator produces a result for one document.
type Generator interface {
	Generate(ctx context.Context, doc intake.Document) generation.Result
}

// ServiceFactory builds a Generator authenticated with credential.
type ServiceFactory func(credential string) (Generator, error)

// ServiceFactoryFor returns a factory building generation services from
// config, with the API key replaced by the stored credential.
func ServiceFactoryFor(config *generation.Config) ServiceFactory {
	return func(credential string) (Generator, error) {
		cfg := *config
		cfg.APIKey = credential
		provider, err := generation.NewProvider(&cfg)
		if err != nil {
			return nil, err
		}
		return generation.NewService(provider, &cfg), nil
	}
}

// Processor handles the main generation logic
type Processor struct {
	store      *flashcards.Store
	newService ServiceFactory
	out        io.Writer
	log        *logrus.Logger

	generating atomic.Bool

	mu      sync.Mutex
	lastErr string
}

// NewProcessor creates a new processor writing progress lines to out.
func NewProcessor(store *flashcards.Store, factory ServiceFactory, out io.Writer, log *logrus.Logger) *Processor {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{
		store:      store,
		newService: factory,
		out:        out,
		log:        log,
	}
}

// IsGenerating reports whether a generation run is in flight.
func (p *Processor) IsGenerating() bool {
	return p.generating.Load()
}

// LastError returns the message of the most recent failed run, or "" when
// the last run succeeded.
func (p *Processor) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Processor) setLastError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		p.lastErr = ""
		return
	}
	p.lastErr = err.Error()
}

// Generate turns doc into a new flashcard set, stores it and selects it.
// name overrides the set name; when blank the model's title is used,
// then the document name, then flashcards.DefaultSetName.
func (p *Processor) Generate(ctx context.Context, doc intake.Document, name string) (flashcards.FlashcardSet, error) {
	if !p.generating.CompareAndSwap(false, true) {
		return flashcards.FlashcardSet{}, ErrGenerationInProgress
	}
	defer p.generating.Store(false)

	set, err := p.generate(ctx, doc, name)
	p.setLastError(err)
	return set, err
}

func (p *Processor) generate(ctx context.Context, doc intake.Document, name string) (flashcards.FlashcardSet, error) {
	if !p.store.HasCredential() {
		return flashcards.FlashcardSet{}, ErrNoCredential
	}
	if doc.IsEmpty() {
		return flashcards.FlashcardSet{}, ErrNoDocument
	}

	service, err := p.newService(p.store.Credential())
	if err != nil {
		return flashcards.FlashcardSet{}, fmt.Errorf("failed to create generation service: %w", err)
	}

	log := p.log.WithFields(logrus.Fields{"document": doc.Name, "kind": doc.Kind.String()})
	log.Debug("starting generation")

	switch result := service.Generate(ctx, doc).(type) {
	case generation.Failure:
		log.WithField("message", result.Message).Warn("generation failed")
		return flashcards.FlashcardSet{}, &GenerationError{Message: result.Message}
	case generation.Success:
		if len(result.Cards) == 0 {
			return flashcards.FlashcardSet{}, ErrNoFlashcards
		}

		cards := make([]flashcards.Flashcard, 0, len(result.Cards))
		for _, c := range result.Cards {
			cards = append(cards, flashcards.NewCard(c.Question, c.Answer))
		}

		set, _ := p.store.AddSet(setName(name, result.Title, doc.Name), cards)
		log.WithFields(logrus.Fields{"set": set.ID, "cards": len(set.Cards)}).Info("flashcard set created")
		return set, nil
	default:
		return flashcards.FlashcardSet{}, fmt.Errorf("unexpected generation result %T", result)
	}
}

func setName(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return flashcards.DefaultSetName
}

// BatchSummary counts the outcome of a batch run.
type BatchSummary struct {
	Total     int
	Processed int
	Errors    int
}

// ProcessBatch generates one set per batch entry. A failing entry is
// reported and counted; the run continues with the next one.
func (p *Processor) ProcessBatch(ctx context.Context, entries []batch.Entry) (BatchSummary, error) {
	summary := BatchSummary{Total: len(entries)}
	if !p.store.HasCredential() {
		return summary, ErrNoCredential
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fmt.Fprintf(p.out, "\nProcessing %d/%d: %s\n", i+1, len(entries), entry.Path)

		doc, err := intake.Load(entry.Path)
		if err == nil {
			fmt.Fprintf(p.out, "  Loaded %s\n", doc.Summary())
			var set flashcards.FlashcardSet
			set, err = p.Generate(ctx, doc, entry.Name)
			if err == nil {
				fmt.Fprintf(p.out, "  Created '%s' with %d cards\n", set.Name, len(set.Cards))
				summary.Processed++
				continue
			}
		}

		fmt.Fprintf(p.out, "  Error processing '%s': %v\n", entry.Path, err)
		summary.Errors++
	}

	fmt.Fprintf(p.out, "\n=== Batch Processing Summary ===\n")
	fmt.Fprintf(p.out, "Total documents: %d\n", summary.Total)
	fmt.Fprintf(p.out, "Processed: %d\n", summary.Processed)
	if summary.Errors > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", summary.Errors)
	}
	fmt.Fprintf(p.out, "================================\n")

	return summary, nil
}

// Export writes the set with the given id in format. An empty outputPath
// names the file after the set in the current directory. It returns the
// path written.
func (p *Processor) Export(setID string, format anki.Format, outputPath string) (string, error) {
	set, ok := p.store.Set(setID)
	if !ok {
		return "", flashcards.ErrSetNotFound
	}

	if outputPath == "" {
		outputPath = anki.DefaultOutputPath(set, format)
	} else if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, anki.DefaultOutputPath(set, format))
	}

	gen := anki.NewGeneratorForSet(set, &anki.GeneratorOptions{
		OutputPath:     outputPath,
		IncludeHeaders: true,
	})
	if err := gen.Generate(format); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", format, err)
	}

	total, unanswered := gen.Stats()
	fmt.Fprintf(p.out, "  Exported %d cards (%d without answer)\n", total, unanswered)

	return outputPath, nil
}
