package anki

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"codeberg.org/snonux/flashgen/internal"
	"codeberg.org/snonux/flashgen/internal/flashcards"
)

// Card represents a single exported flashcard
type Card struct {
	ID       string // Stable id, used for the Anki note guid
	Question string
	Answer   string
}

// Format is an export file format.
type Format string

const (
	FormatAPKG Format = "apkg"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAPKG, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use apkg, csv or xlsx)", s)
	}
}

// GeneratorOptions configures the export
type GeneratorOptions struct {
	OutputPath     string // Output file path
	IncludeHeaders bool   // Include a header row in CSV and XLSX output
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "flashcards.csv",
		IncludeHeaders: true,
	}
}

// Generator writes a flashcard set in an importable format
type Generator struct {
	options  *GeneratorOptions
	deckName string
	cards    []Card
}

// NewGenerator creates a new generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]Card, 0),
	}
}

// NewGeneratorForSet creates a generator holding every card of set.
func NewGeneratorForSet(set flashcards.FlashcardSet, options *GeneratorOptions) *Generator {
	g := NewGenerator(options)
	g.deckName = set.Name
	for _, c := range set.Cards {
		g.AddCard(Card{ID: c.ID, Question: c.Question, Answer: c.Answer})
	}
	return g
}

// AddCard adds a card to the collection
func (g *Generator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// GetCards returns the collected cards
func (g *Generator) GetCards() []Card {
	return g.cards
}

// Generate writes the cards in the given format to OutputPath.
func (g *Generator) Generate(format Format) error {
	if dir := filepath.Dir(g.options.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	switch format {
	case FormatAPKG:
		return g.GenerateAPKG(g.options.OutputPath, g.deckName)
	case FormatCSV:
		return g.GenerateCSV()
	case FormatXLSX:
		return g.GenerateXLSX()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// GenerateCSV creates a CSV file for Anki import
func (g *Generator) GenerateCSV() error {
	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if g.options.IncludeHeaders {
		if err := writer.Write([]string{"Question", "Answer"}); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range g.cards {
		if err := writer.Write([]string{card.Question, card.Answer}); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// GenerateXLSX creates a spreadsheet with one card per row
func (g *Generator) GenerateXLSX() error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(g.deckName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	row := 1
	write := func(col int, v string) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	if g.options.IncludeHeaders {
		write(1, "Question")
		write(2, "Answer")
		if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
			_ = f.SetCellStyle(sheet, "A1", "B1", style)
		}
		row++
	}

	for _, card := range g.cards {
		write(1, card.Question)
		write(2, card.Answer)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 60)
	_ = f.SetColWidth(sheet, "B", "B", 80)

	if err := f.SaveAs(g.options.OutputPath); err != nil {
		return fmt.Errorf("failed to write XLSX file: %w", err)
	}
	return nil
}

// sheetName turns a deck name into a valid worksheet name.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "Flashcards"
	}
	return internal.Truncate(name, 28)
}

// GenerateAPKG creates a proper .apkg file for Anki import
func (g *Generator) GenerateAPKG(outputPath, deckName string) error {
	apkgGen := NewAPKGGenerator(deckName)
	for _, card := range g.cards {
		apkgGen.AddCard(card)
	}
	return apkgGen.GenerateAPKG(outputPath)
}

// DefaultOutputPath names the export file after the set.
func DefaultOutputPath(set flashcards.FlashcardSet, format Format) string {
	return internal.SanitizeFilename(set.Name) + "." + string(format)
}

// Stats returns the number of cards and how many of them lack an answer
func (g *Generator) Stats() (totalCards, unanswered int) {
	totalCards = len(g.cards)
	for _, card := range g.cards {
		if strings.TrimSpace(card.Answer) == "" {
			unanswered++
		}
	}
	return
}
