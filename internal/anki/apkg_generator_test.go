package anki

import (
	"archive/zip"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAPKGGenerator(t *testing.T) {
	gen := NewAPKGGenerator("Test Deck")

	if gen == nil {
		t.Fatal("NewAPKGGenerator returned nil")
	}
	if gen.deckName != "Test Deck" {
		t.Errorf("Expected deck name 'Test Deck', got '%s'", gen.deckName)
	}
	if len(gen.cards) != 0 {
		t.Errorf("Expected empty cards slice, got %d cards", len(gen.cards))
	}
	if gen.modelID == gen.deckID {
		t.Error("Model and deck ids must differ")
	}

	if unnamed := NewAPKGGenerator("  "); unnamed.deckName != "Flashcards" {
		t.Errorf("Expected fallback deck name 'Flashcards', got '%s'", unnamed.deckName)
	}
}

func TestGenerateAPKG(t *testing.T) {
	tempDir := t.TempDir()

	gen := NewAPKGGenerator("Geography")
	gen.AddCard(Card{ID: "c1", Question: "What is the capital of France?", Answer: "Paris."})
	gen.AddCard(Card{ID: "c2", Question: "What is the capital of Spain?", Answer: "Madrid."})

	outputPath := filepath.Join(tempDir, "geography.apkg")
	if err := gen.GenerateAPKG(outputPath); err != nil {
		t.Fatalf("GenerateAPKG() error = %v", err)
	}

	reader, err := zip.OpenReader(outputPath)
	if err != nil {
		t.Fatalf("Failed to open APKG as zip: %v", err)
	}
	defer reader.Close()

	found := map[string]bool{}
	for _, file := range reader.File {
		found[file.Name] = true
	}
	for _, name := range []string{"collection.anki2", "media"} {
		if !found[name] {
			t.Errorf("Required file '%s' not found in APKG", name)
		}
	}
	if len(reader.File) != 2 {
		t.Errorf("Expected 2 entries in APKG, got %d", len(reader.File))
	}
}

func TestCreateDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.anki2")

	gen := NewAPKGGenerator("Test Deck")
	gen.AddCard(Card{ID: "card-1", Question: "<b>Q</b>", Answer: "A"})
	gen.AddCard(Card{Question: "Q2", Answer: "A2"})

	if err := gen.createDatabase(dbPath); err != nil {
		t.Fatalf("createDatabase() error = %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var noteCount, cardCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&noteCount); err != nil {
		t.Fatalf("Failed to count notes: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cardCount); err != nil {
		t.Fatalf("Failed to count cards: %v", err)
	}
	if noteCount != 2 || cardCount != 2 {
		t.Errorf("Expected 2 notes and 2 cards, got %d and %d", noteCount, cardCount)
	}

	var guid, flds string
	var csum int64
	err = db.QueryRow("SELECT guid, flds, csum FROM notes ORDER BY id LIMIT 1").Scan(&guid, &flds, &csum)
	if err != nil {
		t.Fatalf("Failed to read note: %v", err)
	}
	if guid != "card-1" {
		t.Errorf("Expected guid 'card-1', got '%s'", guid)
	}
	if flds != "<b>Q</b>\x1fA" {
		t.Errorf("Unexpected fields %q", flds)
	}
	if csum != checksum("Q") {
		t.Errorf("Checksum should ignore HTML tags, got %d", csum)
	}

	var models string
	if err := db.QueryRow("SELECT models FROM col").Scan(&models); err != nil {
		t.Fatalf("Failed to read collection: %v", err)
	}
	if !strings.Contains(models, `"name":"Front"`) || !strings.Contains(models, `"name":"Back"`) {
		t.Errorf("Note type lacks Front/Back fields: %s", models)
	}
}

func TestChecksum(t *testing.T) {
	// first 8 hex digits of sha1("hello") = aaf4c61d
	if got, want := checksum("hello"), int64(0xaaf4c61d); got != want {
		t.Errorf("checksum(hello) = %d, want %d", got, want)
	}
}

func TestGenerateAPKGBadPath(t *testing.T) {
	gen := NewAPKGGenerator("Deck")
	gen.AddCard(Card{Question: "Q", Answer: "A"})

	dir := t.TempDir()
	err := gen.GenerateAPKG(filepath.Join(dir, "missing", "x.apkg"))
	if err == nil {
		t.Error("Expected error for unwritable output path")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing")); statErr == nil {
		t.Error("Output directory should not be created by GenerateAPKG")
	}
}
