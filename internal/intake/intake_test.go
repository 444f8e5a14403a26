package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr error
	}{
		{"notes.txt", KindText, nil},
		{"README.MD", KindText, nil},
		{"paper.pdf", KindPDF, nil},
		{"slides.pptx", 0, ErrUnsupportedFormat},
		{"noext", 0, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.name)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Classify(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "france.txt")
	if err := os.WriteFile(path, []byte("Paris is the capital of France."), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Name != "france.txt" || doc.Kind != KindText {
		t.Errorf("Load() = %+v", doc)
	}
	if doc.Text != "Paris is the capital of France." {
		t.Errorf("Text = %q", doc.Text)
	}
	if st := doc.Stats(); st.Words != 6 || st.Chars != 31 {
		t.Errorf("Stats() = %+v, want 6 words, 31 chars", st)
	}
	if doc.IsEmpty() {
		t.Error("IsEmpty() = true")
	}
}

func TestLoadPDF(t *testing.T) {
	content := []byte("%PDF-1.4 fake")
	doc, err := LoadReader("paper.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if doc.Kind != KindPDF || doc.MediaType != "application/pdf" {
		t.Errorf("LoadReader() = %+v", doc)
	}
	if doc.Encoded != base64.StdEncoding.EncodeToString(content) {
		t.Errorf("Encoded = %q", doc.Encoded)
	}
	raw, err := doc.Bytes()
	if err != nil || !bytes.Equal(raw, content) {
		t.Errorf("Bytes() = %q, %v", raw, err)
	}
}

func TestLoadPDFTooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("x"), MaxPDFSize+1)
	_, err := LoadReader("huge.pdf", bytes.NewReader(big))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("LoadReader() error = %v, want ErrTooLarge", err)
	}

	exact := bytes.Repeat([]byte("x"), MaxPDFSize)
	if _, err := LoadReader("limit.pdf", bytes.NewReader(exact)); err != nil {
		t.Errorf("LoadReader() at the limit error = %v", err)
	}
}

func TestPreview(t *testing.T) {
	short := Document{Text: "short"}
	if got := short.Preview(); got != "short" {
		t.Errorf("Preview() = %q", got)
	}

	long := Document{Text: strings.Repeat("ä", PreviewLength+10)}
	got := long.Preview()
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != PreviewLength+3 {
		t.Errorf("Preview() length = %d", len([]rune(got)))
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		doc  Document
		want bool
	}{
		{Document{}, true},
		{Document{Text: "  \n"}, true},
		{Document{Text: "x"}, false},
		{Document{Kind: KindPDF}, true},
		{Document{Kind: KindPDF, Encoded: "eA=="}, false},
	}
	for _, tt := range tests {
		if got := tt.doc.IsEmpty(); got != tt.want {
			t.Errorf("%+v.IsEmpty() = %v, want %v", tt.doc, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	doc := Document{Name: "a.txt", Text: "one two", Size: 7}
	if got := doc.Summary(); got != "a.txt (2 words, 7 characters, 7 B)" {
		t.Errorf("Summary() = %q", got)
	}
	pdf := Document{Name: "b.pdf", Kind: KindPDF, Size: 2000}
	if got := pdf.Summary(); got != "b.pdf (PDF, 2.0 kB)" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestSlotKeepsDocumentOnFailedLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.md")
	if err := os.WriteFile(good, []byte("# Notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	var slot Slot
	if _, err := slot.Load(good); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, bad := range []string{filepath.Join(dir, "x.docx"), filepath.Join(dir, "missing.txt")} {
		if _, err := slot.Load(bad); err == nil {
			t.Fatalf("Load(%q) succeeded", bad)
		}
		doc, ok := slot.Current()
		if !ok || doc.Name != "good.md" {
			t.Errorf("Current() after failed load = %+v, %v", doc, ok)
		}
		if slot.Err() == nil {
			t.Error("Err() = nil after failed load")
		}
	}

	slot.Clear()
	if _, ok := slot.Current(); ok {
		t.Error("Current() after Clear() still holds a document")
	}
}
