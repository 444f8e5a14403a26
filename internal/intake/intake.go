// Package intake loads the documents flashcards are generated from.
package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// MaxPDFSize is the largest PDF accepted, in bytes.
const MaxPDFSize = 10 * 1024 * 1024

// PreviewLength is the number of characters shown by Preview.
const PreviewLength = 500

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, please use a .txt, .md or .pdf file")
	ErrTooLarge          = errors.New("PDF exceeds the 10 MB size limit")
)

// Kind tells how a document's content is carried.
type Kind int

const (
	KindText Kind = iota
	KindPDF
)

func (k Kind) String() string {
	if k == KindPDF {
		return "pdf"
	}
	return "text"
}

// Document is a loaded file ready to be sent for generation. Text
// documents carry Text; PDFs carry their bytes base64-encoded in Encoded.
type Document struct {
	Name      string
	Kind      Kind
	Text      string
	Encoded   string
	MediaType string
	Size      int64
}

// Stats counts the words and characters of a text document.
type Stats struct {
	Words int
	Chars int
}

// Classify maps a file name to a document kind by its extension.
func Classify(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return KindText, nil
	case ".pdf":
		return KindPDF, nil
	default:
		return 0, fmt.Errorf("%s: %w", filepath.Base(name), ErrUnsupportedFormat)
	}
}

// Load reads the file at path.
func Load(path string) (Document, error) {
	if _, err := Classify(path); err != nil {
		return Document{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("error reading file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(filepath.Base(path), f)
}

// LoadReader reads a document named name from r.
func LoadReader(name string, r io.Reader) (Document, error) {
	kind, err := Classify(name)
	if err != nil {
		return Document{}, err
	}

	if kind == KindPDF {
		return loadPDF(name, r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("error reading file: %w", err)
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("�"))
	}
	return Document{
		Name:      name,
		Kind:      KindText,
		Text:      string(data),
		MediaType: "text/plain",
		Size:      int64(len(data)),
	}, nil
}

func loadPDF(name string, r io.Reader) (Document, error) {
	// Read one byte past the limit to detect oversized files without
	// holding more than that in memory.
	data, err := io.ReadAll(io.LimitReader(r, MaxPDFSize+1))
	if err != nil {
		return Document{}, fmt.Errorf("error reading file: %w", err)
	}
	if len(data) > MaxPDFSize {
		return Document{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	return Document{
		Name:      name,
		Kind:      KindPDF,
		Encoded:   base64.StdEncoding.EncodeToString(data),
		MediaType: "application/pdf",
		Size:      int64(len(data)),
	}, nil
}

// IsEmpty reports whether the document carries no content.
func (d Document) IsEmpty() bool {
	if d.Kind == KindPDF {
		return d.Encoded == ""
	}
	return strings.TrimSpace(d.Text) == ""
}

// Bytes returns the raw PDF bytes.
func (d Document) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Encoded)
}

// Stats returns word and character counts. PDFs report zero.
func (d Document) Stats() Stats {
	return Stats{
		Words: len(strings.Fields(d.Text)),
		Chars: utf8.RuneCountInString(d.Text),
	}
}

// Preview returns the first PreviewLength characters of a text document.
func (d Document) Preview() string {
	if d.Kind == KindPDF {
		return fmt.Sprintf("[PDF document, %s]", humanize.Bytes(uint64(d.Size)))
	}
	runes := []rune(d.Text)
	if len(runes) <= PreviewLength {
		return d.Text
	}
	return string(runes[:PreviewLength]) + "..."
}

// Summary is a one-line description for display.
func (d Document) Summary() string {
	if d.Kind == KindPDF {
		return fmt.Sprintf("%s (PDF, %s)", d.Name, humanize.Bytes(uint64(d.Size)))
	}
	st := d.Stats()
	return fmt.Sprintf("%s (%s words, %s characters, %s)", d.Name,
		humanize.Comma(int64(st.Words)), humanize.Comma(int64(st.Chars)), humanize.Bytes(uint64(d.Size)))
}
