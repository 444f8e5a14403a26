package generation

import (
	"strings"

	"codeberg.org/snonux/flashgen/internal/intake"
)

const instruction = `Create flashcards from this document. Extract the key concepts and create question-answer pairs.

IMPORTANT: Your entire response must be valid JSON. Respond with ONLY a JSON object containing a "title" string field and a "cards" array field that contains objects with "question" and "answer" fields like this:

{
  "title": "Short descriptive title",
  "cards": [
    {
      "question": "What is ...?",
      "answer": "The explanation..."
    }
  ]
}

Create 8-10 flashcards covering the key concepts of the document.`

// BuildPrompt returns the instruction sent alongside doc. Text documents
// are inlined; PDFs travel as a separate document block.
func BuildPrompt(doc intake.Document) string {
	if doc.Kind == intake.KindPDF {
		return instruction
	}

	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\nDocument text:\n")
	sb.WriteString(doc.Text)
	return sb.String()
}
