package flashcards

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSetName names a set when neither a title nor a file name is known.
const DefaultSetName = "Untitled Set"

// Flashcard is one question/answer pair.
type Flashcard struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}

// FlashcardSet is a named, ordered collection of cards produced from one document.
type FlashcardSet struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Cards     []Flashcard `json:"cards"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewCard creates a card with a fresh id and creation time.
func NewCard(question, answer string) Flashcard {
	return Flashcard{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now(),
	}
}

// Card returns the card with the given id.
func (s FlashcardSet) Card(id string) (Flashcard, bool) {
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Flashcard{}, false
}

func cloneSets(sets []FlashcardSet) []FlashcardSet {
	out := make([]FlashcardSet, len(sets))
	for i, s := range sets {
		out[i] = s
		out[i].Cards = append([]Flashcard(nil), s.Cards...)
	}
	return out
}
