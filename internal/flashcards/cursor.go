package flashcards

// Cursor tracks the card being studied within the selected set and
// whether its answer side is showing.
type Cursor struct {
	Index   int
	Flipped bool
}

// Reset returns to the first card, question side up.
func (c *Cursor) Reset() {
	c.Index = 0
	c.Flipped = false
}

// Next advances to the following card of set, if any.
func (c *Cursor) Next(set FlashcardSet) bool {
	if c.Index >= len(set.Cards)-1 {
		return false
	}
	c.Index++
	c.Flipped = false
	return true
}

// Prev moves back one card, if possible.
func (c *Cursor) Prev() bool {
	if c.Index <= 0 {
		return false
	}
	c.Index--
	c.Flipped = false
	return true
}

// Flip toggles between question and answer.
func (c *Cursor) Flip() {
	c.Flipped = !c.Flipped
}

// Current returns the card under the cursor. The index is clamped when
// the set has shrunk since the cursor last moved.
func (c *Cursor) Current(set FlashcardSet) (Flashcard, bool) {
	if len(set.Cards) == 0 {
		return Flashcard{}, false
	}
	if c.Index >= len(set.Cards) {
		c.Index = len(set.Cards) - 1
	}
	if c.Index < 0 {
		c.Index = 0
	}
	return set.Cards[c.Index], true
}
