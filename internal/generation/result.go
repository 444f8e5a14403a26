package generation

// Card is one question/answer pair as returned by the model.
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Result is either Success or Failure.
type Result interface {
	isResult()
}

// Success carries the parsed reply. Title may be empty when the model
// returned a bare array of cards.
type Success struct {
	Title string
	Cards []Card
}

// Failure carries a message fit for showing to the user.
type Failure struct {
	Message string
}

func (Success) isResult() {}
func (Failure) isResult() {}
