package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	StateDir   string
	LogLevel   string
	ListModels bool
	Archive    bool

	// Provider flags
	Provider  string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	// Generate flags
	BatchFile string
	SetName   string
	Export    string
	OutputDir string

	// Edit flags
	Question string
	Answer   string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:  "warn",
		Provider:  "anthropic",
		MaxTokens: 8000,
		Timeout:   2 * time.Minute,
	}
}
