package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/flashgen/internal"
	"codeberg.org/snonux/flashgen/internal/app"
	"codeberg.org/snonux/flashgen/internal/generation"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flashgen",
		Short: "Document to Flashcard Generator",
		Long: `flashgen turns a text or PDF document into question/answer flashcards
using a language model, and keeps the generated sets in a local state
directory shared by every running flashgen session.

Examples:
  flashgen                              # Start the interactive shell (default)
  flashgen key set sk-ant-...           # Store the API key
  flashgen generate notes.pdf           # Generate a set from a document
  flashgen generate --batch docs.txt    # Generate one set per listed document
  flashgen export 1 --format apkg       # Export the first set as an Anki deck`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, flags)
		},
	}

	setupFlags(rootCmd, flags)
	addCommands(rootCmd, flags)

	return rootCmd
}

// DefaultStateDir returns ~/.local/state/flashgen.
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "flashgen")
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.flashgen.yaml)")
	pf.StringVar(&flags.StateDir, "state-dir", DefaultStateDir(), "Directory holding the flashcard sets and API key")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&flags.Provider, "provider", flags.Provider, "Generation provider: anthropic, openai or gemini")
	pf.StringVar(&flags.Model, "model", "", "Model name (default depends on the provider)")
	pf.IntVar(&flags.MaxTokens, "max-tokens", flags.MaxTokens, "Maximum tokens in the model reply")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout for one generation request")

	// Local flags
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List the models available to the stored API key")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the state directory aside and start empty")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("storage.dir", pf.Lookup("state-dir"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("provider.name", pf.Lookup("provider"))
	viper.BindPFlag("provider.model", pf.Lookup("model"))
	viper.BindPFlag("provider.max_tokens", pf.Lookup("max-tokens"))
	viper.BindPFlag("provider.timeout", pf.Lookup("timeout"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// a .env file in the working directory may provide FLASHGEN_* variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".flashgen" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".flashgen")
	}

	viper.SetDefault("storage.quota_bytes", app.DefaultQuotaBytes)

	// Environment variables, e.g. FLASHGEN_PROVIDER_NAME
	viper.SetEnvPrefix("FLASHGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GenerationConfig builds the provider settings from viper.
func GenerationConfig() *generation.Config {
	config := generation.DefaultConfig()
	if v := viper.GetString("provider.name"); v != "" {
		config.Provider = strings.ToLower(v)
	}
	config.Model = viper.GetString("provider.model")
	if v := viper.GetInt("provider.max_tokens"); v > 0 {
		config.MaxTokens = v
	}
	if v := viper.GetDuration("provider.timeout"); v > 0 {
		config.Timeout = v
	}
	config.BaseURL = viper.GetString("provider.base_url")
	return config
}

// AppOptions builds the application options from viper.
func AppOptions(cmd *cobra.Command, watch bool) app.Options {
	dir := viper.GetString("storage.dir")
	if dir == "" {
		dir = DefaultStateDir()
	}
	return app.Options{
		StateDir:   dir,
		QuotaBytes: viper.GetInt64("storage.quota_bytes"),
		LogLevel:   viper.GetString("log.level"),
		Generation: GenerationConfig(),
		Watch:      watch,
		Out:        cmd.OutOrStdout(),
		LogOut:     cmd.ErrOrStderr(),
	}
}
