package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/flashgen/internal/anki"
	"codeberg.org/snonux/flashgen/internal/app"
	"codeberg.org/snonux/flashgen/internal/archive"
	"codeberg.org/snonux/flashgen/internal/batch"
	"codeberg.org/snonux/flashgen/internal/flashcards"
	"codeberg.org/snonux/flashgen/internal/generation"
	"codeberg.org/snonux/flashgen/internal/intake"
	"codeberg.org/snonux/flashgen/internal/models"
	"codeberg.org/snonux/flashgen/internal/shell"
)

// openApp is replaced in tests to inject a generator.
var openApp = app.Open

func withApp(cmd *cobra.Command, watch bool, fn func(a *app.App) error) error {
	a, err := openApp(AppOptions(cmd, watch))
	if err != nil {
		return fmt.Errorf("failed to open state: %w", err)
	}
	defer a.Close()
	return fn(a)
}

func runRoot(cmd *cobra.Command, flags *Flags) error {
	out := cmd.OutOrStdout()

	if flags.Archive {
		dir := viper.GetString("storage.dir")
		if _, err := archive.ArchiveState(dir, out); err != nil {
			return fmt.Errorf("failed to archive state: %w", err)
		}
		return nil
	}

	if flags.ListModels {
		return withApp(cmd, false, func(a *app.App) error {
			config := *a.Generation()
			config.APIKey = a.Store.Credential()
			provider, err := generation.NewProvider(&config)
			if err != nil {
				return err
			}
			return models.NewLister(provider, config.ModelOrDefault(), out).ListAvailableModels(cmd.Context())
		})
	}

	return withApp(cmd, true, func(a *app.App) error {
		sh := shell.New(a.Store, a.Processor, a.Document, out)
		defer sh.Close()
		return sh.Run(cmd.Context(), cmd.InOrStdin())
	})
}

func addCommands(root *cobra.Command, flags *Flags) {
	root.AddCommand(
		keyCommand(),
		generateCommand(flags),
		setsCommand(),
		showCommand(),
		deleteCommand(),
		editCommand(flags),
		exportCommand(),
		watchCommand(),
	)
}

func keyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key>",
			Short: "Store the API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, false, func(a *app.App) error {
					if !a.Store.SetCredential(args[0]) {
						return errors.New("API key must not be blank")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "API key saved: %s\n", a.Store.MaskedCredential())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the masked API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, false, func(a *app.App) error {
					fmt.Fprintf(cmd.OutOrStdout(), "API key: %s\n", a.Store.MaskedCredential())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, false, func(a *app.App) error {
					a.Store.ClearCredential()
					fmt.Fprintln(cmd.OutOrStdout(), "API key cleared")
					return nil
				})
			},
		},
	)
	return cmd
}

func generateCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [file...]",
		Short: "Generate flashcard sets from documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.BatchFile == "" && len(args) == 0 {
				return errors.New("no document given (pass files or --batch)")
			}
			return withApp(cmd, false, func(a *app.App) error {
				return runGenerate(cmd, a, flags, args)
			})
		},
	}

	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Generate from the documents listed in a file (path or path = name per line)")
	cmd.Flags().StringVarP(&flags.SetName, "name", "n", "", "Name of the generated set (default: title from the model)")
	cmd.Flags().StringVar(&flags.Export, "export", "", "Also export each new set: apkg, csv or xlsx")
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", ".", "Directory for exported files")
	return cmd
}

func runGenerate(cmd *cobra.Command, a *app.App, flags *Flags, args []string) error {
	out := cmd.OutOrStdout()

	var format anki.Format
	if flags.Export != "" {
		f, err := anki.ParseFormat(flags.Export)
		if err != nil {
			return err
		}
		format = f
	}

	var entries []batch.Entry
	if flags.BatchFile != "" {
		listed, err := batch.ReadBatchFile(flags.BatchFile)
		if err != nil {
			return err
		}
		entries = append(entries, listed...)
	}
	for _, path := range args {
		entries = append(entries, batch.Entry{Path: path, Name: flags.SetName})
	}

	before := make(map[string]bool)
	for _, set := range a.Store.Sets() {
		before[set.ID] = true
	}

	if len(entries) == 1 {
		doc, err := intake.Load(entries[0].Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Generating flashcards from %s...\n", doc.Summary())
		set, err := a.Processor.Generate(cmd.Context(), doc, entries[0].Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created '%s' with %d cards\n", set.Name, len(set.Cards))
	} else {
		summary, err := a.Processor.ProcessBatch(cmd.Context(), entries)
		if err != nil {
			return err
		}
		if summary.Processed == 0 {
			return errors.New("no flashcard set was generated")
		}
	}

	if format == "" {
		return nil
	}
	for _, set := range a.Store.Sets() {
		if before[set.ID] {
			continue
		}
		path, err := a.Processor.Export(set.ID, format, flags.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported '%s' to %s\n", set.Name, path)
	}
	return nil
}

func setsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List flashcard sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(a *app.App) error {
				printSets(cmd.OutOrStdout(), a.Store.Sets())
				return nil
			})
		},
	}
}

func printSets(out io.Writer, sets []flashcards.FlashcardSet) {
	if len(sets) == 0 {
		fmt.Fprintln(out, "No flashcard sets yet")
		return
	}
	for i, set := range sets {
		fmt.Fprintf(out, "%d. %s (%d cards) [%s]\n", i+1, set.Name, len(set.Cards), set.ID)
	}
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <set>",
		Short: "Print every card of a set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(a *app.App) error {
				set, err := shell.ResolveSet(a.Store.Sets(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%d cards)\n", set.Name, len(set.Cards))
				for i, card := range set.Cards {
					fmt.Fprintf(out, "\n%d. Q: %s\n   A: %s\n", i+1, card.Question, card.Answer)
				}
				return nil
			})
		},
	}
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <set>",
		Short: "Delete a set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(a *app.App) error {
				set, err := shell.ResolveSet(a.Store.Sets(), args[0])
				if err != nil {
					return err
				}
				if err := a.Store.DeleteSet(set.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s'\n", set.Name)
				return nil
			})
		},
	}
}

func editCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <set> <card>",
		Short: "Change the question or answer of a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.Question == "" && flags.Answer == "" {
				return errors.New("nothing to change (use --question and/or --answer)")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid card number %q", args[1])
			}
			return withApp(cmd, false, func(a *app.App) error {
				set, err := shell.ResolveSet(a.Store.Sets(), args[0])
				if err != nil {
					return err
				}
				if n < 1 || n > len(set.Cards) {
					return flashcards.ErrCardNotFound
				}
				card := set.Cards[n-1]
				question, answer := card.Question, card.Answer
				if flags.Question != "" {
					question = flags.Question
				}
				if flags.Answer != "" {
					answer = flags.Answer
				}
				if err := a.Store.UpdateCard(set.ID, card.ID, question, answer); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Card %d of '%s' updated\n", n, set.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flags.Question, "question", "q", "", "New question text")
	cmd.Flags().StringVarP(&flags.Answer, "answer", "a", "", "New answer text")
	return cmd
}

func exportCommand() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <set>",
		Short: "Export a set as an Anki deck, CSV or spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := anki.ParseFormat(format)
			if err != nil {
				return err
			}
			return withApp(cmd, false, func(a *app.App) error {
				set, err := shell.ResolveSet(a.Store.Sets(), args[0])
				if err != nil {
					return err
				}
				path, err := a.Processor.Export(set.ID, f, output)
				if err != nil {
					return err
				}
				abs, _ := filepath.Abs(path)
				fmt.Fprintf(cmd.OutOrStdout(), "Exported '%s' to %s\n", set.Name, abs)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(anki.FormatAPKG), "Export format: apkg, csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default: named after the set)")
	return cmd
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes made to the state by other sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(a *app.App) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", a.StateDir())

				unsubscribe := a.Store.Subscribe(func(c flashcards.Change) {
					if !c.Remote {
						return
					}
					credential := "no API key"
					if c.HasCredential {
						credential = "API key set"
					}
					fmt.Fprintf(out, "%d sets, %s\n", len(c.Sets), credential)
				})
				defer unsubscribe()

				<-cmd.Context().Done()
				return nil
			})
		},
	}
}
