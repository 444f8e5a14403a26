package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"codeberg.org/snonux/flashgen/internal"
	"codeberg.org/snonux/flashgen/internal/anki"
	"codeberg.org/snonux/flashgen/internal/flashcards"
	"codeberg.org/snonux/flashgen/internal/intake"
	"codeberg.org/snonux/flashgen/internal/processor"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

const prompt = "flashgen> "

// syncWriter serializes writes from the command loop and change notices.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Shell is one interactive session.
type Shell struct {
	store *flashcards.Store
	proc  *processor.Processor
	doc   *intake.Slot
	out   io.Writer

	mu        sync.Mutex
	cursor    flashcards.Cursor
	cursorSet string

	unsubscribe func()
}

// New creates a shell on top of the given store and processor. Remote
// changes to the store are announced on out until Close is called.
func New(store *flashcards.Store, proc *processor.Processor, doc *intake.Slot, out io.Writer) *Shell {
	s := &Shell{
		store: store,
		proc:  proc,
		doc:   doc,
		out:   &syncWriter{w: out},
	}
	s.unsubscribe = store.Subscribe(func(c flashcards.Change) {
		if c.Remote {
			fmt.Fprintf(s.out, "\n[updated by another session: %d sets]\n", len(c.Sets))
		}
	})
	return s
}

// Close stops change notices.
func (s *Shell) Close() {
	s.unsubscribe()
}

// Run reads commands from in until EOF or quit. Once ctx is done the
// next line ends the session without error.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(s.out, "flashgen %s - type 'help' for commands\n", internal.Version)
	if !s.store.HasCredential() {
		fmt.Fprintln(s.out, "No API key set yet. Use 'key <value>' first.")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		// interrupted: leave quietly like quit
		if ctx.Err() != nil {
			fmt.Fprintln(s.out)
			return nil
		}

		err := s.Execute(ctx, scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

// Execute runs a single command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "help", "?":
		s.help()
		return nil
	case "quit", "exit", "q":
		return ErrQuit
	case "key":
		return s.key(rest)
	case "load":
		return s.load(rest)
	case "doc":
		return s.showDocument()
	case "generate", "gen":
		return s.generate(ctx, rest)
	case "sets", "ls":
		s.listSets()
		return nil
	case "select":
		return s.selectSet(rest)
	case "delete", "rm":
		return s.deleteSet(rest)
	case "show":
		return s.show()
	case "next", "n":
		return s.move(true)
	case "prev", "p":
		return s.move(false)
	case "flip", "f":
		s.withCursor(func(c *flashcards.Cursor, _ flashcards.FlashcardSet) { c.Flip() })
		return s.show()
	case "edit":
		return s.edit(rest)
	case "export":
		return s.export(rest)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (s *Shell) help() {
	fmt.Fprint(s.out, `Commands:
  key [value|clear]          show, set or clear the API key
  load <file>                load a .txt, .md or .pdf document
  doc                        show the loaded document
  generate [name]            generate a flashcard set from the document
  sets                       list flashcard sets
  select <n|id>              select a set
  delete <n|id>              delete a set
  show                       show the current card
  next, prev, flip           browse the selected set
  edit <card> <q> | <a>      change a card of the selected set
  export <apkg|csv|xlsx> [path]
  quit
`)
}

func (s *Shell) key(arg string) error {
	switch arg {
	case "":
		fmt.Fprintf(s.out, "API key: %s\n", s.store.MaskedCredential())
	case "clear":
		s.store.ClearCredential()
		fmt.Fprintln(s.out, "API key cleared")
	default:
		if !s.store.SetCredential(arg) {
			return errors.New("API key must not be blank")
		}
		fmt.Fprintf(s.out, "API key saved: %s\n", s.store.MaskedCredential())
	}
	return nil
}

func (s *Shell) load(path string) error {
	if path == "" {
		return errors.New("usage: load <file>")
	}
	doc, err := s.doc.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Loaded %s\n", doc.Summary())
	return nil
}

func (s *Shell) showDocument() error {
	doc, ok := s.doc.Current()
	if !ok {
		return processor.ErrNoDocument
	}
	fmt.Fprintln(s.out, doc.Summary())
	if preview := doc.Preview(); preview != "" {
		fmt.Fprintf(s.out, "\n%s\n", preview)
	}
	return nil
}

func (s *Shell) generate(ctx context.Context, name string) error {
	doc, _ := s.doc.Current()
	fmt.Fprintln(s.out, "Generating flashcards...")

	set, err := s.proc.Generate(ctx, doc, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Created '%s' with %d cards\n", set.Name, len(set.Cards))
	return s.show()
}

func (s *Shell) listSets() {
	sets := s.store.Sets()
	if len(sets) == 0 {
		fmt.Fprintln(s.out, "No flashcard sets yet")
		return
	}
	selected := s.store.SelectedID()
	for i, set := range sets {
		marker := " "
		if set.ID == selected {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %d. %s (%d cards, %s) [%s]\n",
			marker, i+1, set.Name, len(set.Cards), humanize.Time(set.CreatedAt), shortID(set.ID))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ResolveSet finds a set by 1-based position, id or unique id prefix.
func ResolveSet(sets []flashcards.FlashcardSet, ref string) (flashcards.FlashcardSet, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return flashcards.FlashcardSet{}, errors.New("no set given")
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sets) {
		return sets[n-1], nil
	}

	var match []flashcards.FlashcardSet
	for _, set := range sets {
		if set.ID == ref {
			return set, nil
		}
		if strings.HasPrefix(set.ID, ref) {
			match = append(match, set)
		}
	}
	switch len(match) {
	case 0:
		return flashcards.FlashcardSet{}, flashcards.ErrSetNotFound
	case 1:
		return match[0], nil
	default:
		return flashcards.FlashcardSet{}, fmt.Errorf("set reference %q is ambiguous", ref)
	}
}

func (s *Shell) selectSet(ref string) error {
	set, err := ResolveSet(s.store.Sets(), ref)
	if err != nil {
		return err
	}
	s.store.SelectSet(set.ID)
	return s.show()
}

func (s *Shell) deleteSet(ref string) error {
	set, err := ResolveSet(s.store.Sets(), ref)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSet(set.ID); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Deleted '%s'\n", set.Name)
	return nil
}

// withCursor runs fn on the cursor for the selected set, resetting it
// when the selection changed since the last call.
func (s *Shell) withCursor(fn func(*flashcards.Cursor, flashcards.FlashcardSet)) bool {
	set, ok := s.store.Selected()
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorSet != set.ID {
		s.cursor.Reset()
		s.cursorSet = set.ID
	}
	fn(&s.cursor, set)
	return true
}

func (s *Shell) move(forward bool) error {
	moved := false
	ok := s.withCursor(func(c *flashcards.Cursor, set flashcards.FlashcardSet) {
		if forward {
			moved = c.Next(set)
		} else {
			moved = c.Prev()
		}
	})
	if !ok {
		return errors.New("no set selected")
	}
	if !moved {
		fmt.Fprintln(s.out, "(no more cards)")
	}
	return s.show()
}

func (s *Shell) show() error {
	var (
		card  flashcards.Flashcard
		found bool
		name  string
		pos   flashcards.Cursor
		total int
	)
	ok := s.withCursor(func(c *flashcards.Cursor, set flashcards.FlashcardSet) {
		card, found = c.Current(set)
		name, pos, total = set.Name, *c, len(set.Cards)
	})
	if !ok {
		fmt.Fprintln(s.out, "No set selected")
		return nil
	}
	if !found {
		fmt.Fprintf(s.out, "%s has no cards\n", name)
		return nil
	}

	fmt.Fprintf(s.out, "%s - card %d/%d\n", name, pos.Index+1, total)
	if pos.Flipped {
		fmt.Fprintf(s.out, "A: %s\n", card.Answer)
	} else {
		fmt.Fprintf(s.out, "Q: %s\n", card.Question)
	}
	return nil
}

func (s *Shell) edit(arg string) error {
	num, rest, _ := strings.Cut(arg, " ")
	question, answer, found := strings.Cut(rest, "|")
	n, err := strconv.Atoi(num)
	if err != nil || !found {
		return errors.New("usage: edit <card number> <question> | <answer>")
	}

	set, ok := s.store.Selected()
	if !ok {
		return errors.New("no set selected")
	}
	if n < 1 || n > len(set.Cards) {
		return flashcards.ErrCardNotFound
	}

	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return errors.New("question and answer must not be empty")
	}
	if err := s.store.UpdateCard(set.ID, set.Cards[n-1].ID, question, answer); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Card %d updated\n", n)
	return nil
}

func (s *Shell) export(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return errors.New("usage: export <apkg|csv|xlsx> [path]")
	}
	format, err := anki.ParseFormat(fields[0])
	if err != nil {
		return err
	}
	var path string
	if len(fields) > 1 {
		path = fields[1]
	}

	set, ok := s.store.Selected()
	if !ok {
		return errors.New("no set selected")
	}
	written, err := s.proc.Export(set.ID, format, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Exported '%s' to %s\n", set.Name, written)
	return nil
}
