package shell

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/flashgen/internal/binding"
	"codeberg.org/snonux/flashgen/internal/flashcards"
	"codeberg.org/snonux/flashgen/internal/generation"
	"codeberg.org/snonux/flashgen/internal/intake"
	"codeberg.org/snonux/flashgen/internal/processor"
	"codeberg.org/snonux/flashgen/internal/testutil"
)

type fixture struct {
	shell *Shell
	store *flashcards.Store
	env   binding.Env
	out   *bytes.Buffer
}

func newFixture(t *testing.T, results ...generation.Result) *fixture {
	t.Helper()

	env, _ := testutil.MemoryEnv(t)
	store := flashcards.NewStore(env)
	t.Cleanup(store.Close)

	gen := &testutil.MockGenerator{Results: results}
	out := &bytes.Buffer{}
	proc := processor.NewProcessor(store, func(string) (processor.Generator, error) { return gen, nil }, out, testutil.QuietLogger())

	sh := New(store, proc, &intake.Slot{}, out)
	t.Cleanup(sh.Close)
	return &fixture{shell: sh, store: store, env: env, out: out}
}

func (f *fixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	f.out.Reset()
	for _, line := range lines {
		require.NoError(t, f.shell.Execute(context.Background(), line), line)
	}
	return f.out.String()
}

func geography() generation.Success {
	return generation.Success{
		Title: "Geography",
		Cards: []generation.Card{
			{Question: "What is the capital of France?", Answer: "Paris."},
			{Question: "What is the capital of Spain?", Answer: "Madrid."},
		},
	}
}

func TestKeyCommands(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.run(t, "key"), "(not set)")
	assert.Contains(t, f.run(t, "key sk-ant-123456789"), "********6789")
	assert.Equal(t, "sk-ant-123456789", f.store.Credential())

	f.run(t, "key clear")
	assert.False(t, f.store.HasCredential())
}

func TestGenerateAndBrowse(t *testing.T) {
	f := newFixture(t, geography())
	path := testutil.CreateTextDocument(t, t.TempDir(), "notes.txt", "Paris is the capital of France.")

	f.run(t, "key sk-test", "load "+path)
	out := f.run(t, "generate")
	assert.Contains(t, out, "Created 'Geography' with 2 cards")
	assert.Contains(t, out, "Q: What is the capital of France?")

	assert.Contains(t, f.run(t, "flip"), "A: Paris.")
	out = f.run(t, "next")
	assert.Contains(t, out, "card 2/2")
	assert.Contains(t, out, "Q: What is the capital of Spain?")
	assert.Contains(t, f.run(t, "next"), "(no more cards)")
	assert.Contains(t, f.run(t, "prev"), "card 1/2")

	assert.Contains(t, f.run(t, "sets"), "* 1. Geography (2 cards")
}

func TestGenerateWithoutPreconditions(t *testing.T) {
	f := newFixture(t, geography())

	err := f.shell.Execute(context.Background(), "generate")
	assert.ErrorIs(t, err, processor.ErrNoCredential)

	f.run(t, "key sk-test")
	err = f.shell.Execute(context.Background(), "generate")
	assert.ErrorIs(t, err, processor.ErrNoDocument)
	assert.Empty(t, f.store.Sets())
}

func TestEditSelectDelete(t *testing.T) {
	f := newFixture(t)
	first, _ := f.store.AddSet("First", []flashcards.Flashcard{flashcards.NewCard("Q1", "A1")})
	second, _ := f.store.AddSet("Second", []flashcards.Flashcard{flashcards.NewCard("Q2", "A2")})
	require.Equal(t, second.ID, f.store.SelectedID())

	f.run(t, "select 1")
	assert.Equal(t, first.ID, f.store.SelectedID())

	f.run(t, "edit 1 New question | New answer")
	set, _ := f.store.Set(first.ID)
	assert.Equal(t, "New question", set.Cards[0].Question)
	assert.Equal(t, "New answer", set.Cards[0].Answer)

	assert.Error(t, f.shell.Execute(context.Background(), "edit 5 Q | A"))
	assert.Error(t, f.shell.Execute(context.Background(), "edit 1 only a question"))

	f.run(t, "delete "+first.ID[:8])
	assert.Equal(t, second.ID, f.store.SelectedID())
	assert.Len(t, f.store.Sets(), 1)
}

func TestResolveSet(t *testing.T) {
	sets := []flashcards.FlashcardSet{{ID: "abc-1"}, {ID: "abd-2"}, {ID: "xyz-3"}}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"2", "abd-2", false},
		{"xyz", "xyz-3", false},
		{"abc-1", "abc-1", false},
		{"ab", "", true},
		{"9", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ResolveSet(sets, tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveSet(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
		}
		if got.ID != tt.want {
			t.Errorf("ResolveSet(%q) = %q, want %q", tt.ref, got.ID, tt.want)
		}
	}
}

func TestExportSelected(t *testing.T) {
	f := newFixture(t)
	f.store.AddSet("Deck", []flashcards.Flashcard{flashcards.NewCard("Q", "A")})

	dir := t.TempDir()
	out := f.run(t, "export csv "+filepath.Join(dir, "deck.csv"))
	assert.Contains(t, out, "Exported 'Deck'")
	testutil.AssertFileExists(t, filepath.Join(dir, "deck.csv"))

	assert.Error(t, f.shell.Execute(context.Background(), "export pdf"))
}

func TestRemoteChangeNotice(t *testing.T) {
	f := newFixture(t)

	other := flashcards.NewStore(f.env)
	defer other.Close()

	f.out.Reset()
	other.AddSet("From elsewhere", []flashcards.Flashcard{flashcards.NewCard("Q", "A")})

	assert.Contains(t, f.out.String(), "updated by another session: 1 sets")
	assert.Len(t, f.store.Sets(), 1)
}

func TestRunLoop(t *testing.T) {
	f := newFixture(t)
	f.out.Reset()

	in := strings.NewReader("help\nbogus\nsets\nquit\nsets\n")
	require.NoError(t, f.shell.Run(context.Background(), in))

	out := f.out.String()
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, `Error: unknown command "bogus"`)
	assert.Contains(t, out, "No flashcard sets yet")
	assert.Equal(t, 1, strings.Count(out, "No flashcard sets yet"), "commands after quit must not run")
}

func TestRunEndsQuietlyAfterInterrupt(t *testing.T) {
	f := newFixture(t)
	f.out.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.shell.Run(ctx, strings.NewReader("key sk-late\n")))
	assert.False(t, f.store.HasCredential(), "no command may run after the interrupt")
}
