// Package app wires storage, the change bus, the flashcard store and the
// processor into one handle that is opened once per process.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/binding"
	"codeberg.org/snonux/flashgen/internal/flashcards"
	"codeberg.org/snonux/flashgen/internal/generation"
	"codeberg.org/snonux/flashgen/internal/intake"
	"codeberg.org/snonux/flashgen/internal/processor"
	"codeberg.org/snonux/flashgen/internal/storage"
)

// DefaultQuotaBytes mirrors the usual browser storage limit.
const DefaultQuotaBytes = 5 << 20

// Options configures Open.
type Options struct {
	StateDir   string
	QuotaBytes int64
	LogLevel   string

	// Generation is copied per run with the stored credential as API key.
	Generation *generation.Config

	// Factory overrides the generation service factory, mainly for tests.
	Factory processor.ServiceFactory

	// Watch enables notifications about changes made by other processes.
	Watch bool

	Out    io.Writer
	LogOut io.Writer
}

// App is the process-wide handle.
type App struct {
	Log       *logrus.Logger
	Storage   *storage.FileStorage
	Bus       *binding.Bus
	Store     *flashcards.Store
	Processor *processor.Processor
	Document  *intake.Slot

	opts   Options
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLogger creates the logger used throughout the application.
func NewLogger(level string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if level == "" {
		level = "warn"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(lvl)
	return log, nil
}

// Open creates the state directory if needed and loads the store from it.
func Open(opts Options) (*App, error) {
	log, err := NewLogger(opts.LogLevel, opts.LogOut)
	if err != nil {
		return nil, err
	}
	if opts.QuotaBytes == 0 {
		opts.QuotaBytes = DefaultQuotaBytes
	}
	if opts.Generation == nil {
		opts.Generation = generation.DefaultConfig()
	}
	if opts.Generation.Log == nil {
		opts.Generation.Log = log
	}
	if opts.Factory == nil {
		opts.Factory = processor.ServiceFactoryFor(opts.Generation)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	fs, err := storage.NewFileStorage(opts.StateDir, opts.QuotaBytes)
	if err != nil {
		return nil, err
	}

	a := &App{
		Log:      log,
		Storage:  fs,
		Bus:      binding.NewBus(),
		Document: &intake.Slot{},
		opts:     opts,
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	env := binding.Env{Storage: fs, Bus: a.Bus, Log: log}
	a.Store = flashcards.NewStore(env)
	a.Processor = processor.NewProcessor(a.Store, opts.Factory, opts.Out, log)

	if opts.Watch {
		if err := a.watch(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{"dir": fs.Dir(), "sets": len(a.Store.Sets())}).Debug("state opened")
	return a, nil
}

func (a *App) watch(ctx context.Context) error {
	events, errs, err := a.Storage.Watch(ctx)
	if err != nil {
		return err
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		binding.Relay(ctx, events, a.Bus)
	}()
	go func() {
		defer a.wg.Done()
		for err := range errs {
			a.Log.WithError(err).Warn("state watcher error")
		}
	}()
	return nil
}

// Generation returns the generation settings in effect.
func (a *App) Generation() *generation.Config {
	return a.opts.Generation
}

// StateDir returns the directory holding the persisted state.
func (a *App) StateDir() string {
	return a.Storage.Dir()
}

// Close stops the watcher and detaches the store from the bus.
func (a *App) Close() {
	a.cancel()
	a.wg.Wait()
	if a.Store != nil {
		a.Store.Close()
	}
}
