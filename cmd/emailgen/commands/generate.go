package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/jobfile"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/printer"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/pkg/generation"
)

type GenerateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	prompt  string
	owner   string
	project string
	file    string
	format  string
}

// NewGenerateCommand returns the generate command.
func NewGenerateCommand(rootCmd *RootCommand, app *kingpin.Application) *GenerateCommand {
	c := &GenerateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("generate", "Generate email templates from prompts and wait for the results.")
	c.Cmd.Arg("prompt", "Prompt describing the email template to generate.").StringVar(&c.prompt)
	c.Cmd.Flag("owner", "Owner of the generated templates.").Default("local").StringVar(&c.owner)
	c.Cmd.Flag("project", "Optional project the templates belong to.").StringVar(&c.project)
	c.Cmd.Flag("file", "YAML file with multiple generation jobs (replaces the prompt argument).").Short('f').StringVar(&c.file)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c GenerateCommand) Name() string { return c.Cmd.FullCommand() }

func (c GenerateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	reqs, err := c.requests(ctx)
	if err != nil {
		return err
	}

	client, err := generation.New(ctx, generation.Config{
		BackendURL: c.rootCmd.BackendURL,
		DBPath:     c.rootCmd.DBPath,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create generation client: %w", err)
	}
	defer client.Close()

	// Reconcile whatever a previous interrupted run left behind before
	// starting anything new.
	recovery, err := client.Recover(ctx)
	if err != nil {
		return fmt.Errorf("could not recover previous session: %w", err)
	}
	for _, id := range recovery.Completed {
		logger.Infof("Generation %q from a previous session already finished on the backend", id)
	}
	for _, id := range recovery.Lost {
		logger.Warningf("Generation %q from a previous session was lost", id)
	}

	waiter := newGenerationWaiter(logger)
	unsubscribe := client.Subscribe(waiter.observe)
	defer unsubscribe()

	started := 0
	for _, req := range reqs {
		id, err := c.startWhenSlotFree(ctx, client, req)
		if err != nil {
			logger.WithValues(log.Kv{"id": req.ID}).Errorf("Could not start generation: %s", err)
			continue
		}
		waiter.track(id)
		started++
	}
	if started == 0 {
		return fmt.Errorf("no generation could be started")
	}
	waiter.arm()

	results, err := waiter.wait(ctx)
	if err != nil {
		return err
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintGenerations(results); err != nil {
		return fmt.Errorf("could not print generations: %w", err)
	}

	return nil
}

// startWhenSlotFree starts the generation, waiting for an in-flight slot to
// free up when the concurrency ceiling is hit (e.g. job files with more jobs
// than slots).
func (c GenerateCommand) startWhenSlotFree(ctx context.Context, client *generation.Client, req model.GenerationRequest) (string, error) {
	for {
		id, err := client.Start(ctx, req)
		if !errors.Is(err, generation.ErrCapacityExceeded) {
			return id, err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (c GenerateCommand) requests(ctx context.Context) ([]model.GenerationRequest, error) {
	if c.file != "" {
		abs, err := filepath.Abs(c.file)
		if err != nil {
			return nil, fmt.Errorf("invalid job file path: %w", err)
		}

		repo := jobfile.NewYAMLRepository(os.DirFS(filepath.Dir(abs)))
		reqs, err := repo.GetRequests(ctx, filepath.Base(abs))
		if err != nil {
			return nil, fmt.Errorf("could not load job file: %w", err)
		}
		return reqs, nil
	}

	if c.prompt == "" {
		return nil, fmt.Errorf("a prompt argument or a job file is required")
	}

	return []model.GenerationRequest{{
		Prompt:    c.prompt,
		OwnerID:   c.owner,
		ProjectID: c.project,
	}}, nil
}

// generationWaiter tracks started generations through registry snapshots and
// unblocks once every tracked one reached a terminal state (or was removed).
type generationWaiter struct {
	logger log.Logger

	mu       sync.Mutex
	armed    bool
	pending  map[string]bool
	lastStep map[string]model.GenerationStep
	final    map[string]model.Generation
	done     chan struct{}
}

func newGenerationWaiter(logger log.Logger) *generationWaiter {
	return &generationWaiter{
		logger:   logger,
		pending:  map[string]bool{},
		lastStep: map[string]model.GenerationStep{},
		final:    map[string]model.Generation{},
		done:     make(chan struct{}),
	}
}

func (w *generationWaiter) track(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[id] = true
}

// arm marks tracking as complete, only then an empty pending set means done.
// Without it the initial subscription snapshot would unblock wait before
// anything started.
func (w *generationWaiter) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armed = true
	w.checkDone()
}

// observe is a registry subscriber, it must not call back into the client.
func (w *generationWaiter) observe(snapshot generation.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id := range w.pending {
		g, ok := snapshot[id]
		if !ok {
			// Seen before and gone now: cancelled or expired.
			if _, seen := w.final[id]; seen {
				delete(w.pending, id)
			}
			continue
		}

		w.final[id] = g
		if g.Step != w.lastStep[id] {
			w.lastStep[id] = g.Step
			w.logger.WithValues(log.Kv{"id": id, "step": g.Step}).Infof("%s", g.Message)
		}
		if g.IsTerminal() {
			delete(w.pending, id)
		}
	}

	w.checkDone()
}

// checkDone must be called with the lock held.
func (w *generationWaiter) checkDone() {
	if !w.armed || len(w.pending) != 0 {
		return
	}
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

func (w *generationWaiter) wait(ctx context.Context) ([]model.Generation, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.done:
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	results := make([]model.Generation, 0, len(w.final))
	for _, g := range w.final {
		results = append(results, g)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	return results, nil
}
