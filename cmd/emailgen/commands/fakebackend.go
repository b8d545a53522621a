package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/backend/fake"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
)

type FakeBackendCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	addr      string
	stepDelay time.Duration
}

// NewFakeBackendCommand returns the fake-backend command.
func NewFakeBackendCommand(rootCmd *RootCommand, app *kingpin.Application) *FakeBackendCommand {
	c := &FakeBackendCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("fake-backend", "Run a local generation service that streams scripted results, for development and demos.")
	c.Cmd.Flag("addr", "Address the server listens on.").Default(":8080").StringVar(&c.addr)
	c.Cmd.Flag("step-delay", "Delay between streamed progress records.").Default("300ms").DurationVar(&c.stepDelay)

	return c
}

func (c FakeBackendCommand) Name() string { return c.Cmd.FullCommand() }

func (c FakeBackendCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger.WithValues(log.Kv{"addr": c.addr})

	handler, err := fake.NewServer(fake.ServerConfig{
		StepDelay: c.stepDelay,
		Logger:    c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create fake backend: %w", err)
	}

	server := &http.Server{
		Addr:    c.addr,
		Handler: handler,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Infof("Fake backend listening")
		errC <- server.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("fake backend stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("Shutting down fake backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut down fake backend: %w", err)
	}

	return nil
}
