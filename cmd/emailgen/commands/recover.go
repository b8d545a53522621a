package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/printer"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/pkg/generation"
)

type RecoverCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewRecoverCommand returns the recover command.
func NewRecoverCommand(rootCmd *RootCommand, app *kingpin.Application) *RecoverCommand {
	c := &RecoverCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("recover", "Reconcile generations interrupted by a previous crash against the backend.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c RecoverCommand) Name() string { return c.Cmd.FullCommand() }

func (c RecoverCommand) Run(ctx context.Context) error {
	client, err := generation.New(ctx, generation.Config{
		BackendURL: c.rootCmd.BackendURL,
		DBPath:     c.rootCmd.DBPath,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create generation client: %w", err)
	}
	defer client.Close()

	result, err := client.Recover(ctx)
	if err != nil {
		return fmt.Errorf("could not recover previous session: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintRecovery(*result); err != nil {
		return fmt.Errorf("could not print recovery result: %w", err)
	}

	return nil
}
