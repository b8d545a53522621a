package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/orchestrator"
)

// TablePrinter prints generation information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintGenerations prints generations in a table format.
func (t *TablePrinter) PrintGenerations(generations []model.Generation) error {
	if len(generations) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tSTATUS\tSTEP\tMESSAGE\tCREATED")

	for _, g := range generations {
		message := g.Message
		if g.Status == model.GenerationStatusError {
			message = g.ErrorDetail
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.ID, g.Status, g.Step, message, TimeAgo(g.CreatedAt))
	}

	return nil
}

// PrintRecovery prints the outcome of a recovery reconciliation pass.
func (t *TablePrinter) PrintRecovery(result orchestrator.RecoveryResult) error {
	if len(result.Completed) == 0 && len(result.Lost) == 0 {
		fmt.Fprintln(t.writer, "No interrupted generations found.")
		return nil
	}

	for _, id := range result.Completed {
		fmt.Fprintf(t.writer, "Completed while away: %s\n", id)
	}
	for _, id := range result.Lost {
		fmt.Fprintf(t.writer, "Lost: %s\n", id)
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}
