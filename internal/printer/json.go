package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/orchestrator"
)

// JSONPrinter prints generation information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// generationOutput represents a generation in the JSON output.
type generationOutput struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	OwnerID     string    `json:"owner_id"`
	ProjectID   string    `json:"project_id,omitempty"`
	Status      string    `json:"status"`
	Step        string    `json:"step"`
	Message     string    `json:"message,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// recoveryOutput represents a recovery pass outcome in the JSON output.
type recoveryOutput struct {
	Completed []string `json:"completed"`
	Lost      []string `json:"lost"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintGenerations prints generations as a JSON array.
func (j *JSONPrinter) PrintGenerations(generations []model.Generation) error {
	out := make([]generationOutput, 0, len(generations))
	for _, g := range generations {
		out = append(out, generationOutput{
			ID:          g.ID,
			Prompt:      g.Prompt,
			OwnerID:     g.OwnerID,
			ProjectID:   g.ProjectID,
			Status:      string(g.Status),
			Step:        string(g.Step),
			Message:     g.Message,
			ErrorDetail: g.ErrorDetail,
			CreatedAt:   g.CreatedAt,
		})
	}

	return j.encode(out)
}

// PrintRecovery prints the outcome of a recovery reconciliation pass.
func (j *JSONPrinter) PrintRecovery(result orchestrator.RecoveryResult) error {
	out := recoveryOutput{Completed: result.Completed, Lost: result.Lost}
	if out.Completed == nil {
		out.Completed = []string{}
	}
	if out.Lost == nil {
		out.Lost = []string{}
	}

	return j.encode(out)
}

// PrintMessage prints a simple message as JSON.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
