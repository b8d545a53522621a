package printer_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/orchestrator"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/printer"
)

func testGenerations() []model.Generation {
	return []model.Generation{
		{
			ID:        "01JF3V7PZD6YT1C7QH2M0X9KWB",
			Prompt:    "A welcome email",
			OwnerID:   "user-1",
			Status:    model.GenerationStatusGenerating,
			Step:      model.GenerationStepGenerating,
			Message:   "Generating template",
			CreatedAt: time.Now().UTC().Add(-2 * time.Minute),
		},
		{
			ID:          "01JF3V7PZD6YT1C7QH2M0X9KWC",
			Prompt:      "A newsletter",
			OwnerID:     "user-1",
			Status:      model.GenerationStatusError,
			Step:        model.GenerationStepError,
			ErrorDetail: "generation failed",
			CreatedAt:   time.Now().UTC().Add(-1 * time.Hour),
		},
	}
}

func TestTablePrinterGenerations(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(t, p.PrintGenerations(testGenerations()))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "01JF3V7PZD6YT1C7QH2M0X9KWB")
	assert.Contains(t, out, "generating")
	assert.Contains(t, out, "2 minutes ago (UTC)")
	// Errored generations show their detail in the message column.
	assert.Contains(t, out, "generation failed")
}

func TestTablePrinterGenerationsEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(t, p.PrintGenerations(nil))
	assert.Empty(t, buf.String())
}

func TestTablePrinterRecovery(t *testing.T) {
	tests := map[string]struct {
		result  orchestrator.RecoveryResult
		expText []string
	}{
		"no interrupted generations": {
			result:  orchestrator.RecoveryResult{},
			expText: []string{"No interrupted generations found."},
		},
		"completed and lost generations": {
			result: orchestrator.RecoveryResult{
				Completed: []string{"gen-1"},
				Lost:      []string{"gen-2"},
			},
			expText: []string{"Completed while away: gen-1", "Lost: gen-2"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			require.NoError(t, p.PrintRecovery(test.result))
			for _, text := range test.expText {
				assert.Contains(t, buf.String(), text)
			}
		})
	}
}

func TestJSONPrinterGenerations(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	require.NoError(t, p.PrintGenerations(testGenerations()))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "01JF3V7PZD6YT1C7QH2M0X9KWB", out[0]["id"])
	assert.Equal(t, "generating", out[0]["status"])
	assert.Equal(t, "generation failed", out[1]["error_detail"])
}

func TestJSONPrinterRecovery(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	require.NoError(t, p.PrintRecovery(orchestrator.RecoveryResult{Lost: []string{"gen-1"}}))

	var out map[string][]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []string{}, out["completed"])
	assert.Equal(t, []string{"gen-1"}, out["lost"])
}

func TestTimeAgo(t *testing.T) {
	now := time.Now().UTC()

	tests := map[string]struct {
		t   time.Time
		exp string
	}{
		"seconds":  {t: now.Add(-5 * time.Second), exp: "5 seconds ago (UTC)"},
		"a minute": {t: now.Add(-1 * time.Minute), exp: "1 minute ago (UTC)"},
		"hours":    {t: now.Add(-3 * time.Hour), exp: "3 hours ago (UTC)"},
		"days":     {t: now.Add(-48 * time.Hour), exp: "2 days ago (UTC)"},
		"future":   {t: now.Add(time.Hour), exp: "in the future (UTC)"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.TimeAgo(test.t))
		})
	}
}
