package model

import (
	"context"
	"fmt"
	"time"
)

// GenerationStatus represents the coarse lifecycle state of a generation.
type GenerationStatus string

const (
	// GenerationStatusGenerating indicates the generation stream is in flight.
	GenerationStatusGenerating GenerationStatus = "generating"
	// GenerationStatusCompleted indicates the backend produced the template.
	GenerationStatusCompleted GenerationStatus = "completed"
	// GenerationStatusError indicates the generation failed.
	GenerationStatusError GenerationStatus = "error"
)

// GenerationStep is the fine-grained phase reported by the generation service.
// Steps advance monotonically under normal operation but a stream is not
// required to visit every one of them.
type GenerationStep string

const (
	GenerationStepValidating     GenerationStep = "validating"
	GenerationStepLoadingContext GenerationStep = "loadingContext"
	GenerationStepAnalyzingInput GenerationStep = "analyzingInput"
	GenerationStepGenerating     GenerationStep = "generating"
	GenerationStepSaving         GenerationStep = "saving"
	GenerationStepCompleted      GenerationStep = "completed"
	GenerationStepError          GenerationStep = "error"
)

// Generation represents a single user-initiated generation job and its
// tracked lifecycle state. The registry is the single writer of every
// mutable field.
type Generation struct {
	ID          string
	Prompt      string
	OwnerID     string
	ProjectID   string
	Step        GenerationStep
	Message     string
	Status      GenerationStatus
	ErrorDetail string
	CreatedAt   time.Time

	// Cancel aborts the underlying transport. Present only while the
	// generation status is generating.
	Cancel context.CancelFunc

	// UIHandle is an opaque reference to an external notification surface.
	// This subsystem never touches it beyond carrying it around.
	UIHandle interface{}
}

// IsTerminal returns true when no further progress transitions are accepted.
func (g Generation) IsTerminal() bool {
	return g.Status == GenerationStatusCompleted || g.Status == GenerationStatusError
}

// GenerationRequest is the immutable set of parameters for a new generation.
// The ID identifies the eventual template and is chosen before the backend
// resource exists, so the caller may pick it or leave it empty to get a
// generated one.
type GenerationRequest struct {
	ID        string
	Prompt    string
	OwnerID   string
	ProjectID string
	UIHandle  interface{}
}

// Validate validates the generation request.
func (r *GenerationRequest) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required: %w", ErrNotValid)
	}

	if r.OwnerID == "" {
		return fmt.Errorf("owner is required: %w", ErrNotValid)
	}

	return nil
}

// RecoveryRecord is the durable projection of an in-flight generation.
// It is written when a generation is admitted and removed on any terminal
// transition or cancellation, so its presence at process start is the sole
// signal of an interrupted session.
type RecoveryRecord struct {
	ID        string
	Prompt    string
	OwnerID   string
	ProjectID string
	CreatedAt time.Time
}
