package printer

import (
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/orchestrator"
)

// Printer knows how to print generation information in different formats.
type Printer interface {
	PrintGenerations(generations []model.Generation) error
	PrintRecovery(result orchestrator.RecoveryResult) error
	PrintMessage(msg string) error
}
