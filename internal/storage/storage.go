package storage

import (
	"context"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
)

// RecoveryStore is the interface for the durable recovery breadcrumbs of
// in-flight generations. Records are written when a generation is admitted,
// removed on any terminal transition or cancellation, and only listed once
// at process start to reconcile an interrupted session.
type RecoveryStore interface {
	Put(ctx context.Context, r model.RecoveryRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.RecoveryRecord, error)
}
