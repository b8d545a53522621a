package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/backend"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/registry"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/stream"
)

// Generic error details for transport failures. The real transport error is
// logged, the generation itself only carries a human-readable summary.
const (
	connClosedDetail = "connection closed before the generation finished"
	connFailedDetail = "could not reach the generation service"
)

// ServiceConfig is the configuration for the orchestrator service.
type ServiceConfig struct {
	Registry      *registry.Registry
	Backend       backend.Client
	RecoveryStore storage.RecoveryStore
	Logger        log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Registry == nil {
		return fmt.Errorf("registry is required")
	}
	if c.Backend == nil {
		return fmt.Errorf("backend client is required")
	}
	if c.RecoveryStore == nil {
		return fmt.Errorf("recovery store is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.Service"})
	return nil
}

// Service is the generation lifecycle façade: it starts generations subject
// to admission, drives their event streams into the registry, exposes
// cancellation and reconciles interrupted sessions at startup.
type Service struct {
	registry *registry.Registry
	backend  backend.Client
	store    storage.RecoveryStore
	logger   log.Logger

	recovering atomic.Bool
	streams    sync.WaitGroup
}

// NewService creates a new orchestrator service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		registry: cfg.Registry,
		backend:  cfg.Backend,
		store:    cfg.RecoveryStore,
		logger:   cfg.Logger,
	}, nil
}

// Start admits a new generation and begins streaming it in the background.
// It fails with model.ErrCapacityExceeded before any network call when the
// ceiling is reached. It returns the generation ID, which is also the ID of
// the eventual template resource; when the request carries no ID a new one
// is generated.
func (s *Service) Start(ctx context.Context, req model.GenerationRequest) (string, error) {
	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	if !s.registry.CanAdmit() {
		return "", fmt.Errorf("could not start generation: %w", model.ErrCapacityExceeded)
	}

	if err := s.registry.Admit(ctx, req); err != nil {
		return "", fmt.Errorf("could not admit generation: %w", err)
	}

	// The stream gets its own cancellable context, the cancel func is the
	// abort handle the registry invokes on cancellation.
	streamCtx, cancel := context.WithCancel(ctx)
	s.registry.AttachCancel(req.ID, cancel)

	s.streams.Add(1)
	go func() {
		defer s.streams.Done()
		defer cancel()
		s.consume(streamCtx, req)
	}()

	s.logger.Infof("Started generation %s", req.ID)
	return req.ID, nil
}

// Cancel aborts a generating generation.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.registry.Cancel(ctx, id)
}

// Wait blocks until every in-flight stream goroutine has finished. Intended
// for orderly shutdown, it does not cancel anything by itself.
func (s *Service) Wait() {
	s.streams.Wait()
}

// consume drives the event stream of a single generation into the registry.
func (s *Service) consume(ctx context.Context, req model.GenerationRequest) {
	// Registry transitions must still run after the stream context is
	// cancelled or closed, they use a detached context.
	applyCtx := context.WithoutCancel(ctx)

	body, err := s.backend.Generate(ctx, backend.GenerateRequest{
		TemplateID: req.ID,
		Prompt:     req.Prompt,
		OwnerID:    req.OwnerID,
		ProjectID:  req.ProjectID,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled while connecting, the generation is already gone.
			return
		}
		s.logger.Errorf("Could not open generation stream for %s: %s", req.ID, err)
		s.registry.ApplyError(applyCtx, req.ID, connFailedDetail)
		return
	}
	defer body.Close()

	decoder, err := stream.NewDecoder(stream.DecoderConfig{Reader: body, Logger: s.logger})
	if err != nil {
		s.registry.ApplyError(applyCtx, req.ID, connClosedDetail)
		return
	}

	for {
		event, err := decoder.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Errorf("Generation stream %s failed: %s", req.ID, err)
			}
			break
		}

		switch event := event.(type) {
		case stream.Progress:
			s.registry.ApplyProgress(req.ID, event.Step, event.Message)

		case stream.Success:
			s.registry.ApplySuccess(applyCtx, req.ID, event.Template)
			return

		case stream.Failure:
			detail := event.Error
			if event.Details != "" {
				detail = fmt.Sprintf("%s: %s", event.Error, event.Details)
			}
			s.registry.ApplyError(applyCtx, req.ID, detail)
			return
		}
	}

	// The stream ended without a terminal record. If it was a cancellation
	// the generation is already removed and ApplyError is a no-op anyway.
	s.registry.ApplyError(applyCtx, req.ID, connClosedDetail)
}

// RecoveryResult summarizes a recovery reconciliation pass.
type RecoveryResult struct {
	// Completed holds the IDs of generations whose template exists on the
	// backend: they finished while the client was gone.
	Completed []string
	// Lost holds the IDs of generations that were genuinely interrupted and
	// cannot be resumed.
	Lost []string
}

// Recover reconciles the recovery records of a previous interrupted session
// against the backend. Records whose template exists are discarded silently
// (the generation completed while the client was gone), the rest are
// discarded as lost. No generation is ever re-admitted into the registry.
//
// Recover is idempotent and safe under concurrent invocation: a second call
// while one is in progress is a no-op.
func (s *Service) Recover(ctx context.Context) (*RecoveryResult, error) {
	if !s.recovering.CompareAndSwap(false, true) {
		s.logger.Debugf("Recovery already in progress, skipping")
		return &RecoveryResult{}, nil
	}
	defer s.recovering.Store(false)

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list recovery records: %w", err)
	}

	result := &RecoveryResult{}
	for _, record := range records {
		exists, err := s.backend.TemplateExists(ctx, record.ID)
		if err != nil {
			// Indistinguishable from "not found" by design: an unfinished
			// record must never resurrect a generation with a dead stream.
			s.logger.Warningf("Could not check template %s during recovery, treating it as unfinished: %s", record.ID, err)
			exists = false
		}

		if exists {
			s.logger.Infof("Generation %s completed while the session was gone, discarding its record", record.ID)
			result.Completed = append(result.Completed, record.ID)
		} else {
			s.logger.Warningf("Generation %s was interrupted and can't be resumed, discarding its record", record.ID)
			result.Lost = append(result.Lost, record.ID)
		}

		if err := s.store.Delete(ctx, record.ID); err != nil {
			return result, fmt.Errorf("could not delete recovery record %s: %w", record.ID, err)
		}
	}

	if len(records) > 0 {
		s.logger.Infof("Recovery reconciled %d interrupted generations (%d completed, %d lost)", len(records), len(result.Completed), len(result.Lost))
	}

	return result, nil
}
