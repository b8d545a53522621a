package backend

import (
	"context"
	"io"
)

// GenerateRequest carries the parameters of a generation stream request.
// TemplateID identifies the template the backend will create, it is chosen
// by the client before the resource exists.
type GenerateRequest struct {
	TemplateID string `json:"templateId"`
	Prompt     string `json:"prompt"`
	OwnerID    string `json:"ownerId"`
	ProjectID  string `json:"projectId,omitempty"`
}

// Client is the interface to the remote generation service.
type Client interface {
	// Generate opens the streaming generation request and returns the raw
	// response body. The caller owns the body and aborts the transport by
	// cancelling ctx or closing it.
	Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error)

	// TemplateExists reports whether the template resource exists on the
	// backend. Used only during recovery reconciliation.
	TemplateExists(ctx context.Context, id string) (bool, error)
}
