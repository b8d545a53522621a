package jobfile

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
)

// YAMLRepository loads generation requests from YAML files.
type YAMLRepository struct {
	fs fs.FS
}

// NewYAMLRepository creates a new YAML job file repository.
func NewYAMLRepository(filesystem fs.FS) *YAMLRepository {
	return &YAMLRepository{fs: filesystem}
}

// GetRequests loads generation requests from a YAML file and returns
// validated domain models.
func (r *YAMLRepository) GetRequests(ctx context.Context, path string) ([]model.GenerationRequest, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var file jobFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("invalid job file: %w", err)
	}

	return file.toModel(), nil
}

// jobFile represents the YAML structure of a job file: a shared owner and
// the list of generations to request.
type jobFile struct {
	Owner string `yaml:"owner"`
	Jobs  []job  `yaml:"jobs"`
}

// job represents a single generation request in the YAML file.
type job struct {
	ID      string `yaml:"id,omitempty"`
	Prompt  string `yaml:"prompt"`
	Project string `yaml:"project,omitempty"`
}

func (f jobFile) validate() error {
	if f.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if len(f.Jobs) == 0 {
		return fmt.Errorf("at least one job is required")
	}

	for i, j := range f.Jobs {
		if j.Prompt == "" {
			return fmt.Errorf("job %d: prompt is required", i)
		}
	}

	return nil
}

func (f jobFile) toModel() []model.GenerationRequest {
	reqs := make([]model.GenerationRequest, 0, len(f.Jobs))
	for _, j := range f.Jobs {
		reqs = append(reqs, model.GenerationRequest{
			ID:        j.ID,
			Prompt:    j.Prompt,
			OwnerID:   f.Owner,
			ProjectID: j.Project,
		})
	}
	return reqs
}
