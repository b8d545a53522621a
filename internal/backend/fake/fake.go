package fake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
)

// failMarker in a prompt makes the fake emit a remote error event instead of
// a success, so failure paths can be exercised end to end.
const failMarker = "[fail]"

// ServerConfig is the configuration for the fake generation backend.
type ServerConfig struct {
	// StepDelay is the pause between emitted progress events.
	StepDelay time.Duration
	Logger    log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.StepDelay == 0 {
		c.StepDelay = 300 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.Fake"})
	return nil
}

// Server is a local stand-in for the remote generation service. It emits a
// scripted event stream for every generation request and remembers the
// templates it produced so existence queries work, which is enough to
// exercise the whole lifecycle (including recovery) without the real
// service.
type Server struct {
	router    chi.Router
	templates map[string]model.Template
	mu        sync.RWMutex
	stepDelay time.Duration
	logger    log.Logger
}

// NewServer creates a new fake generation backend.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		templates: map[string]model.Template{},
		stepDelay: cfg.StepDelay,
		logger:    cfg.Logger,
	}

	r := chi.NewRouter()
	r.Post("/api/generations", s.handleGenerate)
	r.Get("/api/templates/{id}", s.handleGetTemplate)
	s.router = r

	return s, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SeedTemplate registers a template as already existing, useful to simulate
// a generation that finished while the client was gone.
func (s *Server) SeedTemplate(t model.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
}

type generateRequest struct {
	TemplateID string `json:"templateId"`
	Prompt     string `json:"prompt"`
	OwnerID    string `json:"ownerId"`
	ProjectID  string `json:"projectId"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}
	if req.TemplateID == "" {
		req.TemplateID = ulid.Make().String()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	emit := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Errorf("Could not marshal event: %s", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n", data); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	progress := []struct {
		step    model.GenerationStep
		message string
	}{
		{model.GenerationStepValidating, "Validating prompt"},
		{model.GenerationStepLoadingContext, "Loading project context"},
		{model.GenerationStepAnalyzingInput, "Analyzing prompt"},
		{model.GenerationStepGenerating, "Generating template"},
		{model.GenerationStepSaving, "Saving template"},
	}

	for _, p := range progress {
		if !emit(map[string]string{"type": "progress", "step": string(p.step), "message": p.message}) {
			return
		}

		select {
		case <-r.Context().Done():
			s.logger.Debugf("Generation %s aborted by the client", req.TemplateID)
			return
		case <-time.After(s.stepDelay):
		}
	}

	if strings.Contains(req.Prompt, failMarker) {
		emit(map[string]string{"type": "error", "error": "generation failed", "details": "the model rejected the prompt"})
		s.logger.Infof("Generation %s failed as scripted", req.TemplateID)
		return
	}

	template := model.Template{
		ID:        req.TemplateID,
		Name:      templateName(req.Prompt),
		OwnerID:   req.OwnerID,
		ProjectID: req.ProjectID,
		Subject:   templateName(req.Prompt),
		HTML:      fmt.Sprintf("<html><body><h1>%s</h1></body></html>", templateName(req.Prompt)),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.templates[template.ID] = template
	s.mu.Unlock()

	emit(map[string]any{"type": "success", "resource": template})
	s.logger.Infof("Generation %s completed", req.TemplateID)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	template, ok := s.templates[id]
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "template not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(template); err != nil {
		s.logger.Errorf("Could not encode template: %s", err)
	}
}

// templateName derives a short display name from the prompt.
func templateName(prompt string) string {
	name := strings.TrimSpace(strings.ReplaceAll(prompt, failMarker, ""))
	if len(name) > 60 {
		name = name[:60]
	}
	if name == "" {
		name = "Untitled template"
	}
	return name
}
