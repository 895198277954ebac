package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"bioscope/internal/logger"
)

// RenderService renders assistant answers as markdown for terminal display
// using Glamour. It is a presentation helper: the conversation core never
// depends on it.
type RenderService struct {
	initialized bool
	renderer    *glamour.TermRenderer
}

// NewRenderService creates a new RenderService instance.
func NewRenderService() *RenderService {
	return &RenderService{
		initialized: false,
		renderer:    nil,
	}
}

// Name returns the service name "render" for registration.
func (r *RenderService) Name() string {
	return "render"
}

// Initialize sets up the RenderService with default configuration.
func (r *RenderService) Initialize() error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	r.renderer = renderer
	r.initialized = true

	logger.Debug("RenderService initialized successfully")
	return nil
}

// Render renders markdown content to ANSI terminal output.
func (r *RenderService) Render(markdown string) (string, error) {
	if !r.initialized {
		return "", fmt.Errorf("render service not initialized")
	}

	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("markdown content cannot be empty")
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return rendered, nil
}
