// Package render converts an HTML file into a PDF file with fixed page
// geometry: A4 with 1cm margins on every side.
package render

import (
	"context"
	"fmt"

	"signature-service/internal/config"
	"signature-service/internal/infra/toolexec"
)

// Renderer turns the HTML file at htmlPath into a PDF written to pdfPath.
type Renderer interface {
	Render(ctx context.Context, htmlPath, pdfPath string) error
	Name() string
}

// Page geometry shared by every backend.
const (
	PageSize     = "A4"
	Margin       = "1cm"
	A4WidthInch  = 8.27
	A4HeightInch = 11.69
	MarginInch   = 1 / 2.54
)

// New picks the backend named by cfg.Render.Backend.
func New(cfg config.Config, runner toolexec.Runner) (Renderer, error) {
	switch cfg.Render.Backend {
	case "", config.BackendWkhtmltopdf:
		return NewWkhtmltopdf(cfg.Tools.WkhtmltopdfPath, runner), nil
	case config.BackendChrome:
		return NewChrome(cfg), nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", cfg.Render.Backend)
	}
}
