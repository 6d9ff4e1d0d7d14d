package render

import (
	"context"
	"path/filepath"

	"signature-service/internal/infra/toolexec"
)

// Wkhtmltopdf renders through the wkhtmltopdf binary.
type Wkhtmltopdf struct {
	Path   string
	Runner toolexec.Runner
}

// NewWkhtmltopdf creates the backend. An empty path means "wkhtmltopdf" from PATH.
func NewWkhtmltopdf(path string, runner toolexec.Runner) *Wkhtmltopdf {
	if path == "" {
		path = "wkhtmltopdf"
	}
	return &Wkhtmltopdf{Path: path, Runner: runner}
}

func (w *Wkhtmltopdf) Name() string { return "wkhtmltopdf" }

// Args is the argument vector for rendering htmlPath into pdfPath. Local
// file access is restricted to the directory holding the input.
func (w *Wkhtmltopdf) Args(htmlPath, pdfPath string) []string {
	return []string{
		"--disable-local-file-access",
		"--allow", filepath.Dir(htmlPath),
		"--page-size", PageSize,
		"--margin-top", Margin,
		"--margin-bottom", Margin,
		"--margin-left", Margin,
		"--margin-right", Margin,
		htmlPath,
		pdfPath,
	}
}

// Render runs wkhtmltopdf. Its stderr is progress noise; the exit code decides.
func (w *Wkhtmltopdf) Render(ctx context.Context, htmlPath, pdfPath string) error {
	_, err := w.Runner.Run(ctx, w.Path, w.Args(htmlPath, pdfPath)...)
	return err
}
