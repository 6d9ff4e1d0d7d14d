// Package signing implements the two signature-field pipelines. Each run
// owns a private scratch directory that is removed on every exit path:
//
//	INIT → WRITE_INPUT → [RENDER_HTML →] WRITE_FIELDDEF → INVOKE_FILL → READ_OUTPUT → CLEANUP
package signing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signature-service/internal/domain"
	"signature-service/internal/infra/cache"
	"signature-service/internal/infra/logging"
	"signature-service/internal/infra/render"
	"signature-service/internal/infra/scratch"
)

// Pipeline variants, also used as cache key namespaces.
const (
	VariantDirect = "direct"
	VariantHTML   = "render-first"
)

// Filler merges a field-definition document into a PDF and flattens it.
type Filler interface {
	FillAndFlatten(ctx context.Context, input, fdf, output string) error
}

// Options wires a Service.
type Options struct {
	// ScratchDir is the parent of the per-request directories. Empty means os.TempDir().
	ScratchDir   string
	Filler       Filler
	Renderer     render.Renderer
	Cache        *cache.PDFCache
	SanitizeHTML bool
}

// Service runs the pipelines. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	scratchDir string
	filler     Filler
	renderer   render.Renderer
	cache      *cache.PDFCache
	sanitize   bool
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	return &Service{
		scratchDir: opts.ScratchDir,
		filler:     opts.Filler,
		renderer:   opts.Renderer,
		cache:      opts.Cache,
		sanitize:   opts.SanitizeHTML,
	}
}

// AddSignatureField injects the signature and customer name fields into pdf
// and returns the flattened document.
func (s *Service) AddSignatureField(ctx context.Context, pdf []byte, req domain.SignatureRequest) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: no PDF document provided", domain.ErrValidation)
	}

	key := cache.Key(VariantDirect, pdf, req)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	out, err := s.run(ctx, VariantDirect, req, func(dir *scratch.Dir) (string, error) {
		return dir.Write(scratch.Input, pdf)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, out)
	return out, nil
}

// CreatePDFWithSignature renders html to PDF and then runs the same field
// injection as AddSignatureField on the rendered document.
func (s *Service) CreatePDFWithSignature(ctx context.Context, html string, req domain.SignatureRequest) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("%w: no HTML content provided", domain.ErrValidation)
	}
	if s.sanitize {
		html = render.SanitizeHTML(html)
		if html == "" {
			return nil, fmt.Errorf("%w: HTML content is empty after sanitizing", domain.ErrValidation)
		}
	}
	if s.renderer == nil {
		return nil, fmt.Errorf("%w: no HTML renderer configured", domain.ErrToolInvocation)
	}

	key := cache.Key(VariantHTML, []byte(html), req)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	out, err := s.run(ctx, VariantHTML, req, func(dir *scratch.Dir) (string, error) {
		htmlPath, err := dir.Write(scratch.InputHTML, []byte(html))
		if err != nil {
			return "", err
		}
		pdfPath := dir.File(scratch.Intermediate)
		if err := s.renderer.Render(ctx, htmlPath, pdfPath); err != nil {
			return "", fmt.Errorf("render html with %s: %w", s.renderer.Name(), err)
		}
		if err := dir.Ensure(scratch.Intermediate); err != nil {
			return "", fmt.Errorf("render html with %s: %w", s.renderer.Name(), err)
		}
		return pdfPath, nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, out)
	return out, nil
}

// run acquires a scratch directory, lets prepare place the PDF to fill,
// then writes the field definition, invokes the filler and reads the
// result back. The directory is released on every path.
func (s *Service) run(ctx context.Context, variant string, req domain.SignatureRequest, prepare func(*scratch.Dir) (string, error)) ([]byte, error) {
	if s.filler == nil {
		return nil, fmt.Errorf("%w: no PDF filler configured", domain.ErrToolInvocation)
	}

	dir, err := scratch.New(s.scratchDir)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	start := time.Now()
	logging.Info("Signature pipeline started", "variant", variant, "run_id", dir.ID(), "customer", req.Name())

	input, err := prepare(dir)
	if err != nil {
		return nil, err
	}

	fdfPath, err := dir.Write(scratch.FieldDef, []byte(domain.BuildFieldDefinition(req)))
	if err != nil {
		return nil, err
	}

	if err := s.filler.FillAndFlatten(ctx, input, fdfPath, dir.File(scratch.Output)); err != nil {
		return nil, fmt.Errorf("fill form: %w", err)
	}

	out, err := dir.Read(scratch.Output)
	if err != nil {
		return nil, err
	}

	logging.Info("Signature pipeline finished", "variant", variant, "run_id", dir.ID(),
		"bytes", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}
