package render

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"signature-service/internal/config"
	"signature-service/internal/domain"
)

// Chrome renders through headless Chrome driven by chromedp. A fresh
// browser with a throwaway profile is started per render.
type Chrome struct {
	ExecPath  string
	NoSandbox bool
	Timeout   time.Duration
}

// NewChrome creates the backend from the render section of cfg.
func NewChrome(cfg config.Config) *Chrome {
	return &Chrome{
		ExecPath:  cfg.Render.ChromePath,
		NoSandbox: cfg.Render.ChromeNoSandbox,
		Timeout:   time.Duration(cfg.Render.TimeoutSecs) * time.Second,
	}
}

func (c *Chrome) Name() string { return "chrome" }

// Render loads htmlPath as a file URL and prints it to pdfPath.
func (c *Chrome) Render(ctx context.Context, htmlPath, pdfPath string) error {
	profileDir, err := os.MkdirTemp(filepath.Dir(htmlPath), "chromedata-*")
	if err != nil {
		return fmt.Errorf("%w: cannot create chrome profile dir: %w", domain.ErrIO, err)
	}
	defer os.RemoveAll(profileDir)

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		// Force software rendering and avoid Vulkan/ANGLE issues in minimal container environments.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.ExecPath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(c.ExecPath))
	}
	if c.NoSandbox {
		allocatorOptions = append(allocatorOptions, chromedp.Flag("no-sandbox", true))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions...)
	defer cancelAlloc()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	if c.Timeout > 0 {
		chromeCtx, cancel = context.WithTimeout(chromeCtx, c.Timeout)
		defer cancel()
	}

	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	fileURL := (&url.URL{Scheme: "file", Path: abs}).String()

	var pdfBuf []byte
	err = chromedp.Run(chromeCtx,
		chromedp.Navigate(fileURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(A4WidthInch).
				WithPaperHeight(A4HeightInch).
				WithMarginTop(MarginInch).
				WithMarginBottom(MarginInch).
				WithMarginLeft(MarginInch).
				WithMarginRight(MarginInch).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: chrome render: %w", domain.ErrToolInvocation, err)
	}

	if err := os.WriteFile(pdfPath, pdfBuf, 0o600); err != nil {
		return fmt.Errorf("%w: cannot write rendered pdf: %w", domain.ErrIO, err)
	}
	return nil
}
