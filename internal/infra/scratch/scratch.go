// Package scratch manages the per-request working directory that holds
// every temporary artifact of one pipeline run.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/xid"

	"signature-service/internal/domain"
	"signature-service/internal/infra/logging"
)

// Kind names an artifact inside a scratch directory.
type Kind string

// Artifact kinds used by the signing pipelines.
const (
	Input        Kind = "input.pdf"
	InputHTML    Kind = "input.html"
	Intermediate Kind = "intermediate.pdf"
	Output       Kind = "output.pdf"
	FieldDef     Kind = "form.fdf"
)

// Prefix starts every scratch directory name.
const Prefix = "sigfield-"

// Dir is a directory private to one request. Its name embeds a globally
// unique xid, so concurrent requests never share files.
type Dir struct {
	id   string
	path string

	once     sync.Once
	closeErr error
}

// New creates a fresh scratch directory below base, or below the system
// temp dir when base is empty.
func New(base string) (*Dir, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create scratch base dir: %w", domain.ErrIO, err)
	}
	id := xid.New().String()
	path := filepath.Join(base, Prefix+id)
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("%w: cannot create scratch dir: %w", domain.ErrIO, err)
	}
	return &Dir{id: id, path: path}, nil
}

// ID returns the unique identifier embedded in the directory name.
func (d *Dir) ID() string { return d.id }

// File returns the path of the artifact of the given kind.
func (d *Dir) File(kind Kind) string {
	return filepath.Join(d.path, string(kind))
}

// Write stores data as the artifact of the given kind and returns its path.
func (d *Dir) Write(kind Kind, data []byte) (string, error) {
	p := d.File(kind)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: cannot write %s: %w", domain.ErrIO, kind, err)
	}
	return p, nil
}

// Read loads the artifact of the given kind. A missing or empty file is an error.
func (d *Dir) Read(kind Kind) ([]byte, error) {
	data, err := os.ReadFile(d.File(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %w", domain.ErrIO, kind, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrIO, kind)
	}
	return data, nil
}

// Ensure reports an error unless the artifact of the given kind exists and is non-empty.
func (d *Dir) Ensure(kind Kind) error {
	info, err := os.Stat(d.File(kind))
	if err != nil {
		return fmt.Errorf("%w: %s missing: %w", domain.ErrIO, kind, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", domain.ErrIO, kind)
	}
	return nil
}

// Close removes the directory and everything in it. It is safe to call
// more than once; failures are logged and returned, never retried.
func (d *Dir) Close() error {
	d.once.Do(func() {
		if err := os.RemoveAll(d.path); err != nil {
			d.closeErr = err
			logging.Warn("Scratch cleanup failed", "dir", d.path, "error", err)
		}
	})
	return d.closeErr
}
