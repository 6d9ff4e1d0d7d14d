// Package pdftk drives the pdftk command-line toolkit.
package pdftk

import (
	"context"
	"strings"

	"signature-service/internal/infra/toolexec"
)

// Client invokes pdftk through a toolexec.Runner.
type Client struct {
	Path   string
	Runner toolexec.Runner
	Stderr toolexec.StderrPolicy
}

// New creates a Client. An empty path means "pdftk" from PATH.
func New(path string, runner toolexec.Runner, policy toolexec.StderrPolicy) *Client {
	if path == "" {
		path = "pdftk"
	}
	return &Client{Path: path, Runner: runner, Stderr: policy}
}

// FillArgs is the argument vector for merging fdf into input and flattening
// the result into output.
func FillArgs(input, fdf, output string) []string {
	return []string{input, "fill_form", fdf, "output", output, "flatten"}
}

// FillAndFlatten merges the field-definition document into input and writes
// the flattened document to output.
func (c *Client) FillAndFlatten(ctx context.Context, input, fdf, output string) error {
	res, err := c.Runner.Run(ctx, c.Path, FillArgs(input, fdf, output)...)
	if err != nil {
		return err
	}
	return c.Stderr.Check(c.Path, res.Stderr)
}

// Version returns the trimmed output of `pdftk --version`.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.Runner.Run(ctx, c.Path, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}
