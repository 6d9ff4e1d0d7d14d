package toolexec

import (
	"fmt"
	"strings"

	"signature-service/internal/domain"
	"signature-service/internal/infra/logging"
)

// StderrPolicy decides what non-empty stderr output from a successful
// process means. pdftk writes to stderr even on success, so the default is
// lenient: output is logged, not fatal.
type StderrPolicy struct {
	// SuccessMarker marks stderr as benign when contained in it. Empty disables the check.
	SuccessMarker string
	// Strict fails the invocation when stderr is non-empty and lacks the marker.
	Strict bool
}

// Check applies the policy to stderr of the named tool.
func (p StderrPolicy) Check(tool string, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return nil
	}
	if p.SuccessMarker != "" && strings.Contains(msg, p.SuccessMarker) {
		return nil
	}
	if p.Strict {
		return fmt.Errorf("%w: %s reported: %s", domain.ErrToolInvocation, tool, msg)
	}
	logging.Warn("Tool wrote to stderr", "tool", tool, "stderr", msg)
	return nil
}
