package render

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicyOnce sync.Once
	htmlPolicy     *bluemonday.Policy
)

// SanitizeHTML strips scripts, frames, event handlers and foreign URLs from
// caller markup while keeping ordinary document structure and basic styling.
func SanitizeHTML(raw string) string {
	return strings.TrimSpace(htmlSanitizer().Sanitize(raw))
}

func htmlSanitizer() *bluemonday.Policy {
	htmlPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowStyling()
		policy.AllowStyles(
			"color", "background-color", "font-family", "font-size", "font-weight",
			"font-style", "text-align", "text-decoration", "margin", "padding",
			"border", "width", "height", "line-height",
		).Globally()
		policy.AllowElements("header", "footer", "section", "article", "main")
		htmlPolicy = policy
	})
	return htmlPolicy
}
