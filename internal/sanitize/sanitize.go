// Package sanitize strips formatting fences from model output. The
// prompts ask for raw output, but the model does not always comply.
package sanitize

import "strings"

var fences = []string{"```html", "```json", "```"}

// Clean removes every fence marker and trims surrounding whitespace.
// Empty input yields empty output; Clean is idempotent.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	for _, fence := range fences {
		text = strings.ReplaceAll(text, fence, "")
	}
	return strings.TrimSpace(text)
}
