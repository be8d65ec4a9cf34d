package util

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingKey signals that an instruction template referenced a state key
// that has not been written yet. Callers should treat this as a configuration
// or ordering error, not as a value to interpolate.
var ErrMissingKey = errors.New("template key not found in state")

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// RenderTemplate substitutes {key} placeholders in text with values from
// state. Every placeholder must resolve; an unresolved key returns an error
// wrapping ErrMissingKey. Doubled braces ({{ / }}) escape a literal brace.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{") {
		return text, nil
	}

	// Protect escaped braces before placeholder expansion.
	const openSentinel = "\x00ob\x00"
	const closeSentinel = "\x00cb\x00"
	escaped := strings.ReplaceAll(text, "{{", openSentinel)
	escaped = strings.ReplaceAll(escaped, "}}", closeSentinel)

	var missing []string
	rendered := placeholderRe.ReplaceAllStringFunc(escaped, func(match string) string {
		key := match[1 : len(match)-1]
		v, ok := state[key]
		if !ok {
			missing = append(missing, key)
			return match
		}
		return fmt.Sprintf("%v", v)
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}

	rendered = strings.ReplaceAll(rendered, openSentinel, "{")
	rendered = strings.ReplaceAll(rendered, closeSentinel, "}")

	return rendered, nil
}

// TemplateKeys lists the distinct placeholder keys referenced by text in
// order of first appearance.
func TemplateKeys(text string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
