// Package model defines the provider-neutral generation interface, the
// normalized Request/Response structures exchanged with flows, the bounded
// retry decorator applied to outbound calls, and a scriptable MockModel for
// tests. Concrete backends live in the gemini, openai and anthropic
// subpackages.
package model
