package port

import "context"

// FileReference is one sanitized script referenced by a command,
// prepared for embedding in the judgment prompt.
type FileReference struct {
	// Path is the resolved, canonical absolute path.
	Path string

	// Content is the size-capped file content after sanitization.
	Content string

	// Sanitized is true when the content contained boundary-marker
	// sequences that were neutralized.
	Sanitized bool
}

// ContextLoader extracts referenced script content for ambiguous
// commands reaching the LLM tier. Implementations must confine reads to
// the permitted root and must degrade per-file (dropping the offending
// reference with a note) rather than failing the evaluation.
type ContextLoader interface {
	// Load returns sanitized references plus human-readable notes about
	// references that were dropped.
	Load(ctx context.Context, command, cwd string) ([]FileReference, []string)
}
