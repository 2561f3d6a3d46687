// Package filecontext extracts and sanitizes script content referenced
// by commands that reach the LLM tier. It implements the domain
// ContextLoader port with path confinement and prompt-injection
// neutralization.
package filecontext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"command-gatekeeper/internal/domain/port"
)

// maxReferences caps how many files a single command can pull into the
// prompt. Beyond this the extra references add tokens, not signal.
const maxReferences = 4

// argPosition describes where a known interpreter takes its script path.
type argPosition int

const (
	// argFirstNonFlag: the first argument not starting with "-" is the
	// script ("bash deploy.sh", "python -u script.py").
	argFirstNonFlag argPosition = iota
	// argAfterFileFlag: the token following "-f" or "--file" is the
	// script ("psql -f schema.sql").
	argAfterFileFlag
)

// interpreters maps command names to how their file argument is found.
// This table is deliberately explicit: only invocations of these
// runners get their scripts read, never arbitrary path-looking tokens.
var interpreters = map[string]argPosition{
	"bash":    argFirstNonFlag,
	"sh":      argFirstNonFlag,
	"zsh":     argFirstNonFlag,
	"source":  argFirstNonFlag,
	"python":  argFirstNonFlag,
	"python3": argFirstNonFlag,
	"node":    argFirstNonFlag,
	"ruby":    argFirstNonFlag,
	"perl":    argFirstNonFlag,
	"sqlite3": argFirstNonFlag,
	"psql":    argAfterFileFlag,
	"mysql":   argAfterFileFlag,
}

// boundaryMarkers are sequences inside file content that could mimic
// the prompt's own fencing. Matched case-insensitively.
var boundaryMarkers = regexp.MustCompile(`(?i)</?file_context>`)

// neutralizedMarker replaces any boundary marker found in file content.
const neutralizedMarker = "[boundary marker removed]"

// Loader implements port.ContextLoader against the local filesystem.
type Loader struct {
	root     string
	maxBytes int64
}

// NewLoader confines all reads under root and caps each file at
// maxBytes. An empty root confines each load to the command's own
// working directory.
func NewLoader(root string, maxBytes int64) *Loader {
	return &Loader{root: root, maxBytes: maxBytes}
}

var _ port.ContextLoader = (*Loader)(nil)

// Load scans the command for script arguments of known interpreters and
// returns their sanitized content. Every per-file failure becomes a
// note; Load itself never fails.
func (l *Loader) Load(ctx context.Context, command, cwd string) ([]port.FileReference, []string) {
	var refs []port.FileReference
	var notes []string

	for _, candidate := range candidatePaths(command) {
		if ctx.Err() != nil {
			notes = append(notes, "file context loading cancelled")
			break
		}
		if len(refs) >= maxReferences {
			notes = append(notes, fmt.Sprintf("skipped %s: reference limit reached", candidate))
			continue
		}
		ref, err := l.loadOne(candidate, cwd)
		if err != nil {
			notes = append(notes, fmt.Sprintf("dropped %s: %v", candidate, err))
			continue
		}
		refs = append(refs, ref)
	}
	return refs, notes
}

// loadOne resolves, confines, size-checks, reads, and sanitizes a
// single candidate path.
func (l *Loader) loadOne(candidate, cwd string) (port.FileReference, error) {
	resolved := candidate
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cwd, resolved)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return port.FileReference{}, fmt.Errorf("resolve: %w", err)
	}
	// Resolve symlinks so a link inside the root cannot point outside it.
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return port.FileReference{}, fmt.Errorf("unreadable: %w", err)
	}

	if err := l.confine(canonical, cwd); err != nil {
		return port.FileReference{}, err
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return port.FileReference{}, fmt.Errorf("stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return port.FileReference{}, fmt.Errorf("not a regular file")
	}
	if info.Size() > l.maxBytes {
		return port.FileReference{}, fmt.Errorf("exceeds size cap (%d > %d bytes)", info.Size(), l.maxBytes)
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		return port.FileReference{}, fmt.Errorf("read: %w", err)
	}

	content, sanitized := neutralize(string(data))
	return port.FileReference{Path: canonical, Content: content, Sanitized: sanitized}, nil
}

// confine rejects canonical paths outside the permitted root, using
// path relativity so traversal cannot hide behind "..". With no
// configured root the command's working directory is the boundary.
func (l *Loader) confine(canonical, cwd string) error {
	root := l.root
	if root == "" {
		root = cwd
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	if resolvedRoot, err := filepath.EvalSymlinks(rootAbs); err == nil {
		rootAbs = resolvedRoot
	}
	rel, err := filepath.Rel(rootAbs, canonical)
	if err != nil {
		return fmt.Errorf("path escapes permitted root %s", rootAbs)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes permitted root %s", rootAbs)
	}
	return nil
}

// neutralize rewrites boundary-marker sequences inside untrusted file
// content so it cannot close the prompt's fence and smuggle
// instructions to the evaluator.
func neutralize(content string) (string, bool) {
	if !boundaryMarkers.MatchString(content) {
		return content, false
	}
	return boundaryMarkers.ReplaceAllString(content, neutralizedMarker), true
}

// candidatePaths returns the script arguments of known interpreter
// invocations found in the command.
func candidatePaths(command string) []string {
	tokens := tokenize(command)
	var out []string
	for i, tok := range tokens {
		pos, ok := interpreters[filepath.Base(tok)]
		if !ok {
			continue
		}
		switch pos {
		case argFirstNonFlag:
			if p := firstNonFlag(tokens[i+1:]); p != "" {
				out = append(out, p)
			}
		case argAfterFileFlag:
			if p := afterFileFlag(tokens[i+1:]); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func firstNonFlag(tokens []string) string {
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "-") {
			continue
		}
		return tok
	}
	return ""
}

func afterFileFlag(tokens []string) string {
	for i, tok := range tokens {
		if (tok == "-f" || tok == "--file") && i+1 < len(tokens) {
			return tokens[i+1]
		}
	}
	return ""
}

// tokenize splits a command on whitespace while keeping quoted spans
// together and stripping the quotes, so "python 'my script.py'" yields
// the path intact.
func tokenize(command string) []string {
	var tokens []string
	var current strings.Builder
	var quote byte

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return tokens
}
