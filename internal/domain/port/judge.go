// Package port declares the interfaces the application layer depends
// on; infrastructure adapters implement them.
package port

import (
	"context"

	"command-gatekeeper/internal/domain/entity"
)

// Judge is the external judgment service behind the pipeline's final
// tier. Implementations must honor ctx cancellation and report a
// deadline overrun as entity.JudgmentTimeout rather than an error: the
// pipeline maps every Judgment kind to a Decision, and there is no
// judgment failure that aborts an evaluation.
type Judge interface {
	// Evaluate submits the fully rendered prompt and returns the tagged
	// judgment result.
	Evaluate(ctx context.Context, prompt string) entity.Judgment

	// Method identifies the strategy for decision provenance
	// (entity.MethodAPI or entity.MethodCLI).
	Method() entity.Method
}
