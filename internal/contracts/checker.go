package contracts

import "context"

// StageChecker evaluates one submission for one pipeline stage.
// Implementations must be safe for concurrent use: the runner invokes
// Check for several submissions at once.
type StageChecker interface {
	// Name returns the stage identifier (see StageNames).
	Name() string

	// Check evaluates a single submission. A non-nil error means the
	// checker itself failed (tool invocation failure), not that the
	// submission failed the stage; the runner applies the stage's
	// fallback policy in that case.
	Check(ctx context.Context, sub Submission) (*StageResult, error)
}
