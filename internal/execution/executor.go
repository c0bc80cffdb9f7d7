package execution

import "context"

// Invoker runs the spec runner once in a workspace
type Invoker interface {
	Run(ctx context.Context, workDir, executable string, args []string) (*Invocation, error)
}
