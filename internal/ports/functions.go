// Package ports defines the repository interfaces the sync usecases
// depend on. Implementations live under internal/adapters/aws; tests use
// in-memory fakes.
package ports

import (
	"context"

	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/trigger"
)

// FunctionRepository wraps the compute platform's function CRUD plus its
// resource-based permission statements.
type FunctionRepository interface {
	// List returns every deployed function in the (prefix, service)
	// namespace, names stripped to their local form.
	List(ctx context.Context, prefix, service string) ([]function.Remote, error)

	// Create deploys a new function and returns its assigned identifier.
	Create(ctx context.Context, spec function.Spec) (string, error)

	// UpdateConfiguration pushes runtime, memory, timeout and environment.
	UpdateConfiguration(ctx context.Context, spec function.Spec) error

	// UpdateCode pushes a new code archive.
	UpdateCode(ctx context.Context, remoteName string, archive []byte) error

	Delete(ctx context.Context, remoteName string) error

	// Policy returns the function's permission statements; an absent
	// policy is an empty list, not an error.
	Policy(ctx context.Context, remoteName string) ([]trigger.Statement, error)

	// AddPermission attaches a statement under the given statement ID.
	AddPermission(ctx context.Context, remoteName, id string, st trigger.Statement) error

	// RemovePermission detaches a statement by ID.
	RemovePermission(ctx context.Context, remoteName, id string) error
}
