package ports

import (
	"context"

	"github.com/spiritworld-dk/node-deploy/internal/domain/iam"
)

// RoleRepository wraps the execution role and its inline policy.
type RoleRepository interface {
	// Get returns the role, or nil when it does not exist.
	Get(ctx context.Context, name string) (*iam.Role, error)

	Create(ctx context.Context, name string) (*iam.Role, error)

	// PutPolicy overwrites the role's inline policy document whole.
	PutPolicy(ctx context.Context, roleName, policyName, document string) error
}
