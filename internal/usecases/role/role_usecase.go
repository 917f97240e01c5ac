// Package role implements the execution-role sync logic.
package role

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spiritworld-dk/node-deploy/internal/domain/iam"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// UseCase ensures the single shared execution role exists and owns the
// assembled inline policy.
type UseCase struct {
	Repo ports.RoleRepository
	Log  *zap.Logger
}

// Ensure returns the execution role, creating it when the snapshot shows
// none. The role is created once and reused on every later run.
func (uc *UseCase) Ensure(ctx context.Context, name string, current *iam.Role) (*iam.Role, error) {
	if current != nil {
		return current, nil
	}

	uc.Log.Info("Creating execution role.", zap.String("role", name))
	role, err := uc.Repo.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

// AssignPolicy overwrites the role's inline policy with the assembled full
// statement set. The remote policy is never read back or merged.
func (uc *UseCase) AssignPolicy(ctx context.Context, roleName, region, account string, extra []iam.Statement) error {
	document, err := iam.RenderPolicy(region, account, extra).JSON()
	if err != nil {
		return err
	}

	uc.Log.Debug("Assigning role policy.", zap.String("role", roleName))
	if err := uc.Repo.PutPolicy(ctx, roleName, iam.PolicyName, document); err != nil {
		return fmt.Errorf("failed to assign role policy: %w", err)
	}
	return nil
}
