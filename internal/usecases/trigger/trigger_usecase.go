// Package trigger implements reconciliation of resource-based invoke
// permissions.
package trigger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spiritworld-dk/node-deploy/internal/domain/trigger"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// UseCase converges a function's permission statements onto the desired
// shape. Statements cannot be patched in place, only added under a fresh
// ID or removed by ID, so convergence is delete-and-recreate.
type UseCase struct {
	Functions ports.FunctionRepository
	Log       *zap.Logger
}

// Reconcile ensures the function carries exactly one statement for the
// desired trigger source: statements from the same principal that do not
// match the desired shape are removed, duplicate matches are reduced to
// one, and a missing statement is added.
func (uc *UseCase) Reconcile(ctx context.Context, remoteName string, desired trigger.Statement) error {
	statements, err := uc.Functions.Policy(ctx, remoteName)
	if err != nil {
		return err
	}

	kept := false
	for _, current := range statements {
		if current.Principal != desired.Principal {
			continue
		}
		if current.Matches(desired) && !kept {
			kept = true
			continue
		}
		uc.Log.Debug("Removing stale permission statement.",
			zap.String("function", remoteName), zap.String("statement", current.ID))
		if err := uc.Functions.RemovePermission(ctx, remoteName, current.ID); err != nil {
			return fmt.Errorf("failed to remove statement %q: %w", current.ID, err)
		}
	}

	if kept {
		return nil
	}

	id := uuid.NewString()
	uc.Log.Debug("Adding permission statement.",
		zap.String("function", remoteName), zap.String("principal", desired.Principal))
	if err := uc.Functions.AddPermission(ctx, remoteName, id, desired); err != nil {
		return fmt.Errorf("failed to add permission statement: %w", err)
	}
	return nil
}

// EnsureGatewayInvoke wires the gateway-invoke statement onto every given
// function.
func (uc *UseCase) EnsureGatewayInvoke(ctx context.Context, remoteNames []string, region, account, apiID string) error {
	desired := trigger.GatewayInvoke(region, account, apiID)
	for _, name := range remoteNames {
		if err := uc.Reconcile(ctx, name, desired); err != nil {
			return err
		}
	}
	return nil
}
