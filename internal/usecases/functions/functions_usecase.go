// Package functions implements the compute-function sync logic.
package functions

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spiritworld-dk/node-deploy/internal/diff"
	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// UseCase converges the deployed function set onto the declared one.
type UseCase struct {
	Repo ports.FunctionRepository
	Log  *zap.Logger
}

// SyncInput is everything one function sync run consumes.
type SyncInput struct {
	Prefix  string
	Service string

	// Desired is the reflected function list.
	Desired []function.Desired

	// Sources maps function name to finished source text.
	Sources map[string]string

	// Environment is the resolved variable mapping shared by every function.
	Environment map[string]string

	RoleARN string

	// Current is the deployed set from the run snapshot.
	Current []function.Remote

	// Safe lists function names that must never be deleted as surplus.
	Safe []string
}

// Sync creates missing functions, updates drifted ones, deletes surplus
// ones and returns the deployed set for every desired function, in
// declaration order, with identifiers filled in.
func (uc *UseCase) Sync(ctx context.Context, in SyncInput) ([]function.Remote, error) {
	specs := make(map[string]function.Spec, len(in.Desired))
	hashes := make(map[string]string, len(in.Desired))
	for _, d := range in.Desired {
		spec, hash, err := uc.buildSpec(in, d)
		if err != nil {
			return nil, err
		}
		specs[d.Name] = spec
		hashes[d.Name] = hash
	}

	result := diff.ByName(in.Desired, in.Current, in.Safe...)

	byName := make(map[string]function.Remote, len(in.Desired))

	for _, d := range result.Missing {
		spec := specs[d.Name]
		uc.Log.Info("Creating function.", zap.String("function", spec.RemoteName))
		arn, err := uc.Repo.Create(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to create function %q: %w", d.Name, err)
		}
		byName[d.Name] = function.Remote{
			ARN:           arn,
			Name:          d.Name,
			Runtime:       spec.Runtime,
			MemorySize:    spec.MemorySize,
			Timeout:       spec.Timeout,
			Environment:   spec.Environment,
			Architectures: []string{spec.Architecture},
			CodeSHA256:    hashes[d.Name],
		}
	}

	for _, m := range result.Existing {
		spec := specs[m.Desired.Name]
		if hashes[m.Desired.Name] != m.Current.CodeSHA256 {
			uc.Log.Info("Updating function code.", zap.String("function", spec.RemoteName))
			if err := uc.Repo.UpdateCode(ctx, spec.RemoteName, spec.Archive); err != nil {
				return nil, fmt.Errorf("failed to update code for %q: %w", m.Desired.Name, err)
			}
		}
		if configDiffers(spec, m.Current) {
			uc.Log.Info("Updating function configuration.", zap.String("function", spec.RemoteName))
			if err := uc.Repo.UpdateConfiguration(ctx, spec); err != nil {
				return nil, fmt.Errorf("failed to update configuration for %q: %w", m.Desired.Name, err)
			}
		}
		byName[m.Desired.Name] = m.Current
	}

	for _, surplus := range result.Surplus {
		remoteName := function.RemoteName(in.Prefix, in.Service, surplus.Name)
		uc.Log.Info("Deleting surplus function.", zap.String("function", remoteName))
		if err := uc.Repo.Delete(ctx, remoteName); err != nil {
			return nil, fmt.Errorf("failed to delete function %q: %w", surplus.Name, err)
		}
	}

	remotes := make([]function.Remote, 0, len(in.Desired))
	for _, d := range in.Desired {
		remotes = append(remotes, byName[d.Name])
	}
	return remotes, nil
}

// buildSpec derives the full platform spec for one declared function.
func (uc *UseCase) buildSpec(in SyncInput, d function.Desired) (function.Spec, string, error) {
	if err := d.Validate(); err != nil {
		return function.Spec{}, "", fmt.Errorf("invalid function %q: %w", d.Name, err)
	}

	source, ok := in.Sources[d.Name]
	if !ok {
		return function.Spec{}, "", fmt.Errorf("no source bundled for function %q", d.Name)
	}

	runtime, err := function.ResolveRuntime(d.Config.Engine)
	if err != nil {
		return function.Spec{}, "", fmt.Errorf("function %q: %w", d.Name, err)
	}
	architecture, err := function.ResolveArchitecture(d.Config.Architectures, d.Config.Compute)
	if err != nil {
		return function.Spec{}, "", fmt.Errorf("function %q: %w", d.Name, err)
	}

	archive, hash, err := function.Package(source)
	if err != nil {
		return function.Spec{}, "", fmt.Errorf("failed to package function %q: %w", d.Name, err)
	}

	return function.Spec{
		RemoteName:   function.RemoteName(in.Prefix, in.Service, d.Name),
		Runtime:      runtime,
		Architecture: architecture,
		RoleARN:      in.RoleARN,
		MemorySize:   d.MemorySize(),
		Timeout:      d.Timeout(),
		Environment:  in.Environment,
		Archive:      archive,
	}, hash, nil
}

// configDiffers compares the normalized projections field by field; a
// remote write only happens when something actually changed.
func configDiffers(spec function.Spec, current function.Remote) bool {
	if spec.Runtime != current.Runtime {
		return true
	}
	if spec.MemorySize != current.MemorySize {
		return true
	}
	if spec.Timeout != current.Timeout {
		return true
	}
	if len(current.Architectures) != 1 || current.Architectures[0] != spec.Architecture {
		return true
	}
	return !mapsEqual(spec.Environment, current.Environment)
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
