// Package function holds the domain model for deployable HTTP functions.
package function

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidName   = errors.New("function name cannot be empty")
	ErrInvalidMethod = errors.New("function method cannot be empty")
	ErrInvalidPath   = errors.New("function path must start with /")
)

// Compute tiers. The tier drives the memory size and the preferred CPU
// architecture of the deployed function.
const (
	ComputeDefault = ""
	ComputeHigh    = "high"
)

// Desired is one HTTP function declared by the source project. It is
// produced by reflection and is an immutable input to a sync run.
type Desired struct {
	Name   string
	Method string
	Path   string
	Config Config
}

// Config is the per-function resource configuration.
type Config struct {
	// Compute selects the memory/CPU tier, ComputeDefault or ComputeHigh.
	Compute string

	// TimeoutSeconds is the function timeout. Zero means the default.
	TimeoutSeconds int32

	// Architectures is the caller's CPU architecture preference order.
	// Empty means any architecture the tier supports.
	Architectures []string

	// Engine is the minimum engine version constraint, ">=20" or ">=18".
	Engine string
}

// Remote is the reduced projection of a deployed function kept for
// comparison. Name carries the local name, with the environment/service
// prefix already stripped.
type Remote struct {
	ARN           string
	Name          string
	Runtime       string
	MemorySize    int32
	Timeout       int32
	Environment   map[string]string
	Architectures []string
	CodeSHA256    string
}

// DiffName implements diff.Named.
func (d Desired) DiffName() string { return d.Name }

// DiffName implements diff.Named.
func (r Remote) DiffName() string { return r.Name }

// Validate checks the declared function shape.
func (d Desired) Validate() error {
	if d.Name == "" {
		return ErrInvalidName
	}
	if d.Method == "" {
		return ErrInvalidMethod
	}
	if !strings.HasPrefix(d.Path, "/") {
		return ErrInvalidPath
	}
	return nil
}

const (
	// DefaultTimeout is applied when the declaration carries no timeout.
	DefaultTimeout int32 = 30

	// Handler is the fixed entry point of every packaged function.
	Handler = "index.handler"
)

// Timeout returns the effective function timeout in seconds.
func (d Desired) Timeout() int32 {
	if d.Config.TimeoutSeconds > 0 {
		return d.Config.TimeoutSeconds
	}
	return DefaultTimeout
}

// MemorySize returns the memory size for the function's compute tier.
func (d Desired) MemorySize() int32 {
	if d.Config.Compute == ComputeHigh {
		return 3008
	}
	return 1024
}

// RemoteName namespaces a local function name under (prefix, service).
func RemoteName(prefix, service, name string) string {
	return prefix + "-" + service + "-" + name
}

// LocalName strips the (prefix, service) namespace from a deployed function
// name. The second return value reports whether the name belongs to the
// namespace at all.
func LocalName(prefix, service, remoteName string) (string, bool) {
	ns := prefix + "-" + service + "-"
	if !strings.HasPrefix(remoteName, ns) {
		return "", false
	}
	return strings.TrimPrefix(remoteName, ns), true
}

// Supported CPU architectures.
const (
	ArchARM64 = "arm64"
	ArchX64   = "x86_64"
)

// ResolveArchitecture picks the CPU architecture for a function. The tier
// defines a fallback order (high compute prefers x86_64, everything else
// prefers arm64) which is filtered against the caller's preference list.
func ResolveArchitecture(preferred []string, compute string) (string, error) {
	order := []string{ArchARM64, ArchX64}
	if compute == ComputeHigh {
		order = []string{ArchX64, ArchARM64}
	}
	if len(preferred) == 0 {
		return order[0], nil
	}
	allowed := make(map[string]bool, len(preferred))
	for _, a := range preferred {
		allowed[a] = true
	}
	for _, a := range order {
		if allowed[a] {
			return a, nil
		}
	}
	return "", fmt.Errorf("no supported architecture in preference list %v", preferred)
}

// ResolveRuntime maps a declared minimum engine version to a runtime tag.
// Anything but ">=20" or ">=18" is a configuration error.
func ResolveRuntime(engine string) (string, error) {
	switch engine {
	case ">=20", "":
		return "nodejs20.x", nil
	case ">=18":
		return "nodejs18.x", nil
	default:
		return "", fmt.Errorf("unsupported engine constraint %q", engine)
	}
}
