// Package manifest loads and validates the deployment manifest: the YAML
// document declaring a service's functions, environment template, CORS
// origins, policy statements and alerting configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/spiritworld-dk/node-deploy/internal/domain/alert"
	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/iam"
	"github.com/spiritworld-dk/node-deploy/internal/envres"
	"github.com/spiritworld-dk/node-deploy/internal/usecases/deploy"
	"github.com/spiritworld-dk/node-deploy/pkg/awsconf"
)

// Document is the root of the deployment manifest.
type Document struct {
	// Env is the deployment environment name, the namespace prefix of
	// every remote resource.
	Env string `yaml:"env" validate:"required"`

	AWS awsconf.Credentials `yaml:"aws"`

	Service Service `yaml:"service" validate:"required"`

	// dir is the manifest's directory; function sources resolve against it.
	dir string
}

// Service declares one deployable service.
type Service struct {
	Name      string      `yaml:"name" validate:"required"`
	Functions []Function  `yaml:"functions" validate:"required,min=1,dive"`
	Env       Environment `yaml:"env"`

	// Origins is the website origin list driving the gateway CORS block.
	Origins []string `yaml:"origins"`

	// Policy statements appended to the execution role's baseline policy.
	Policy []iam.Statement `yaml:"policy"`

	Alert *alert.Config `yaml:"alert"`
}

// Function declares one HTTP function and where its bundled source lives.
type Function struct {
	Name   string `yaml:"name" validate:"required"`
	Method string `yaml:"method" validate:"required"`
	Path   string `yaml:"path" validate:"required,startswith=/"`

	// Source is the bundled source file, relative to the manifest.
	Source string `yaml:"source" validate:"required"`

	Compute       string   `yaml:"compute" validate:"omitempty,oneof=high"`
	Timeout       int32    `yaml:"timeout" validate:"gte=0,lte=900"`
	Architectures []string `yaml:"architectures" validate:"dive,oneof=arm64 x86_64"`
	Engine        string   `yaml:"engine"`
}

// Environment is the declared variable template. Secrets win on key
// collision; both halves are subject to token expansion.
type Environment struct {
	Clear  map[string]string `yaml:"clear"`
	Secret map[string]string `yaml:"secret"`
}

// Load reads, decodes and validates a manifest file. Unknown fields are
// rejected so typos fail loudly instead of silently deploying defaults.
func Load(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var doc Document
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	doc.dir = filepath.Dir(path)
	return &doc, nil
}

// Deployment assembles the declared state for the orchestrator, reading
// every function source from disk.
func (d *Document) Deployment() (deploy.Deployment, error) {
	desired := make([]function.Desired, 0, len(d.Service.Functions))
	sources := make(map[string]string, len(d.Service.Functions))

	for _, f := range d.Service.Functions {
		desired = append(desired, function.Desired{
			Name:   f.Name,
			Method: f.Method,
			Path:   f.Path,
			Config: function.Config{
				Compute:        f.Compute,
				TimeoutSeconds: f.Timeout,
				Architectures:  f.Architectures,
				Engine:         f.Engine,
			},
		})

		raw, err := os.ReadFile(filepath.Join(d.dir, f.Source))
		if err != nil {
			return deploy.Deployment{}, fmt.Errorf("failed to read source for function %q: %w", f.Name, err)
		}
		sources[f.Name] = string(raw)
	}

	return deploy.Deployment{
		Env:       d.Env,
		Service:   d.Service.Name,
		Functions: desired,
		Sources:   sources,
		Environment: envres.Template{
			Clear:  d.Service.Env.Clear,
			Secret: d.Service.Env.Secret,
		},
		AllowedOrigins:   d.Service.Origins,
		PolicyStatements: d.Service.Policy,
		Alert:            d.Service.Alert,
	}, nil
}
