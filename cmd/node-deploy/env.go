package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiritworld-dk/node-deploy/internal/envres"
	"github.com/spiritworld-dk/node-deploy/internal/manifest"
)

func newEnvCmd() *cobra.Command {
	var (
		manifestPath string
		verbose      bool
		compressed   bool
	)

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the resolved environment",
		Long: `Env resolves the manifest's environment template against the deployed
state without deploying anything, and prints the result as KEY=VALUE
lines. With --compressed the output is a single zlib/base64 blob.

Examples:
    node-deploy env -f node-deploy.yaml
    node-deploy env -f node-deploy.yaml --compressed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, manifestPath, verbose, compressed)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "file", "f", "node-deploy.yaml", "Deployment manifest")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&compressed, "compressed", false, "Print a single compressed blob")

	return cmd
}

func runEnv(cmd *cobra.Command, manifestPath string, verbose, compressed bool) error {
	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	doc, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	deployment, err := doc.Deployment()
	if err != nil {
		return err
	}

	syncer, err := newSyncer(cmd.Context(), doc, log)
	if err != nil {
		return err
	}

	resolved, err := syncer.ResolveEnvironment(cmd.Context(), deployment)
	if err != nil {
		return err
	}

	if compressed {
		blob, err := envres.Compressed(resolved)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), blob)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), envres.Flat(resolved))
	return nil
}
