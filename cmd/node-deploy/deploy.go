package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiritworld-dk/node-deploy/internal/manifest"
)

func newDeployCmd() *cobra.Command {
	var (
		manifestPath string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the declared service",
		Long: `Deploy reads the manifest, snapshots the remote state and converges
every resource onto the declaration. On success it prints the service's
public base URL.

Examples:
    node-deploy deploy -f node-deploy.yaml
    node-deploy deploy -f node-deploy.yaml --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, manifestPath, verbose)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "file", "f", "node-deploy.yaml", "Deployment manifest")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runDeploy(cmd *cobra.Command, manifestPath string, verbose bool) error {
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

	url, err := syncer.Deploy(cmd.Context(), deployment)
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
