// Command node-deploy deploys a declared service to AWS: execution role,
// functions, HTTP gateway, invoke permissions and the alerting pipeline.
//
// Usage:
//
//	node-deploy deploy -f node-deploy.yaml    Deploy the declared service
//	node-deploy env -f node-deploy.yaml       Print the resolved environment
//	node-deploy version                       Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "node-deploy",
		Short: "Deploy declared serverless services to AWS",
		Long: `node-deploy converges AWS onto a declared service manifest: one
execution role, one function per declared HTTP handler, an HTTP API with
one route and one integration per function, invoke permissions, and an
optional alerting pipeline.

Runs are idempotent; a second deploy of an unchanged manifest performs no
remote writes.`,
	}

	rootCmd.AddCommand(
		newDeployCmd(),
		newEnvCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("node-deploy %s\n", version)
		},
	}
}
