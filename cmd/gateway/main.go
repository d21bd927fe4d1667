// Command gateway runs the read-aggregation gateway: it warms a cache
// bundle from the chain node, the ETL service, and the gated config
// directory, then serves HTTP and WebSocket reads over it while a
// background fleet keeps every cell fresh.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{Use: "gateway"}
	root.AddCommand(serveCmd())
	root.AddCommand(healthcheckCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the gateway's build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
