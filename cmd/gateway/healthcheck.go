package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func healthcheckCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "probe a running gateway's /healthz and exit 0/1",
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runHealthcheck(addr))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "base address of the gateway to probe")
	return cmd
}

func runHealthcheck(addr string) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/healthz")
	if err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck failed:", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintln(os.Stderr, "healthcheck failed: status", resp.StatusCode)
		return 1
	}
	return 0
}
