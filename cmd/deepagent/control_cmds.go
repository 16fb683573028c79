package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepagent-go/deepagent/internal/control"
)

var flagDenyReason string

var approveCmd = &cobra.Command{
	Use:   "approve <approval-id>",
	Short: "Approve a pending tool call on a running agent's control socket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runControlCommand(func(c *control.Client) (*control.Response, error) {
			return c.Approve(args[0])
		})
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <approval-id>",
	Short: "Deny a pending tool call on a running agent's control socket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runControlCommand(func(c *control.Client) (*control.Response, error) {
			return c.Deny(args[0], flagDenyReason)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running agent's control socket for status",
	Run: func(cmd *cobra.Command, args []string) {
		runControlCommand(func(c *control.Client) (*control.Response, error) {
			return c.Status()
		})
	},
}

func init() {
	denyCmd.Flags().StringVar(&flagDenyReason, "reason", "", "reason recorded alongside the denial")
	rootCmd.AddCommand(approveCmd, denyCmd, statusCmd)
}

func runControlCommand(fn func(*control.Client) (*control.Response, error)) {
	if flagControlSocket == "" {
		fatalf("--control-socket is required to reach a running agent")
	}
	c := control.NewClient(flagControlSocket)
	resp, err := fn(c)
	if err != nil {
		fatalf("%v", err)
	}
	if !resp.Success {
		red := color.New(color.FgRed).SprintFunc()
		fatalf("%s %s", red("command failed:"), resp.Error)
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %s\n", green("✓"), resp.Message)
	for k, v := range resp.Data {
		fmt.Printf("  %s: %v\n", k, v)
	}
}
