package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepagent-go/deepagent/agent"
	"github.com/deepagent-go/deepagent/internal/events"
)

var flagThreadID string

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run one prompt through the agent and print the streamed events",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		f, err := resolveFlags()
		if err != nil {
			fatalf("%v", err)
		}

		a, prompter, err := buildAgent(ctx, f)
		if err != nil {
			fatalf("%v", err)
		}

		srv, err := maybeStartControlServer(ctx, f.controlSock, prompter)
		if err != nil {
			fatalf("%v", err)
		}
		if srv != nil {
			defer srv.Stop()
		}

		stream := a.Run(ctx, agent.RunInput{ThreadID: flagThreadID, Prompt: args[0]})

		var fatal error
		for ev := range stream.Events() {
			displayEvent(ev)
			if ev.Type == events.TypeError {
				fatal = ev.Err
			}
		}
		fmt.Println()

		if fatal != nil {
			red := color.New(color.FgRed, color.Bold).SprintFunc()
			fatalf("%s %v", red("run failed:"), fatal)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&flagThreadID, "thread", "", "thread ID to resume or persist under (auto-generated if a checkpointer is configured and this is empty)")
	rootCmd.AddCommand(runCmd)
}
