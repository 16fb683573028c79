package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepagent-go/deepagent/agent"
	"github.com/deepagent-go/deepagent/internal/events"
)

// repl drives an interactive shell over a single long-lived thread,
// grounded on the teacher's internal/repl.REPL: a chzyer/readline
// instance with history and slash commands, graceful SIGINT/SIGTERM
// handling, and io.EOF on Ctrl+D exiting cleanly.
type repl struct {
	agent    *agent.Agent
	threadID string
	rl       *readline.Instance
	rlClosed bool
	rlMu     sync.Mutex
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session against the agent",
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

		threadID := flagThreadID
		if threadID == "" {
			threadID = "repl-" + newSessionSuffix()
		}

		r := &repl{agent: a, threadID: threadID}
		if err := r.run(ctx); err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	replCmd.Flags().StringVar(&flagThreadID, "thread", "", "thread ID to resume (a fresh one is generated if empty)")
	rootCmd.AddCommand(replCmd)
}

func (r *repl) closeReadline() error {
	r.rlMu.Lock()
	defer r.rlMu.Unlock()
	if r.rlClosed || r.rl == nil {
		return nil
	}
	r.rlClosed = true
	return r.rl.Close()
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".deepagent")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

func (r *repl) run(ctx context.Context) error {
	cyan := color.New(color.FgCyan).SprintFunc()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 cyan("deepagent> "),
		HistoryFile:            historyPath(),
		HistoryLimit:           1000,
		AutoComplete:           readline.NewPrefixCompleter(readline.PcItem("/quit"), readline.PcItem("/exit"), readline.PcItem("/help")),
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	r.rl = rl
	defer r.closeReadline()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("\n%s shutting down\n", green("✓"))
		_ = r.closeReadline()
		os.Exit(0)
	}()

	fmt.Printf("deepagent repl — thread %q. /quit or Ctrl+D to exit.\n", r.threadID)

	ctrlC := 0
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				ctrlC++
				if ctrlC == 1 {
					gray := color.New(color.FgHiBlack).SprintFunc()
					fmt.Printf("%s (use /quit or Ctrl+D to leave)\n", gray("^C"))
				}
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if line == "/help" {
			fmt.Println("type a prompt to send it to the agent; /quit or Ctrl+D to exit")
			continue
		}

		r.submit(ctx, line)
	}
}

func (r *repl) submit(ctx context.Context, prompt string) {
	stream := r.agent.Run(ctx, agent.RunInput{ThreadID: r.threadID, Prompt: prompt})
	for ev := range stream.Events() {
		displayEvent(ev)
		if ev.Type == events.TypeError {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("\n%s %v\n", red("Error:"), ev.Err)
		}
	}
	fmt.Println()
}

func newSessionSuffix() string {
	return fmt.Sprintf("%d", os.Getpid())
}
