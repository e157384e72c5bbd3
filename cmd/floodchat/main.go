// Command floodchat is a streaming chat client for the flood monitoring
// backend.
//
// Usage:
//
//	floodchat chat [-p prompt]     chat with an LLM provider
//	floodchat agent [-p prompt]    run a flood agent
//	floodchat agents               list the backend's agents
//	floodchat providers            list the backend's LLM providers
//
// Settings come from flags, FLOODCHAT_* environment variables and
// ~/.floodchat/config.yaml, in that order.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "floodchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("determine home directory: %w", err)
	}
	return newRootCmd(home).ExecuteContext(ctx)
}
